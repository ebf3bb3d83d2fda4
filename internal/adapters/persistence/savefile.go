// Package persistence implements the two durability paths: the JSON
// save-file codec (full world snapshots and graph-only map documents) and
// the GORM-backed repositories that stream ledger transactions and tick
// snapshots into Postgres or SQLite.
package persistence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/logisim-sim/logisim/internal/domain/broker"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/truck"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

// NodeDoc, EdgeDoc, and BuildingDoc make up the graph portion of a save
// document; BuildingDoc is discriminated by Type and every enum travels as
// a string on both the write and the read path.
type NodeDoc struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type EdgeDoc struct {
	ID          string  `json:"id"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	LengthM     float64 `json:"length_m"`
	MaxSpeedKPH float64 `json:"max_speed_kph"`
	RoadClass   string  `json:"road_class"`
	Lanes       int     `json:"lanes"`
	Mode        string  `json:"mode"`
}

type BuildingDoc struct {
	Type         string             `json:"type"`
	Node         string             `json:"node"`
	Capacity     int                `json:"capacity,omitempty"`
	CostFactor   float64            `json:"cost_factor,omitempty"`
	Revenue      float64            `json:"revenue,omitempty"`
	Name         string             `json:"name,omitempty"`
	ActivityRate float64            `json:"activity_rate,omitempty"`
	DestWeights  map[string]float64 `json:"destination_weights,omitempty"`
}

type GraphDoc struct {
	Nodes     []NodeDoc              `json:"nodes"`
	Edges     []EdgeDoc              `json:"edges"`
	Buildings map[string]BuildingDoc `json:"buildings"`
}

type TaskDoc struct {
	SiteID     string   `json:"site_id"`
	TaskType   string   `json:"task_type"`
	PackageIDs []string `json:"package_ids"`
	Status     string   `json:"status"`
}

type AgentDoc struct {
	Type string `json:"type"`

	// Truck fields.
	AtNode              string    `json:"at_node,omitempty"`
	OnEdge              string    `json:"on_edge,omitempty"`
	EdgeProgressM       float64   `json:"edge_progress_m,omitempty"`
	Route               []string  `json:"route,omitempty"`
	Destination         string    `json:"destination,omitempty"`
	OriginalDestination string    `json:"original_destination,omitempty"`
	MaxSpeedKPH         float64   `json:"max_speed_kph,omitempty"`
	Capacity            int       `json:"capacity,omitempty"`
	FuelTankCapacityL   float64   `json:"fuel_tank_capacity_l,omitempty"`
	CurrentFuelL        float64   `json:"current_fuel_l,omitempty"`
	CO2EmittedKg        float64   `json:"co2_emitted_kg,omitempty"`
	IsFueling           bool      `json:"is_fueling,omitempty"`
	Loaded              []string  `json:"loaded_packages,omitempty"`
	DrivingTimeS        float64   `json:"driving_time_s,omitempty"`
	RestingTimeS        float64   `json:"resting_time_s,omitempty"`
	IsResting           bool      `json:"is_resting,omitempty"`
	RequiredRestS       float64   `json:"required_rest_s,omitempty"`
	RiskFactor          float64   `json:"risk_factor,omitempty"`
	DeliveryQueue       []TaskDoc `json:"delivery_queue,omitempty"`
	CurrentBuildingID   string    `json:"current_building_id,omitempty"`
	BalanceDucats       float64   `json:"balance_ducats"`

	// Broker fields.
	Queue       []string          `json:"queue,omitempty"`
	Known       []string          `json:"known_packages,omitempty"`
	Assignments map[string]string `json:"assignments,omitempty"`
}

type PackageDoc struct {
	Origin               string  `json:"origin"`
	Destination          string  `json:"destination"`
	Size                 int     `json:"size"`
	Value                float64 `json:"value"`
	Priority             string  `json:"priority"`
	Urgency              string  `json:"urgency"`
	SpawnTick            int64   `json:"spawn_tick"`
	PickupDeadlineTick   int64   `json:"pickup_deadline_tick"`
	DeliveryDeadlineTick int64   `json:"delivery_deadline_tick"`
	Status               string  `json:"status"`
}

type SiteStatsDoc struct {
	PackagesGenerated   int     `json:"packages_generated"`
	PackagesPickedUp    int     `json:"packages_picked_up"`
	PackagesDelivered   int     `json:"packages_delivered"`
	PackagesExpired     int     `json:"packages_expired"`
	TotalValueDelivered float64 `json:"total_value_delivered"`
	TotalValueExpired   float64 `json:"total_value_expired"`
}

type MetadataDoc struct {
	Tick            int64   `json:"tick"`
	DtS             float64 `json:"dt_s"`
	NowS            float64 `json:"now_s"`
	GlobalFuelPrice float64 `json:"global_fuel_price"`
	CurrentDay      int     `json:"current_day"`
}

// StateDoc is the complete save-file document.
type StateDoc struct {
	Graph     GraphDoc                `json:"graph"`
	Agents    map[string]AgentDoc     `json:"agents"`
	Packages  map[string]PackageDoc   `json:"packages"`
	SiteStats map[string]SiteStatsDoc `json:"site_stats"`
	Metadata  MetadataDoc             `json:"metadata"`
}

// Codec serializes worlds and graphs to the save-file format. It carries a
// base world configuration so a decoded world inherits the same fuel-market
// bounds and RNG seed policy as a freshly constructed one.
type Codec struct {
	baseConfig world.Config
}

// NewCodec creates a codec around a base world configuration.
func NewCodec(baseConfig world.Config) *Codec {
	return &Codec{baseConfig: baseConfig}
}

func encodeGraphDoc(g *graph.Graph, buildings map[string]map[string]any) GraphDoc {
	doc := GraphDoc{Buildings: map[string]BuildingDoc{}}

	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeDoc{ID: string(n.ID), X: n.X, Y: n.Y})
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })

	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeDoc{
			ID:          string(e.ID),
			From:        string(e.From),
			To:          string(e.To),
			LengthM:     e.LengthM,
			MaxSpeedKPH: e.MaxSpeedKPH,
			RoadClass:   e.RoadClass,
			Lanes:       e.Lanes,
			Mode:        e.Mode,
		})
	}
	sort.Slice(doc.Edges, func(i, j int) bool { return doc.Edges[i].ID < doc.Edges[j].ID })

	for id, record := range buildings {
		b := BuildingDoc{}
		b.Type, _ = record["type"].(string)
		b.Node, _ = record["node"].(string)
		if v, ok := record["capacity"].(int); ok {
			b.Capacity = v
		}
		if v, ok := record["cost_factor"].(float64); ok {
			b.CostFactor = v
		}
		if v, ok := record["revenue"].(float64); ok {
			b.Revenue = v
		}
		if v, ok := record["name"].(string); ok {
			b.Name = v
		}
		if v, ok := record["activity_rate"].(float64); ok {
			b.ActivityRate = v
		}
		if v, ok := record["destination_weights"].(map[string]float64); ok {
			b.DestWeights = v
		}
		doc.Buildings[id] = b
	}
	return doc
}

// EncodeGraph serializes the graph portion only, the map.export payload.
func (c *Codec) EncodeGraph(g *graph.Graph, buildings map[string]map[string]any) ([]byte, error) {
	return json.MarshalIndent(encodeGraphDoc(g, buildings), "", "  ")
}

// DecodeGraph parses a map document into a bare graph (no buildings).
func (c *Codec) DecodeGraph(data []byte) (*graph.Graph, error) {
	var doc GraphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse map document: %w", err)
	}
	return buildGraph(doc)
}

func buildGraph(doc GraphDoc) (*graph.Graph, error) {
	g := graph.New()
	for _, n := range doc.Nodes {
		if err := g.AddNode(graph.NewNode(shared.NodeID(n.ID), n.X, n.Y)); err != nil {
			return nil, err
		}
	}
	for _, e := range doc.Edges {
		edge := &graph.Edge{
			ID:          shared.EdgeID(e.ID),
			From:        shared.NodeID(e.From),
			To:          shared.NodeID(e.To),
			LengthM:     e.LengthM,
			MaxSpeedKPH: e.MaxSpeedKPH,
			RoadClass:   e.RoadClass,
			Lanes:       e.Lanes,
			Mode:        e.Mode,
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// attachBuildings places every building record onto a fresh world.
func attachBuildings(w *world.World, buildings map[string]BuildingDoc) error {
	ids := make([]string, 0, len(buildings))
	for id := range buildings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		b := buildings[id]
		node := shared.NodeID(b.Node)
		switch b.Type {
		case "parking":
			if _, err := w.AddParking(shared.BuildingID(id), node, b.Capacity); err != nil {
				return err
			}
		case "gas_station":
			gs, err := w.AddGasStation(shared.BuildingID(id), node, b.Capacity, b.CostFactor)
			if err != nil {
				return err
			}
			gs.RestoreRevenue(b.Revenue)
		case "site":
			weights := make(map[shared.SiteID]float64, len(b.DestWeights))
			for dst, wgt := range b.DestWeights {
				weights[shared.SiteID(dst)] = wgt
			}
			if _, err := w.AddSite(shared.BuildingID(id), b.Name, node, b.ActivityRate, weights, site.DefaultPackageConfig()); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown building type %q", b.Type)
		}
	}
	return nil
}

// RebuildWorld turns a map document into a fresh world carrying the same
// graph and building roster; used by map.import.
func (c *Codec) RebuildWorld(data []byte) (*world.World, error) {
	var doc GraphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse map document: %w", err)
	}
	g, err := buildGraph(doc)
	if err != nil {
		return nil, err
	}
	w := world.New(g, c.baseConfig)
	if err := attachBuildings(w, doc.Buildings); err != nil {
		return nil, err
	}
	w.AddBroker("broker")
	return w, nil
}

// EncodeWorld serializes the complete world.
func (c *Codec) EncodeWorld(w *world.World) ([]byte, error) {
	doc := StateDoc{
		Graph:     encodeGraphDoc(w.Graph(), w.BuildingRecords()),
		Agents:    map[string]AgentDoc{},
		Packages:  map[string]PackageDoc{},
		SiteStats: map[string]SiteStatsDoc{},
		Metadata: MetadataDoc{
			Tick:            w.Tick(),
			DtS:             w.DtSeconds(),
			NowS:            w.NowSeconds(),
			GlobalFuelPrice: w.FuelPrice(),
			CurrentDay:      w.Day(),
		},
	}

	if b := w.Broker(); b != nil {
		// An in-flight negotiation is not persisted; its package goes back
		// to the head of the queue so a restored broker simply restarts it.
		queue := make([]string, 0)
		if neg := b.ActiveNegotiation(); neg != nil {
			queue = append(queue, string(neg.PackageID))
		}
		for _, id := range b.QueueIDs() {
			queue = append(queue, string(id))
		}
		known := make([]string, 0)
		for _, id := range b.KnownIDs() {
			known = append(known, string(id))
		}
		sort.Strings(known)
		assignments := make(map[string]string)
		for pkg, truckID := range b.Assignments() {
			assignments[string(pkg)] = string(truckID)
		}
		doc.Agents[string(b.ID())] = AgentDoc{
			Type:          "broker",
			BalanceDucats: b.BalanceDucats(),
			Queue:         queue,
			Known:         known,
			Assignments:   assignments,
		}
	}

	for id, tr := range w.Trucks() {
		pos := tr.Position()
		route := make([]string, 0, len(tr.Route()))
		for _, n := range tr.Route() {
			route = append(route, string(n))
		}
		loaded := make([]string, 0, len(tr.LoadedPackages()))
		for _, p := range tr.LoadedPackages() {
			loaded = append(loaded, string(p))
		}
		tasks := make([]TaskDoc, 0, len(tr.DeliveryQueue()))
		for _, task := range tr.DeliveryQueue() {
			pkgIDs := make([]string, 0, len(task.PackageIDs))
			for _, p := range task.PackageIDs {
				pkgIDs = append(pkgIDs, string(p))
			}
			tasks = append(tasks, TaskDoc{
				SiteID:     string(task.SiteID),
				TaskType:   string(task.Type),
				PackageIDs: pkgIDs,
				Status:     string(task.Status),
			})
		}
		doc.Agents[string(id)] = AgentDoc{
			Type:                "truck",
			AtNode:              string(pos.AtNode),
			OnEdge:              string(pos.OnEdge),
			EdgeProgressM:       pos.EdgeProgressM,
			Route:               route,
			Destination:         string(tr.Destination()),
			OriginalDestination: string(tr.OriginalDestination()),
			MaxSpeedKPH:         tr.MaxSpeedKPH(),
			Capacity:            tr.Capacity(),
			FuelTankCapacityL:   tr.FuelTankCapacityL(),
			CurrentFuelL:        tr.CurrentFuelL(),
			CO2EmittedKg:        tr.CO2EmittedKg(),
			IsFueling:           tr.IsFueling(),
			Loaded:              loaded,
			DrivingTimeS:        tr.DrivingTimeS(),
			RestingTimeS:        tr.RestingTimeS(),
			IsResting:           tr.IsResting(),
			RequiredRestS:       tr.RequiredRestS(),
			RiskFactor:          tr.RiskFactor(),
			DeliveryQueue:       tasks,
			CurrentBuildingID:   string(tr.CurrentBuildingID()),
			BalanceDucats:       tr.BalanceDucats(),
		}
	}

	for id, pkg := range w.Packages() {
		doc.Packages[string(id)] = PackageDoc{
			Origin:               string(pkg.Origin()),
			Destination:          string(pkg.Destination()),
			Size:                 pkg.Size(),
			Value:                pkg.Value(),
			Priority:             string(pkg.Priority()),
			Urgency:              string(pkg.Urgency()),
			SpawnTick:            pkg.SpawnTick(),
			PickupDeadlineTick:   pkg.PickupDeadlineTick(),
			DeliveryDeadlineTick: pkg.DeliveryDeadlineTick(),
			Status:               string(pkg.Status()),
		}
	}

	for id, s := range w.Sites() {
		stats := s.Statistics()
		doc.SiteStats[string(id)] = SiteStatsDoc{
			PackagesGenerated:   stats.PackagesGenerated,
			PackagesPickedUp:    stats.PackagesPickedUp,
			PackagesDelivered:   stats.PackagesDelivered,
			PackagesExpired:     stats.PackagesExpired,
			TotalValueDelivered: stats.TotalValueDelivered,
			TotalValueExpired:   stats.TotalValueExpired,
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}

// DecodeWorld rebuilds a complete world from a save document.
func (c *Codec) DecodeWorld(data []byte) (*world.World, error) {
	var doc StateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse save document: %w", err)
	}

	g, err := buildGraph(doc.Graph)
	if err != nil {
		return nil, err
	}

	cfg := c.baseConfig
	if doc.Metadata.DtS > 0 {
		cfg.DtSeconds = doc.Metadata.DtS
	}
	w := world.New(g, cfg)
	if err := attachBuildings(w, doc.Graph.Buildings); err != nil {
		return nil, err
	}

	// Packages before agents, so a restored truck's cargo resolves.
	pkgIDs := make([]string, 0, len(doc.Packages))
	for id := range doc.Packages {
		pkgIDs = append(pkgIDs, id)
	}
	sort.Strings(pkgIDs)
	maxSeq := int64(0)
	for _, id := range pkgIDs {
		p := doc.Packages[id]
		pkg := freight.Reconstruct(
			shared.PackageID(id),
			shared.SiteID(p.Origin), shared.SiteID(p.Destination),
			p.Size, p.Value,
			freight.Priority(p.Priority), freight.Urgency(p.Urgency),
			p.SpawnTick, p.PickupDeadlineTick, p.DeliveryDeadlineTick,
			freight.Status(p.Status),
		)
		w.AttachPackage(pkg)
		if seq, ok := packageSeq(id); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	w.RestorePackageSeq(maxSeq)

	agentIDs := make([]string, 0, len(doc.Agents))
	for id := range doc.Agents {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)

	// Broker first so it keeps its head-of-order slot in the tick loop.
	for _, id := range agentIDs {
		a := doc.Agents[id]
		if a.Type != "broker" {
			continue
		}
		w.AddBroker(shared.AgentID(id))
		w.Broker().Restore(broker.Snapshot{
			BalanceDucats: a.BalanceDucats,
			Queue:         a.Queue,
			Known:         a.Known,
			Assignments:   a.Assignments,
		})
	}
	for _, id := range agentIDs {
		a := doc.Agents[id]
		if a.Type != "truck" {
			continue
		}
		startNode := shared.NodeID(a.AtNode)
		if startNode == "" {
			// Mid-edge truck: any existing node satisfies the constructor;
			// Restore immediately puts it back on its edge.
			for _, n := range doc.Graph.Nodes {
				startNode = shared.NodeID(n.ID)
				break
			}
		}
		tr, err := w.AddTruck(shared.AgentID(id), startNode, a.MaxSpeedKPH, a.Capacity, a.FuelTankCapacityL)
		if err != nil {
			return nil, fmt.Errorf("restore truck %s: %w", id, err)
		}
		route := make([]shared.NodeID, 0, len(a.Route))
		for _, n := range a.Route {
			route = append(route, shared.NodeID(n))
		}
		loaded := make([]shared.PackageID, 0, len(a.Loaded))
		for _, p := range a.Loaded {
			loaded = append(loaded, shared.PackageID(p))
		}
		tasks := make([]*truck.DeliveryTask, 0, len(a.DeliveryQueue))
		for _, taskDoc := range a.DeliveryQueue {
			pkgs := make([]shared.PackageID, 0, len(taskDoc.PackageIDs))
			for _, p := range taskDoc.PackageIDs {
				pkgs = append(pkgs, shared.PackageID(p))
			}
			tasks = append(tasks, &truck.DeliveryTask{
				SiteID:     shared.SiteID(taskDoc.SiteID),
				Type:       truck.DeliveryTaskType(taskDoc.TaskType),
				PackageIDs: pkgs,
				Status:     truck.DeliveryTaskStatus(taskDoc.Status),
			})
		}
		tr.Restore(truck.Snapshot{
			AtNode:              shared.NodeID(a.AtNode),
			OnEdge:              shared.EdgeID(a.OnEdge),
			EdgeProgressM:       a.EdgeProgressM,
			Route:               route,
			Destination:         shared.NodeID(a.Destination),
			OriginalDestination: shared.NodeID(a.OriginalDestination),
			Loaded:              loaded,
			DrivingTimeS:        a.DrivingTimeS,
			RestingTimeS:        a.RestingTimeS,
			IsResting:           a.IsResting,
			RequiredRestS:       a.RequiredRestS,
			RiskFactor:          a.RiskFactor,
			CurrentFuelL:        a.CurrentFuelL,
			CO2EmittedKg:        a.CO2EmittedKg,
			IsFueling:           a.IsFueling,
			DeliveryQueue:       tasks,
			CurrentBuildingID:   shared.BuildingID(a.CurrentBuildingID),
			BalanceDucats:       a.BalanceDucats,
		})
	}

	for id, stats := range doc.SiteStats {
		if s, ok := w.Site(shared.SiteID(id)); ok {
			s.RestoreStatistics(site.Statistics{
				PackagesGenerated:   stats.PackagesGenerated,
				PackagesPickedUp:    stats.PackagesPickedUp,
				PackagesDelivered:   stats.PackagesDelivered,
				PackagesExpired:     stats.PackagesExpired,
				TotalValueDelivered: stats.TotalValueDelivered,
				TotalValueExpired:   stats.TotalValueExpired,
			})
		}
	}

	w.RestoreMetadata(doc.Metadata.Tick, doc.Metadata.GlobalFuelPrice)
	return w, nil
}

// packageSeq extracts the numeric suffix of a generated "pkg-N" id.
func packageSeq(id string) (int64, bool) {
	if !strings.HasPrefix(id, "pkg-") {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, "pkg-"), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
