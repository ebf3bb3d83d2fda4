package shared

import "fmt"

// NodeID identifies a vertex in the road graph.
type NodeID string

// EdgeID identifies a directed edge in the road graph.
type EdgeID string

// BuildingID identifies a building attached to a node (parking, gas station, site).
type BuildingID string

// AgentID identifies a truck or the broker.
type AgentID string

// PackageID identifies a freight package.
type PackageID string

// SiteID identifies a site building (a specialization of BuildingID).
type SiteID string

func (n NodeID) String() string      { return string(n) }
func (e EdgeID) String() string      { return string(e) }
func (b BuildingID) String() string  { return string(b) }
func (a AgentID) String() string     { return string(a) }
func (p PackageID) String() string   { return string(p) }
func (s SiteID) String() string      { return string(s) }

// NewIDFromUUID formats a generated uuid string with a short, readable
// prefix so ids stay legible in logs and signal payloads.
func NewIDFromUUID(prefix, uuidValue string) string {
	if len(uuidValue) > 8 {
		uuidValue = uuidValue[:8]
	}
	return fmt.Sprintf("%s-%s", prefix, uuidValue)
}
