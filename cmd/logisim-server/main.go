package main

import "github.com/logisim-sim/logisim/internal/adapters/cli"

func main() {
	cli.Execute()
}
