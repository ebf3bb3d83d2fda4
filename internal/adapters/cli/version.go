package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build; the default marks a source build.
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("logisim-server %s\n", Version)
		},
	}
}
