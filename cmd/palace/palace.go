// Package palacecmder
package palacecmder

import (
	"github.com/spf13/cobra"

	servecmder "github.com/RationallyPrime/found-family/cmd/palace/serve"
	versioncmder "github.com/RationallyPrime/found-family/cmd/version"
)

const palaceLongDesc string = `Palace is a long-term memory graph for AI companions.

Run the service using:
  palace serve         Run the HTTP API and MCP servers`

const palaceShortDesc string = "Palace - AI Memory Graph"

func NewPalaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palace",
		Short: palaceShortDesc,
		Long:  palaceLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
