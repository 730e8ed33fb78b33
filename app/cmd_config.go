package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewCmdConfig(out io.Writer, config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doConfig(out, config)
		},
	}
}

// doConfig prints the configuration in effect, i.e. the defaults merged with
// the user file and the environment. Flags are not included.
func doConfig(out io.Writer, config *Config) error {
	_, err := fmt.Fprintf(out, "# SDR Client configuration\n\n%s", config)
	return err
}
