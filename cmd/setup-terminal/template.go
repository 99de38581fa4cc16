// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/marjacob/setup-terminal/internal/setup"

	"github.com/spf13/cobra"
)

// newTemplateCommand creates the `setup-terminal template` command, which
// prints the built-in setup script template.
func newTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the built-in setup script template",
		Long: `Print the built-in Inno Setup script template. Redirect it to a file,
edit it and pass it back with --template.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), setup.DefaultTemplateSource())
			return err
		},
	}
}
