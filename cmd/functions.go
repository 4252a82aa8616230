package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the functions and presets available to code rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := openBoard(cmd.Context(), runFrom(cmd), "")
		if err != nil {
			return err
		}
		defer b.close()

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Presets (use as presets.<name>):")
		for _, name := range b.app.Presets().Names() {
			fmt.Fprintf(w, "  %s\n", name)
		}
		fmt.Fprintln(w, "Functions:")
		for _, name := range b.app.Env().Expr.Functions() {
			fmt.Fprintf(w, "  %s\n", name)
		}
		return nil
	},
}
