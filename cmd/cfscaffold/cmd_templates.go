package main

import (
	"fmt"
	"text/tabwriter"

	"cfscaffold/internal/generator"

	"github.com/spf13/cobra"
)

var showFiles bool

// templatesCmd lists the embedded template sets
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the built-in project template sets",
	Args:  cobra.NoArgs,
	RunE:  runTemplates,
}

func init() {
	templatesCmd.Flags().BoolVar(&showFiles, "files", false, "Also list the files each set writes")
}

func runTemplates(cmd *cobra.Command, args []string) error {
	sets, err := generator.BuiltinSets()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION")
	for _, name := range generator.SetNames() {
		set := sets[name]
		fmt.Fprintf(w, "%s\tv%d\t%s\n", set.Name, set.Version, set.Description)
		if showFiles {
			for _, f := range set.Files {
				fmt.Fprintf(w, "\t\t  %s (%s)\n", f.Path, f.Role)
			}
		}
	}
	return w.Flush()
}
