package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legalese-app/legalese-core/internal/highlights"
)

func newProjectCmd() *cobra.Command {
	var (
		selected int
		output   string
	)
	cmd := &cobra.Command{
		Use:   "project [analysis.json]",
		Short: "Project an exported analysis into render spans",
		Long: `Loads an exported analysis and prints the render spans and segments a viewer
would draw. --selected restyles one highlight as the active selection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := highlights.DecodeAnalysis(data)
			if err != nil {
				return err
			}

			var sel *int
			if cmd.Flags().Changed("selected") {
				if selected < 0 || selected >= len(a.Highlights) {
					return fmt.Errorf("selected highlight %d out of range (analysis has %d)", selected, len(a.Highlights))
				}
				sel = &selected
			}

			projection := highlights.Project(a.Source().Len(), a.Highlights, nil, sel)
			return printJSON(cmd, output, projection)
		},
	}

	cmd.Flags().IntVarP(&selected, "selected", "s", -1, "Index of the selected highlight")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the projection to a file instead of stdout")
	return cmd
}
