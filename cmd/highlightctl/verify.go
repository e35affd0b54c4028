package main

import (
	"github.com/spf13/cobra"

	"github.com/legalese-app/legalese-core/internal/highlights"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [analysis.json]",
		Short: "Check that every highlight in an export matches its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := highlights.DecodeAnalysis(data)
			if err != nil {
				return err
			}
			cmd.Printf("ok: %d highlights verified against %d characters\n", len(a.Highlights), a.Source().Len())
			return nil
		},
	}
}
