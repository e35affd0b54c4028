package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/highlights"
)

type reconcileOptions struct {
	textPath     string
	responsePath string
	strategy     string
	prefixLength int
	output       string
}

func newReconcileCmd() *cobra.Command {
	opts := &reconcileOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a model response against document text",
		Long: `Validates a raw model response and snaps every highlight onto the document text.
Prints the resulting analysis in export format. Rejected highlights are listed
under "rejections"; a response that fails validation exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReconcile(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.textPath, "text", "t", "", "Extracted document text (- for stdin)")
	cmd.Flags().StringVarP(&opts.responsePath, "response", "r", "", "Raw model response JSON (- for stdin)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", string(highlights.DefaultStrategy), "Locate strategy for repeated phrases (first, nearest)")
	cmd.Flags().IntVar(&opts.prefixLength, "prefix", highlights.DefaultPrefixLength, "Prefix length for fallback matching")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the analysis to a file instead of stdout")
	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}

func runReconcile(cmd *cobra.Command, opts *reconcileOptions) error {
	if opts.textPath == "-" && opts.responsePath == "-" {
		return fmt.Errorf("only one of --text and --response can read stdin")
	}
	strategy, err := highlights.ParseLocateStrategy(opts.strategy)
	if err != nil {
		return err
	}

	text, err := readInput(cmd, opts.textPath)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd, opts.responsePath)
	if err != nil {
		return err
	}

	r := highlights.NewReconciler(
		highlights.WithStrategy(strategy),
		highlights.WithPrefixLength(opts.prefixLength),
	)
	result := r.Reconcile(domain.NewSourceText(string(text)), raw)
	if !result.OK() {
		for _, fe := range result.FieldErrors {
			cmd.PrintErrf("  %s: %s\n", fe.Field, fe.Message)
		}
		return result.Err()
	}

	s := result.Stats
	cmd.PrintErrf("candidates=%d exact=%d relocated=%d prefix=%d rejected=%d\n",
		s.Candidates, s.Exact, s.Relocated, s.Prefix, s.Rejected)

	data, err := highlights.EncodeAnalysis(result.Analysis)
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.output, data)
}
