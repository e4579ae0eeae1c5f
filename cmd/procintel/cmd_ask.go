package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"procintel/internal/transparency"
	"procintel/internal/ux"
)

var (
	showThinking bool
	rawOutput    bool
	whyFull      bool
)

// askCmd answers one question
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Routes a Portuguese question and prints the report.

Examples:
  procintel ask "qual a situação geral?"
  procintel ask "me fale do processo 12345-678.2024"
  procintel ask --think "quais processos estão atrasados?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// whyCmd explains how a question is routed
var whyCmd = &cobra.Command{
	Use:   "why [question]",
	Short: "Explain which rule a question routes to",
	Long: `Shows the folded question and each routing rule in precedence order,
marking the rule that matched.

With --full the question is also answered and the run is summarized
(intent, subject, excluded records, stages).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWhy,
}

func init() {
	askCmd.Flags().BoolVar(&showThinking, "think", false, "Print the thinking trace before the report")
	askCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print raw markdown")
	whyCmd.Flags().BoolVar(&whyFull, "full", false, "Also answer the question and summarize the run")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := joinArgs(args)
	src, st, err := openSource()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	snap, err := src.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	res, err := newEngine().Answer(ctx, query, snap)
	if err != nil {
		return err
	}
	if st != nil {
		if err := st.LogQuery(ctx, query, res.Decision.Intent.String(), res.Decision.Rule); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if showThinking {
		fmt.Fprintln(out, strings.Join(res.Thinking, "\n"))
		fmt.Fprintln(out)
	}
	r, err := ux.NewRenderer(ux.DetectTheme(), cfg.UI.WordWrap, cfg.UI.Render && !rawOutput)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, r.Render(res.Report.Body))
	return nil
}

func runWhy(cmd *cobra.Command, args []string) error {
	query := joinArgs(args)
	engine := newEngine()
	ex := transparency.NewExplainer()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, ex.ExplainRouting(engine.Router().Rules(), query))
	if !whyFull {
		return nil
	}

	src, st, err := openSource()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	snap, err := src.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	res, err := engine.Answer(ctx, query, snap)
	if err != nil {
		return err
	}
	ex.SetShowDetails(true)
	fmt.Fprintln(out, ex.ExplainResult(res))
	return nil
}
