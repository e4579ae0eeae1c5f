package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"procintel/internal/demo"
	"procintel/internal/importer"
	"procintel/internal/types"
)

var (
	seedValue     int64
	seedProcesses int
	seedCompleted int
	seedBiddings  int
	historyLimit  int
)

// importCmd loads a CSV sheet into the database
var importCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import a process sheet into the database",
	Long: `Parses a ';'-separated sheet (SEI, OBJETO, RESPONSÁVEL, TIPO, MODALIDADE,
DATA CHEGADA, DATA SAÍDA, OBSERVAÇÕES) and replaces the stored records.

Rows whose type mentions PREGÃO become biddings; rows with an exit date are
filed as completed.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// seedCmd fills the database with demo data
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the stored records with generated demo data",
	RunE:  runSeed,
}

// historyCmd lists recently answered questions
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently answered questions",
	RunE:  runHistory,
}

func init() {
	d := demo.DefaultOptions()
	seedCmd.Flags().Int64Var(&seedValue, "seed", d.Seed, "Random seed")
	seedCmd.Flags().IntVar(&seedProcesses, "processes", d.Processes, "Active processes")
	seedCmd.Flags().IntVar(&seedCompleted, "completed", d.Completed, "Completed processes")
	seedCmd.Flags().IntVar(&seedBiddings, "biddings", d.Biddings, "Biddings")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	im, err := importer.FromConfig(cfg.Import)
	if err != nil {
		return err
	}
	res, err := im.ImportFile(args[0])
	if err != nil {
		return err
	}
	if err := saveSnapshot(cmd.Context(), res.Snapshot); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Importadas %d linhas (%d em branco): %d ativos, %d concluídos, %d pregões\n",
		res.Rows, res.Blank, len(res.Snapshot.Processes), len(res.Snapshot.Completed), len(res.Snapshot.Biddings))
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  aviso: %s\n", w)
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	opts := demo.DefaultOptions()
	opts.Seed = seedValue
	opts.Processes = seedProcesses
	opts.Completed = seedCompleted
	opts.Biddings = seedBiddings
	opts.Responsibles = cfg.Engine.ResponsibleNames
	opts.Now = time.Now()

	snap := demo.Generate(opts)
	if err := saveSnapshot(cmd.Context(), snap); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Gerados %d ativos, %d concluídos, %d pregões em %s\n",
		len(snap.Processes), len(snap.Completed), len(snap.Biddings), cfg.Store.DatabasePath)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.RecentQueries(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "Nenhuma pergunta registrada.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-24s %s\n", e.CreatedAt.Local().Format("02/01/2006 15:04"), e.Intent, e.Query)
	}
	return nil
}

func saveSnapshot(ctx context.Context, snap types.Snapshot) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveSnapshot(ctx, snap)
}
