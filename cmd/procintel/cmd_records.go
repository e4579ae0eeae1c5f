package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"procintel/internal/types"
)

var (
	procID          string
	procSEI         string
	procName        string
	procResponsible string
	procType        string
	procModality    string
	procArrival     string
	procNotes       string
	exitDate        string
)

// processCmd edits single stored processes
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Add, complete or delete a stored process",
}

var processAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a process",
	Example: `  procintel process add --sei 12345-678.2024 --name "Aquisição de papel" \
    --responsible DIEGO --type 2.COTAÇÃO --arrival 01/06/2024`,
	Args: cobra.NoArgs,
	RunE: runProcessAdd,
}

var processCompleteCmd = &cobra.Command{
	Use:   "complete [id|sei]",
	Short: "Stamp an exit date and move a process to completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcessComplete,
}

var processDeleteCmd = &cobra.Command{
	Use:   "delete [id|sei]",
	Short: "Delete a process",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcessDelete,
}

// biddingCmd edits single stored biddings
var biddingCmd = &cobra.Command{
	Use:   "bidding",
	Short: "Change the status of or delete a stored bidding",
}

var biddingStatusCmd = &cobra.Command{
	Use:   "status [id|sei] [label...]",
	Short: "Set a bidding's status label",
	Long: `Sets the status label of a bidding. A label that differs from the stored
one stamps the bidding as updated now, so it shows up among the recently
changed biddings.`,
	Example: `  procintel bidding status 33333-333.2024 EM ANÁLISE`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runBiddingStatus,
}

var biddingDeleteCmd = &cobra.Command{
	Use:   "delete [id|sei]",
	Short: "Delete a bidding",
	Args:  cobra.ExactArgs(1),
	RunE:  runBiddingDelete,
}

func init() {
	f := processAddCmd.Flags()
	f.StringVar(&procID, "id", "", "Record ID (generated when empty)")
	f.StringVar(&procSEI, "sei", "", "SEI reference code")
	f.StringVar(&procName, "name", "", "Object")
	f.StringVar(&procResponsible, "responsible", "", "Responsible party")
	f.StringVar(&procType, "type", "", "Process type label")
	f.StringVar(&procModality, "modality", "", "Modality label")
	f.StringVar(&procArrival, "arrival", "", "Arrival date (default today)")
	f.StringVar(&procNotes, "obs", "", "Observations")
	f.StringVar(&exitDate, "exit", "", "Exit date; files the process as completed")
	_ = processAddCmd.MarkFlagRequired("sei")

	processCompleteCmd.Flags().StringVar(&exitDate, "exit", "", "Exit date (default today)")

	processCmd.AddCommand(processAddCmd, processCompleteCmd, processDeleteCmd)
	biddingCmd.AddCommand(biddingStatusCmd, biddingDeleteCmd)
	rootCmd.AddCommand(processCmd, biddingCmd)
}

// parseDay reads a date in the configured import layout. Empty means today.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	layout := cfg.Import.DateLayout
	if layout == "" {
		layout = "02/01/2006"
	}
	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return t, fmt.Errorf("invalid date %q (expected %s)", s, layout)
	}
	return t, nil
}

func runProcessAdd(cmd *cobra.Command, args []string) error {
	arrival, err := parseDay(procArrival)
	if err != nil {
		return err
	}
	p := types.ProcessRecord{
		ID:           strings.TrimSpace(procID),
		SEI:          strings.TrimSpace(procSEI),
		Name:         strings.TrimSpace(procName),
		Responsible:  strings.ToUpper(strings.TrimSpace(procResponsible)),
		Type:         types.ProcessType(strings.TrimSpace(procType)),
		Modality:     types.Modality(strings.TrimSpace(procModality)),
		ArrivalDate:  arrival,
		Observations: procNotes,
	}
	if exitDate != "" {
		exit, err := parseDay(exitDate)
		if err != nil {
			return err
		}
		p.ExitDate = &exit
	}
	if err := p.Validate(); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if p.ID == "" {
		if existing, err := st.GetProcess(cmd.Context(), p.SEI); err == nil {
			p.ID = existing.ID
		} else {
			p.ID = uuid.NewString()
		}
	}
	if err := st.UpsertProcess(cmd.Context(), p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processo %s salvo (%s)\n", p.SEI, p.ID)
	return nil
}

func runProcessComplete(cmd *cobra.Command, args []string) error {
	exit, err := parseDay(exitDate)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.CompleteByKey(cmd.Context(), args[0], exit)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processo %s concluído em %s\n", p.SEI, exit.Format("02/01/2006"))
	return nil
}

func runProcessDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.GetProcess(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteProcess(cmd.Context(), p.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processo %s removido\n", p.SEI)
	return nil
}

func runBiddingStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	b, err := st.SetBiddingStatus(cmd.Context(), args[0], joinArgs(args[1:]))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pregão %s: %s\n", b.SEI, orPending(b.Status))
	return nil
}

func runBiddingDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	b, err := st.GetBidding(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteBidding(cmd.Context(), b.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pregão %s removido\n", b.SEI)
	return nil
}

func orPending(status string) string {
	if status == "" {
		return "Pendente"
	}
	return status
}
