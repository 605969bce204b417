package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/svitlo/app"
	"github.com/kilianp07/svitlo/core/interval"
	"github.com/kilianp07/svitlo/core/status"
	"github.com/kilianp07/svitlo/infra/logger"
	"github.com/kilianp07/svitlo/infra/source"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch the schedule once and print the current status",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(showCmd)
}

// report is the printable result of one poll.
type report struct {
	Status  status.Status     `json:"status" yaml:"status"`
	Outages []interval.Outage `json:"outages" yaml:"outages"`
}

func runShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetLevel("warn")
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	coord := app.NewCoordinator(app.CoordinatorConfig{
		Region:   cfg.Source.Region,
		Queue:    cfg.Source.Queue,
		Location: loc,
		Logger:   logger.New("show"),
	}, source.NewFetcher(cfg.Source, loc), nil, nil)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Source.TimeoutSeconds+5)*time.Second)
	defer cancel()
	st, err := coord.Poll(ctx)
	coord.Scheduler().Cancel()
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), showOutput, report{Status: st, Outages: coord.Outages()}, loc)
}

func printReport(w io.Writer, format string, r report, loc *time.Location) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		return printTable(w, r, loc)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printTable(w io.Writer, r report, loc *time.Location) error {
	st := r.Status
	state := color.New(color.FgGreen, color.Bold).Sprint("ON")
	if !st.IsOn() {
		state = color.New(color.FgRed, color.Bold).Sprint("OFF")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Queue\t%s %s\n", st.Region, st.Queue)
	fmt.Fprintf(tw, "Date\t%s\n", st.Date)
	fmt.Fprintf(tw, "Now\t%s (slot %d)\n", state, st.NowHalfHourIndex)
	fmt.Fprintf(tw, "Next change\t%s\n", deref(st.NextChangeAt))
	fmt.Fprintf(tw, "Next on\t%s\n", localTime(st.NextOnAt, loc))
	fmt.Fprintf(tw, "Next off\t%s\n", localTime(st.NextOffAt, loc))
	fmt.Fprintf(tw, "Updated\t%s\n", st.Updated)
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(r.Outages) == 0 {
		_, err := fmt.Fprintln(w, "\nNo outages scheduled.")
		return err
	}
	fmt.Fprintln(w, "\nOutages:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range r.Outages {
		fmt.Fprintf(tw, "  %s\t%s–%s\t%s\n", o.Start.In(loc).Format(time.DateOnly),
			o.Start.In(loc).Format("15:04"), o.End.In(loc).Format("15:04"), o.Duration())
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func localTime(s *string, loc *time.Location) string {
	if s == nil {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return *s
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
