package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"vgp_platform/internal/domain/model"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, driver, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		color.Green("Schema is up to date on %s.", driver)
		return nil
	},
}

var loadQuestionsCmd = &cobra.Command{
	Use:   "load-questions [file.json]",
	Short: "Validate and import a question bank document",
	Long: "Validates a question bank document against the bank schema and upserts its tracks and questions.\n" +
		"Without a file the bundled sample bank is loaded into an empty database.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		svc := newServices(db)

		if len(args) == 0 {
			if err := svc.Bank.SeedIfEmpty(cmd.Context()); err != nil {
				return err
			}
			color.Green("Sample bank loaded (skipped if tracks already existed).")
			return nil
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		summary, err := svc.Bank.ImportRaw(cmd.Context(), raw)
		if err != nil {
			return err
		}
		color.Green("Imported %d tracks and %d questions from %s.", summary.Tracks, summary.Questions, args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show question counts per track and difficulty band",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := newServices(db).Bank.Stats(cmd.Context())
		if err != nil {
			return err
		}
		tracks := make([]string, 0, len(stats.Matrix))
		for id := range stats.Matrix {
			tracks = append(tracks, id)
		}
		sort.Strings(tracks)

		color.Yellow("\nQuestion Bank Coverage")
		table := tablewriter.NewWriter(os.Stdout)
		header := []string{"Track"}
		for _, b := range model.Bands {
			header = append(header, string(b))
		}
		table.SetHeader(append(header, "Total"))
		for _, id := range tracks {
			row := []string{id}
			for _, b := range model.Bands {
				row = append(row, countCell(stats.Matrix[id][b]))
			}
			table.Append(append(row, strconv.Itoa(stats.ByTrack[id])))
		}
		footer := []string{"All"}
		for _, b := range model.Bands {
			footer = append(footer, strconv.Itoa(stats.ByBand[b]))
		}
		table.SetFooter(append(footer, strconv.Itoa(stats.Total)))
		table.Render()
		return nil
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Print the most recent trace events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		db, _, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		events, err := newServices(db).Trace.Latest(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			color.Yellow("No trace events recorded yet.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Time", "Event", "Actor", "Payload"})
		table.SetAutoWrapText(false)
		for _, e := range events {
			table.Append([]string{
				e.Timestamp.Format(time.RFC3339),
				e.EventType,
				e.ActorID,
				formatPayload(e.Payload),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	traceCmd.Flags().Int("limit", 50, "Number of events to show (max 500)")
}

// countCell highlights empty bands; the selector can only widen around them.
func countCell(n int) string {
	if n == 0 {
		return color.RedString("0")
	}
	return strconv.Itoa(n)
}

func formatPayload(p map[string]string) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, " ")
}
