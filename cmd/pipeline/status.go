package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"forum-letter/cmd/internal/app"
	"forum-letter/models"
	"forum-letter/repositories"
)

// statusReader is the read side of the store used by `pipeline status`.
type statusReader interface {
	LatestEdition(ctx context.Context) (*models.Edition, error)
	LatestIngestRun(ctx context.Context) (*models.IngestRun, error)
	PendingCount(ctx context.Context) (int64, error)
	CategoryCounts(ctx context.Context) (map[models.Category]int64, error)
	ListSources(ctx context.Context) ([]models.Source, error)
	RecentAICalls(ctx context.Context, limit int64) ([]models.AILog, error)
}

const recentCalls = 5

type statusReport struct {
	LatestEdition *models.Edition           `json:"latest_edition,omitempty"`
	LatestIngest  *models.IngestRun         `json:"latest_ingest,omitempty"`
	Pending       int64                     `json:"pending"`
	Categories    map[models.Category]int64 `json:"categories"`
	Sources       []models.Source           `json:"sources"`
	RecentCalls   []models.AILog            `json:"recent_calls"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backlog, last ingest and last edition",
		Long: `Display what the store currently holds.

Examples:
  pipeline status          # human readable summary
  pipeline status --json   # output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				st, err := collectStatus(ctx, a.Store)
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(st)
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func collectStatus(ctx context.Context, r statusReader) (*statusReport, error) {
	st := &statusReport{}
	var err error

	if st.LatestEdition, err = r.LatestEdition(ctx); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("latest edition: %w", err)
	}
	if st.LatestIngest, err = r.LatestIngestRun(ctx); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("latest ingest run: %w", err)
	}
	if st.Pending, err = r.PendingCount(ctx); err != nil {
		return nil, fmt.Errorf("pending count: %w", err)
	}
	if st.Categories, err = r.CategoryCounts(ctx); err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	if st.Sources, err = r.ListSources(ctx); err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	if st.RecentCalls, err = r.RecentAICalls(ctx, recentCalls); err != nil {
		return nil, fmt.Errorf("recent llm calls: %w", err)
	}
	return st, nil
}

func printStatus(w io.Writer, st *statusReport) {
	if st.LatestEdition != nil {
		printEdition(w, st.LatestEdition)
	} else {
		fmt.Fprintln(w, "edition: none yet")
	}
	if run := st.LatestIngest; run != nil {
		fmt.Fprintf(w, "last ingest %s (%s): %d fetched, %d new, %d errors\n",
			run.StartedAt.Format(time.RFC3339), run.Status, run.TotalItems, run.NewItems, len(run.Errors))
	} else {
		fmt.Fprintln(w, "last ingest: never")
	}

	fmt.Fprintf(w, "pending: %d\n", st.Pending)
	cats := make([]models.Category, 0, len(st.Categories))
	for c := range st.Categories {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	for _, c := range cats {
		fmt.Fprintf(w, "  %-20s %d\n", c, st.Categories[c])
	}

	for _, s := range st.Sources {
		last := "never"
		if s.LastRunAt != nil {
			last = s.LastRunAt.Format(time.RFC3339)
		}
		line := fmt.Sprintf("source %s (%s) last run %s", s.Name, s.Kind, last)
		if s.LastError != "" {
			line += ": " + s.LastError
		}
		fmt.Fprintln(w, line)
	}

	for _, c := range st.RecentCalls {
		line := fmt.Sprintf("llm %s %s %s %dms", c.RequestedAt.Format(time.RFC3339), c.Stage, c.ModelName, c.DurationMs)
		if c.ErrorMessage != nil {
			line += " error: " + *c.ErrorMessage
		}
		fmt.Fprintln(w, line)
	}
}
