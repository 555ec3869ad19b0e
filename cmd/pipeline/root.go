package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"forum-letter/cmd/internal/app"
	"forum-letter/logger"
	"forum-letter/models"
	"forum-letter/pipeline"
)

// appFactory builds the application; replaced in tests.
var appFactory = func(ctx context.Context) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "pipeline",
		Short: "Run forum-letter pipeline stages",
		Long: `pipeline runs the newsletter stages against the configured store.

Examples:
  pipeline ingest                 # fetch new posts from every enabled source
  pipeline analyze                # categorize pending posts
  pipeline synthesize --cadence weekly
  pipeline run -v                 # all stages with debug logging
  pipeline status                 # backlog, last ingest and last edition`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.Init("debug")
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newIngestCmd(), newAnalyzeCmd(), newSynthesizeCmd(), newRunCmd(), newStatusCmd())
	return root
}

func cadenceFlag(cmd *cobra.Command) (models.Cadence, error) {
	raw, _ := cmd.Flags().GetString("cadence")
	c, ok := models.ParseCadence(raw)
	if !ok {
		return "", fmt.Errorf("invalid --cadence %q (daily or weekly)", raw)
	}
	return c, nil
}

// withApp builds the app, runs fn and closes it. Verbose logging set by the
// root command survives config loading.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := appFactory(ctx)
	if err != nil {
		return err
	}
	if verbose {
		logger.Init("debug")
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch posts from every enabled source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				run, err := a.Ingester.Run(ctx)
				if err != nil {
					return err
				}
				printIngest(cmd.OutOrStdout(), run)
				return nil
			})
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Categorize and score pending posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Categorizer.CategorizePending(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "annotated %d posts\n", n)
				return nil
			})
		},
	}
}

func newSynthesizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Select posts and write one edition",
		RunE: func(cmd *cobra.Command, args []string) error {
			cadence, err := cadenceFlag(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				ed, err := a.Synthesizer.Synthesize(ctx, cadence)
				if err != nil {
					return err
				}
				printEdition(cmd.OutOrStdout(), ed)
				return nil
			})
		},
	}
	cmd.Flags().String("cadence", string(models.CadenceDaily), "daily or weekly")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest, analyze and synthesize in one go",
		RunE: func(cmd *cobra.Command, args []string) error {
			cadence, err := cadenceFlag(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Orchestrator.Run(ctx, cadence)
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().String("cadence", string(models.CadenceDaily), "daily or weekly")
	return cmd
}

func printIngest(w io.Writer, run *models.IngestRun) {
	fmt.Fprintf(w, "ingest: %d fetched, %d new, sources=%v\n", run.TotalItems, run.NewItems, run.SourcesScraped)
	for _, e := range run.Errors {
		fmt.Fprintf(w, "  error %s: %s\n", e.Source, e.Error)
	}
}

func printEdition(w io.Writer, ed *models.Edition) {
	fmt.Fprintf(w, "edition %s %q (%s, %d items)\n", ed.ID.Hex(), ed.Title, ed.Cadence, ed.ItemCount)
}

func printReport(w io.Writer, r *pipeline.Report) {
	if r.IngestRun != nil {
		printIngest(w, r.IngestRun)
	}
	if r.IngestErr != nil {
		fmt.Fprintf(w, "ingest failed: %v\n", r.IngestErr)
	}
	fmt.Fprintf(w, "annotated %d posts\n", r.Annotated)
	printEdition(w, r.Edition)
	fmt.Fprintf(w, "done in %s\n", r.Duration.Round(time.Millisecond))
}
