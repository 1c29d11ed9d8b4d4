// Package crawl implements the crawl command for fetching SVT news articles
// into the record store.
package crawl

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/spraakbanken/svt-crawler/cmd/common"
	"github.com/spraakbanken/svt-crawler/internal/crawler"
	"github.com/spraakbanken/svt-crawler/internal/retry"
	"github.com/spraakbanken/svt-crawler/internal/svt"
	"github.com/spraakbanken/svt-crawler/internal/topics"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	var (
		stopDate    string
		retryFailed bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl SVT news topics for new articles",
		Long: `This command walks every configured topic listing newest-first, fetches
articles the store does not have yet, and stops a topic once it runs
into a long enough streak of already-stored articles.

With --retry-failed the listings are not walked at all; only the
persisted list of previously failed article fetches is retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			c, err := buildCrawler(deps, stopDate)
			if err != nil {
				return err
			}

			if retryFailed {
				report, runErr := c.RetryFailed(cmd.Context())
				if runErr != nil {
					return runErr
				}
				fmt.Printf("retried failed fetches: %d recovered, %d still failing\n",
					report.New, len(report.Failed))
				return nil
			}

			list, err := topics.Load(deps.Config.Crawler.TopicsFile)
			if err != nil {
				return fmt.Errorf("failed to load topics: %w", err)
			}

			report, runErr := c.Run(cmd.Context(), list)
			if runErr != nil {
				return runErr
			}

			renderReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&stopDate, "stop-date", "",
		"stop each topic at the first article published before this date (YYYY-MM-DD); disables the duplicate-run stop")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false,
		"only retry article fetches that failed in earlier runs")

	return cmd
}

// buildCrawler wires the store, API client, and crawl loop together.
func buildCrawler(deps *cmdcommon.CommandDeps, stopDate string) (*crawler.Crawler, error) {
	cfg := deps.Config

	var stop *time.Time
	if stopDate != "" {
		parsed, err := time.Parse("2006-01-02", stopDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --stop-date %q: %w", stopDate, err)
		}
		stop = &parsed
	}

	client := svt.NewClient(svt.Options{
		BaseURL:   cfg.API.BaseURL,
		PageLimit: cfg.API.PageLimit,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
	})

	return crawler.New(crawler.Options{
		Store:   deps.OpenStore(),
		Fetcher: client,
		Pages:   client,
		NewWalker: func(topicPath string) crawler.Walker {
			return svt.NewWalker(client, topicPath)
		},
		Logger:        deps.Logger,
		StopThreshold: cfg.Crawler.StopThreshold,
		FlushEvery:    cfg.Crawler.FlushEvery,
		RequestDelay:  cfg.Crawler.RequestDelay,
		Retry: retry.Config{
			MaxAttempts:  cfg.Crawler.Retry.MaxAttempts,
			InitialDelay: cfg.Crawler.Retry.InitialWait,
			MaxDelay:     cfg.Crawler.Retry.MaxWait,
		},
		StopDate: stop,
	})
}

// renderReport prints the per-topic crawl outcome as a table.
func renderReport(report *crawler.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Topic", "Status", "New", "Seen", "Gaps"})
	for _, res := range report.Topics {
		t.AppendRow(table.Row{
			res.Topic.Display(),
			string(res.Status),
			res.New,
			res.Seen,
			res.Gaps,
		})
	}
	t.AppendFooter(table.Row{"total", "", report.New, report.Seen, report.Gaps})
	t.Render()

	if len(report.Failed) > 0 {
		fmt.Printf("%d fetches failed; re-run with --retry-failed to retry them\n",
			len(report.Failed))
	}
}
