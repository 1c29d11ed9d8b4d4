// Package summary implements the summary command that reports stored
// article counts per topic and year.
package summary

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/spraakbanken/svt-crawler/cmd/common"
	"github.com/spraakbanken/svt-crawler/internal/summary"
)

// Command returns the summary command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show stored article counts per topic and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			summarizer, err := summary.New(summary.Options{Store: deps.OpenStore()})
			if err != nil {
				return err
			}

			report, err := summarizer.Build()
			if err != nil {
				return err
			}

			if report.Total == 0 {
				fmt.Println("the store is empty")
				return nil
			}

			renderSection("National news", report.National, report.Years)
			renderSection("Local news", report.Local, report.Years)
			renderTotals(report)
			return nil
		},
	}
}

// renderSection prints one group of topics with a column per year.
func renderSection(title string, counts []summary.TopicCount, years []string) {
	if len(counts) == 0 {
		return
	}

	fmt.Println(title)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	header := table.Row{"Topic"}
	for _, year := range years {
		header = append(header, year)
	}
	header = append(header, "Total")
	t.AppendHeader(header)

	for _, tc := range counts {
		row := table.Row{tc.Display}
		for _, year := range years {
			row = append(row, tc.Years[year])
		}
		row = append(row, tc.Total)
		t.AppendRow(row)
	}

	t.Render()
	fmt.Println()
}

// renderTotals prints the store-wide totals.
func renderTotals(report *summary.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	row := table.Row{"All topics"}
	header := table.Row{""}
	for _, year := range report.Years {
		header = append(header, year)
		row = append(row, report.YearTotals[year])
	}
	header = append(header, "Total")
	row = append(row, report.Total)

	t.AppendHeader(header)
	t.AppendRow(row)
	t.Render()

	if report.Failed > 0 {
		fmt.Printf("%d article fetches are pending retry\n", report.Failed)
	}
}
