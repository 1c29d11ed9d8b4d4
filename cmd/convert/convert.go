// Package convert implements the convert command for turning the record
// store into per-year XML corpus files.
package convert

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdcommon "github.com/spraakbanken/svt-crawler/cmd/common"
	"github.com/spraakbanken/svt-crawler/internal/convert"
)

// Command returns the convert command for use in the root command.
func Command() *cobra.Command {
	var (
		override bool
		year     string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert stored articles into per-year XML corpus files",
		Long: `This command groups the stored articles by publication year and writes
one corpus document per year, plus a corpus configuration file next to
it. Years whose output already exists are skipped unless --override is
given; with --override the document is regenerated from the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			converter, err := convert.New(convert.Options{
				Store:        deps.OpenStore(),
				Logger:       deps.Logger,
				OutputDir:    deps.Config.Convert.OutputDir,
				CorpusPrefix: deps.Config.Convert.CorpusPrefix,
			})
			if err != nil {
				return err
			}

			result, err := converter.Convert(override, year)
			if err != nil {
				return err
			}

			fmt.Printf("wrote %d corpus documents (%d articles), skipped %d existing\n",
				len(result.Written), result.Articles, len(result.Skipped))
			if len(result.Malformed) > 0 {
				fmt.Printf("skipped %d malformed records\n", len(result.Malformed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&override, "override", false,
		"regenerate corpus files that already exist")
	cmd.Flags().StringVar(&year, "year", "",
		`only convert one year bucket, e.g. "2015" or "nodate"`)

	return cmd
}
