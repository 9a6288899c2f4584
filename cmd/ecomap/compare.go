package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ecomap/internal/cli"
	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/compare"
	"github.com/Veraticus/ecomap/internal/export"
	"github.com/Veraticus/ecomap/internal/model"
	"github.com/Veraticus/ecomap/internal/polygon"
)

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [TRUTH] [PREDICTED]",
		Short: "Compare ecotope maps",
		Long: `Compare a predicted ecotope map against ground truth, point by point.

Both maps are x,y,label CSV files unless the ground truth comes from polygons
(--truth-polygons, rasterised onto the predicted grid) or the prediction from
a stored run (--run).

Examples:
  ecomap compare truth.csv ecotopes.csv
  ecomap compare truth.csv ecotopes.csv --level 4
  ecomap compare truth.csv ecotopes.csv --component --level 4
  ecomap compare --truth-polygons ecotopes.geojson --run 3f1c... --report`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompare,
	}

	cmd.Flags().String("truth-polygons", "", "Ground truth as GeoJSON polygons")
	cmd.Flags().String("run", "", "Stored run to use as prediction")
	cmd.Flags().IntP("level", "l", 0, "Prefix length, or component index with --component (default: full label)")
	cmd.Flags().BoolP("component", "c", false, "Compare a single component instead of a prefix")
	cmd.Flags().Bool("no-wildcard", false, "Treat x in the ground truth as a regular character")
	cmd.Flags().String("wildcard", model.Wildcard, "Wildcard character of the ground truth")
	cmd.Flags().Bool("report", false, "Compare at every level")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	polygons, _ := cmd.Flags().GetString("truth-polygons")
	runID, _ := cmd.Flags().GetString("run")
	noWildcard, _ := cmd.Flags().GetBool("no-wildcard")
	wildcard, _ := cmd.Flags().GetString("wildcard")
	specific, _ := cmd.Flags().GetBool("component")
	report, _ := cmd.Flags().GetBool("report")
	asJSON, _ := cmd.Flags().GetBool("json")

	want := 2
	if polygons != "" {
		want--
	}
	if runID != "" {
		want--
	}
	if len(args) != want {
		return common.NewUserError(
			fmt.Sprintf("compare expects %d CSV file(s) with these flags, got %d", want, len(args)), nil)
	}

	var predicted model.Labels
	if runID != "" {
		db, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer closeStorage(db)
		if predicted, err = db.GetRunLabels(ctx, runID); err != nil {
			return err
		}
	} else {
		var err error
		if predicted, err = export.ReadFile(args[len(args)-1]); err != nil {
			return err
		}
	}

	var truth model.Labels
	if polygons != "" {
		fc, err := polygon.ReadFile(polygons)
		if err != nil {
			return err
		}
		grid := make([]model.Point, len(predicted))
		for i, l := range predicted {
			grid[i] = l.Point
		}
		opts := polygon.DefaultOptions()
		opts.QuickCheck = true
		if truth, err = polygon.Rasterize(ctx, fc, grid, opts); err != nil {
			return err
		}
	} else {
		var err error
		if truth, err = export.ReadFile(args[0]); err != nil {
			return err
		}
	}

	c := compare.New(truth.Map(), predicted.Map(), compare.WithWildcard(wildcard))
	opts := compare.Options{DisableWildcard: noWildcard, SpecificComponent: specific}

	if report {
		reports, err := c.Report(nil, opts)
		if err != nil {
			return common.NewUserError("Invalid comparison", err)
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), reports)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatComparison(reports, specific))
		return nil
	}

	var level *int
	if cmd.Flags().Changed("level") {
		l, _ := cmd.Flags().GetInt("level")
		level = &l
	}
	result, err := c.Compare(level, opts)
	if err != nil {
		return common.NewUserError("Invalid comparison", err)
	}

	summary := compare.Summarize(result)
	if asJSON {
		return printJSON(cmd.OutOrStdout(), summary)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%d points compared: %d match, %d differ (%.1f%%)",
		len(result), summary.Matches, summary.Mismatches, summary.Accuracy*100)))
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
