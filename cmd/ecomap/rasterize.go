package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ecomap/internal/cli"
	"github.com/Veraticus/ecomap/internal/export"
	"github.com/Veraticus/ecomap/internal/model"
	"github.com/Veraticus/ecomap/internal/polygon"
)

func rasterizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rasterize POLYGONS GRID",
		Short: "Rasterise ground-truth polygons onto a grid",
		Long: `Label the points of GRID (an x,y,label CSV such as an ecomap export)
with the ecotope of the GeoJSON polygon they fall in. Points outside every
polygon are left out.`,
		Args: cobra.ExactArgs(2),
		RunE: runRasterize,
	}

	cmd.Flags().StringP("output", "o", "ground_truth.csv", "Output CSV file")
	cmd.Flags().String("property", polygon.DefaultLabelProperty, "Feature property holding the label")
	cmd.Flags().IntP("workers", "w", 1, "Features rasterised in parallel")
	cmd.Flags().Bool("quick", false, "Skip features whose bounds contain no grid point")

	return cmd
}

func runRasterize(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	property, _ := cmd.Flags().GetString("property")
	workers, _ := cmd.Flags().GetInt("workers")
	quick, _ := cmd.Flags().GetBool("quick")

	fc, err := polygon.ReadFile(args[0])
	if err != nil {
		return err
	}
	gridLabels, err := export.ReadFile(args[1])
	if err != nil {
		return err
	}
	grid := make([]model.Point, len(gridLabels))
	for i, l := range gridLabels {
		grid[i] = l.Point
	}

	labels, err := polygon.Rasterize(cmd.Context(), fc, grid, polygon.Options{
		LabelProperty: property,
		Workers:       workers,
		QuickCheck:    quick,
	})
	if err != nil {
		return err
	}

	path := export.ResolvePath("", output)
	if err := export.WriteFile(path, labels); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%d of %d points labelled, written to %s", len(labels), len(grid), path)))
	return nil
}
