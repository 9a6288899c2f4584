package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ecomap/internal/cli"
	"github.com/Veraticus/ecomap/internal/export"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and manage stored mapping runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(db)

			runs, err := db.ListRuns(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatRuns(runs))
			return nil
		},
	}
	cmd.AddCommand(runsExportCmd())
	cmd.AddCommand(runsDeleteCmd())
	return cmd
}

func runsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write the labels of a stored run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output, _ := cmd.Flags().GetString("output")

			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(db)

			labels, err := db.GetRunLabels(ctx, args[0])
			if err != nil {
				return err
			}
			path := export.ResolvePath("", output)
			if err := export.WriteFile(path, labels); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%d labels written to %s", len(labels), path)))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", export.DefaultFileName, "Output CSV file")
	return cmd
}

func runsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(db)

			if err := db.DeleteRun(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run " + args[0]))
			return nil
		},
	}
}
