package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ecomap/internal/classify"
	"github.com/Veraticus/ecomap/internal/cli"
	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/engine"
	"github.com/Veraticus/ecomap/internal/export"
	"github.com/Veraticus/ecomap/internal/hydro"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PARTITION...",
		Short: "Map ecotopes of model partitions",
		Long: `Reduce the hydrodynamic time series of every partition and classify
each grid point into an ecotope. Partitions are snapshot files; a bare name is
looked up in the data directory with the .mp extension.

Examples:
  ecomap run map_0000 map_0001 --workers 2 --export --store
  ecomap run map_0000 --substratum hard --mlws -1.2 --mhwn 0.9
  ecomap run map_*.mp --eco-config zes1 --export=maps/ecotopes.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMap,
	}

	// Flags
	cmd.Flags().IntP("workers", "w", 1, "Partitions mapped in parallel")
	cmd.Flags().StringP("substratum", "s", "", "Substratum-1 of the whole area (soft, hard)")
	cmd.Flags().Float64("mlws", 0, "Mean low water spring [m]")
	cmd.Flags().Float64("mhwn", 0, "Mean high water neap [m]")
	cmd.Flags().Float64("lat", 0, "Lowest astronomical tide [m] (default: mlws)")
	cmd.Flags().String("eco-config", "", "Ecotope thresholds: built-in name or file")
	cmd.Flags().String("map-config", "", "Map variable names: built-in name or file")
	cmd.Flags().StringP("data-dir", "d", ".", "Directory of the partition snapshots")
	cmd.Flags().String("export", "", "Export labels to this CSV file")
	cmd.Flags().Lookup("export").NoOptDefVal = export.DefaultFileName
	cmd.Flags().String("export-dir", "", "Directory for the export and run logs")
	cmd.Flags().Bool("export-log", false, "Write a log file per partition")
	cmd.Flags().Bool("store", false, "Store the run and its labels in the database")
	cmd.Flags().Float64("friction", 0, "Friction coefficient for grain size estimates")
	cmd.Flags().Float64("shields", 0, "Critical Shields parameter")
	cmd.Flags().Float64("chezy", 0, "Chezy coefficient [m^0.5/s]")
	cmd.Flags().Float64("relative-density", 0, "Relative density of the sediment")
	cmd.Flags().Bool("json", false, "Print the run summary as JSON")
	cmd.Flags().BoolP("quiet", "q", false, "Hide the progress bar")

	// Bind to viper (errors are rare and can be ignored in practice)
	_ = viper.BindPFlag("run.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("run.substratum", cmd.Flags().Lookup("substratum"))
	_ = viper.BindPFlag("tide.mlws", cmd.Flags().Lookup("mlws"))
	_ = viper.BindPFlag("tide.mhwn", cmd.Flags().Lookup("mhwn"))
	_ = viper.BindPFlag("tide.lat", cmd.Flags().Lookup("lat"))
	_ = viper.BindPFlag("ecotope.config", cmd.Flags().Lookup("eco-config"))
	_ = viper.BindPFlag("map.config", cmd.Flags().Lookup("map-config"))
	_ = viper.BindPFlag("data.dir", cmd.Flags().Lookup("data-dir"))
	_ = viper.BindPFlag("export.file", cmd.Flags().Lookup("export"))
	_ = viper.BindPFlag("export.dir", cmd.Flags().Lookup("export-dir"))
	_ = viper.BindPFlag("export.log", cmd.Flags().Lookup("export-log"))
	_ = viper.BindPFlag("grain.friction", cmd.Flags().Lookup("friction"))
	_ = viper.BindPFlag("grain.shields", cmd.Flags().Lookup("shields"))
	_ = viper.BindPFlag("grain.chezy", cmd.Flags().Lookup("chezy"))
	_ = viper.BindPFlag("grain.relative_density", cmd.Flags().Lookup("relative-density"))

	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	store, _ := cmd.Flags().GetBool("store")

	ecoCfg, err := config.LoadEcotopeConfig(config.Named(viper.GetString("ecotope.config")))
	if err != nil {
		return common.NewUserError("Invalid ecotope configuration", err)
	}
	mapCfg, err := config.LoadMapConfig(config.Named(viper.GetString("map.config")))
	if err != nil {
		return common.NewUserError("Invalid map configuration", err)
	}

	opts, err := mapOptions()
	if err != nil {
		return err
	}

	source := hydro.NewSnapshotSource(viper.GetString("data.dir"), mapCfg)
	mapper, err := engine.NewMapper(source, ecoCfg, opts)
	if err != nil {
		if errors.Is(err, classify.ErrInvalidSubstratum) || errors.Is(err, classify.ErrTidePairing) || common.IsConfigError(err) {
			return common.NewUserError("Invalid run options", err)
		}
		return err
	}

	if !quiet && len(args) > 1 {
		mapper.WithProgress(cli.NewProgressBar(os.Stderr))
	}

	if store {
		db, dbErr := openStorage(ctx)
		if dbErr != nil {
			return dbErr
		}
		defer closeStorage(db)
		mapper.WithRecorder(db)
	}

	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := interrupts.HandleInterrupts(ctx, opts.ExportPath)
	defer stop()

	result, err := mapper.MapEcotopes(ctx, args...)
	if err != nil {
		return runFailure(err, interrupts.WasInterrupted())
	}

	if asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), result.Summary.GetDisplay())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatRunSummary(&result.Summary, 10))
	if store {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Stored as run " + result.Run.ID))
	}
	return nil
}

// runFailure reports an interrupted run as a user-facing failure so the
// process still exits non-zero.
func runFailure(err error, interrupted bool) error {
	if interrupted {
		return common.NewUserError("Mapping interrupted", err)
	}
	return err
}

// mapOptions assembles the engine options from flags, environment and config file.
func mapOptions() (engine.Options, error) {
	opts := engine.DefaultOptions()
	opts.Workers = viper.GetInt("run.workers")
	opts.Substratum1 = viper.GetString("run.substratum")
	opts.MLWS = optionalFloat("tide.mlws")
	opts.MHWN = optionalFloat("tide.mhwn")
	opts.LAT = optionalFloat("tide.lat")

	if f := optionalFloat("grain.friction"); f != nil {
		opts.Grain.Friction = f
	}
	if v := optionalFloat("grain.shields"); v != nil {
		opts.Grain.Shields = *v
	}
	if v := optionalFloat("grain.chezy"); v != nil {
		opts.Grain.Chezy = *v
	}
	if v := optionalFloat("grain.relative_density"); v != nil {
		opts.Grain.RelativeDensity = *v
	}

	dir := viper.GetString("export.dir")
	if name := viper.GetString("export.file"); name != "" {
		opts.ExportPath = export.ResolvePath(dir, name)
	}
	if viper.GetBool("export.log") {
		opts.LogDir = dir
		if opts.LogDir == "" {
			opts.LogDir = "."
		}
	}

	if name := viper.GetString("logging.level"); name != "" {
		level, err := common.ParseLevel(name)
		if err != nil {
			return opts, err
		}
		opts.LogLevel = level
	}

	slog.Debug("Run options",
		"workers", opts.Workers,
		"substratum", opts.Substratum1,
		"export", opts.ExportPath,
		"log_dir", opts.LogDir)
	return opts, nil
}
