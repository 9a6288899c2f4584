package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/Veraticus/ecomap/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ecotope and map configurations",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configListCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [NAME]",
		Short: "Print a merged configuration as TOML",
		Long: `Print the ecotope thresholds (or, with --map, the map variable names)
after merging NAME onto the defaults. NAME is a built-in name or a file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapCfg, _ := cmd.Flags().GetBool("map")
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			var (
				v   any
				err error
			)
			if mapCfg {
				v, err = config.LoadMapConfig(config.Named(name))
			} else {
				v, err = config.LoadEcotopeConfig(config.Named(name))
			}
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(v)
		},
	}
	cmd.Flags().Bool("map", false, "Show a map configuration")
	return cmd
}

func configListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in configurations",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.BuiltinNames(), "\n"))
		},
	}
}
