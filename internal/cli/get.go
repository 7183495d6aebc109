package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-client/internal/app"
)

var getJSON bool

var getCmd = &cobra.Command{
	Use:   "get <location>",
	Short: "Show current weather and forecast for a location",
	Example: `  weather-client get London
  weather-client get "new york"
  weather-client get --json St. Louis`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		return resolveAndPrint(cmd, deps, strings.Join(args, " "))
	},
}

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show weather for the most recently searched location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		name := deps.Prefs.LastLocation()
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved location yet. Try: weather-client get <location>")
			return nil
		}
		return resolveAndPrint(cmd, deps, name)
	},
}

func resolveAndPrint(cmd *cobra.Command, deps *app.Deps, raw string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	snap, err := deps.Service.Resolve(ctx, raw)
	if err != nil {
		return err
	}
	deps.Prefs.SaveLastLocation(snap.Location.Name)

	if getJSON {
		return printJSON(cmd.OutOrStdout(), snap)
	}
	printSnapshot(cmd.OutOrStdout(), snap)
	return nil
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "print the snapshot as JSON")
	lastCmd.Flags().BoolVar(&getJSON, "json", false, "print the snapshot as JSON")
	rootCmd.AddCommand(getCmd, lastCmd)
}
