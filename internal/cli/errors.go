package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	errorsClear bool
	errorsJSON  bool
)

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show recently recorded fetch errors",
	Long: `Show the most recent classified fetch errors, newest first.

Up to 20 records are kept in the local database.`,
	Example: `  weather-client errors
  weather-client errors --clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		if errorsClear {
			if err := deps.Errors.Clear(); err != nil {
				return fmt.Errorf("clearing error log: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Error log cleared.")
			return nil
		}

		records, err := deps.Errors.Records()
		if err != nil {
			return fmt.Errorf("reading error log: %w", err)
		}
		if errorsJSON {
			return printJSON(cmd.OutOrStdout(), records)
		}
		printRecords(cmd.OutOrStdout(), records)
		return nil
	},
}

var debugCmd = &cobra.Command{
	Use:       "debug on|off|status",
	Short:     "Persistently enable or disable debug logging",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		out := cmd.OutOrStdout()
		switch args[0] {
		case "on", "off":
			if err := deps.Prefs.SetDebugLogging(args[0] == "on"); err != nil {
				return fmt.Errorf("saving debug setting: %w", err)
			}
			fmt.Fprintf(out, "Debug logging %s.\n", args[0])
		default:
			state := "off"
			if deps.Prefs.DebugLogging() {
				state = "on"
			}
			fmt.Fprintf(out, "Debug logging is %s.\n", state)
		}
		return nil
	},
}

func init() {
	errorsCmd.Flags().BoolVar(&errorsClear, "clear", false, "delete all recorded errors")
	errorsCmd.Flags().BoolVar(&errorsJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(errorsCmd, debugCmd)
}
