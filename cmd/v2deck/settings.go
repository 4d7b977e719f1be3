package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"v2deck/internal/logger"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the current settings",
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		printJSON(unwrap(a.GetSettings()))
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value [key=value ...]",
	Short: "Update settings and persist them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		patch := make(map[string]any, len(args))
		for _, arg := range args {
			key, value, found := strings.Cut(arg, "=")
			if !found {
				logger.Init(verbose, logFile)
				logger.Log.Fatalf("Expected key=value, got %q", arg)
			}
			patch[key] = coerce(value)
		}

		a, _ := newAPI()
		printJSON(unwrap(a.SetSettings(patch)))
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		printJSON(unwrap(a.ResetSettings()))
	},
}

// coerce maps CLI strings onto the JSON types the settings patch expects.
func coerce(value string) any {
	if value == "true" || value == "false" {
		return value == "true"
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}
