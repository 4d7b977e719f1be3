package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logLines int
var historyLimit int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the tail of the engine error log",
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		fmt.Println(unwrap(a.GetLogs(logLines)))
	},
}

var ipCmd = &cobra.Command{
	Use:   "ip",
	Short: "Show the current public IP (via the tunnel when connected)",
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		printJSON(unwrap(a.GetPublicIP()))
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent connection sessions",
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		printJSON(unwrap(a.History(historyLimit)))
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of lines to show")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of sessions to show")
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(ipCmd)
	rootCmd.AddCommand(historyCmd)
}
