package main

import (
	"github.com/spf13/cobra"
)

var installCheck bool
var installRemove bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download and install the engine binaries (xray, tun2socks)",
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()

		switch {
		case installCheck:
			printJSON(unwrap(a.CheckBinaries()))
		case installRemove:
			unwrap(a.UninstallBinaries())
			printJSON(unwrap(a.CheckBinaries()))
		default:
			printJSON(unwrap(a.InstallBinaries()))
		}
	},
}

func init() {
	installCmd.Flags().BoolVar(&installCheck, "check", false, "Only report install state")
	installCmd.Flags().BoolVar(&installRemove, "remove", false, "Remove installed binaries")
	rootCmd.AddCommand(installCmd)
}
