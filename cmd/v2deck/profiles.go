package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"v2deck/internal/logger"
	"v2deck/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List saved profiles",
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		data := unwrap(a.LoadProfiles())
		profiles, _ := data.([]*profile.Profile)

		if len(profiles) == 0 {
			fmt.Println("(no saved profiles)")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tENDPOINT\tTRANSPORT\tSECURITY")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s:%d\t%s\t%s\n", p.Name, p.Address, p.Port, p.Network, p.Security)
		}
		w.Flush()
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		unwrap(a.DeleteProfile(args[0]))
		logger.Log.Infof("deleted profile %q", args[0])
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved profile as JSON and its descriptor form",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		data := unwrap(a.LoadProfiles())
		profiles, _ := data.([]*profile.Profile)
		for _, p := range profiles {
			if p.Name == args[0] {
				printJSON(p)
				fmt.Println(p.ToURI())
				return
			}
		}
		logger.Log.Fatalf("No saved profile named %q", args[0])
	},
}

var importCmd = &cobra.Command{
	Use:   "import <vless-uri>",
	Short: "Parse a descriptor and save it as a profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()
		printJSON(unwrap(a.ImportFromURI(args[0])))
	},
}

func init() {
	profilesCmd.AddCommand(profilesDeleteCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(importCmd)
}
