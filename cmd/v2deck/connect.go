package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"v2deck/internal/api"
	"v2deck/internal/logger"
	"v2deck/internal/profile"
)

var connectCmd = &cobra.Command{
	Use:   "connect <profile-name | vless-uri>",
	Short: "Connect to a saved profile (or directly to a descriptor) until interrupted",
	Long: `Establishes the tunnel for the given profile and keeps it up until the
process receives SIGINT or SIGTERM, at which point everything is torn down:
routes restored, virtual interface removed, engine stopped.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _ := newAPI()

		p := resolveProfile(a, args[0])
		unwrap(a.Connect(p))
		printJSON(unwrap(a.Status()))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Log.Info("shutting down")
		unwrap(a.Disconnect())
	},
}

// resolveProfile accepts either a raw descriptor or the name of a saved one.
func resolveProfile(a *api.API, arg string) *profile.Profile {
	if strings.HasPrefix(strings.ToLower(arg), "vless://") {
		p, err := profile.FromURI(arg)
		if err != nil {
			logger.Log.Fatalf("Invalid descriptor: %v", err)
		}
		return p
	}

	data := unwrap(a.LoadProfiles())
	profiles, _ := data.([]*profile.Profile)
	for _, p := range profiles {
		if p.Name == arg {
			return p
		}
	}
	logger.Log.Fatalf("No saved profile named %q", arg)
	return nil
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
