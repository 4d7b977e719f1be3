package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"v2deck/internal/api"
	"v2deck/internal/checker"
	"v2deck/internal/config"
	"v2deck/internal/geoip"
	"v2deck/internal/history"
	"v2deck/internal/install"
	"v2deck/internal/logger"
	"v2deck/internal/manager"
	"v2deck/internal/profile"
	"v2deck/internal/settings"
)

var cfgFile string
var verbose bool
var logFile string

var rootCmd = &cobra.Command{
	Use:   "v2deck",
	Short: "A VLESS tunnel supervisor with TUN and system-proxy modes",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(verbose, logFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
}

// newAPI assembles the full component graph behind the control surface.
func newAPI() (*api.API, *config.Config) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Log.Fatalf("Error preparing directories: %v", err)
	}

	st := settings.NewStore(cfg.SettingsFile())
	if err := st.Load(); err != nil {
		logger.Log.Warnf("Failed to load settings, using defaults: %v", err)
	}

	geoip.Init(cfg.Checker.GeoIPASNPath, cfg.Checker.GeoIPCountryPath)

	recorder, err := history.Open(cfg.HistoryDB())
	if err != nil {
		logger.Log.Warnf("Connection history disabled: %v", err)
		recorder = nil
	}

	installer := install.New(cfg)
	installer.EnsureExecutable()

	mgr := manager.New(cfg, st, recorder)
	a := api.New(cfg, st,
		profile.NewStore(cfg.ProfileDir()),
		mgr,
		checker.New(cfg.Checker),
		installer,
		recorder,
	)
	return a, cfg
}

// unwrap exits with the envelope's error unless the call succeeded.
func unwrap(res api.Result) any {
	if !res.Success {
		logger.Log.Fatalf("%s", res.Error)
	}
	return res.Data
}

func printJSON(v any) {
	if v == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Log.Fatalf("encode output: %v", err)
	}
	fmt.Println(string(data))
}
