// Command amrvtk converts GeoClaw AMR output into VTK files for ParaView and
// serves the results.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "amrvtk",
	Short: "GeoClaw AMR output to VTK converter",
	Long: `amrvtk reads the fort.qNNNN / fort.tNNNN files of a GeoClaw run and writes
one VTK RectilinearGrid (.vtr) per AMR patch, a ParaView collection
(.pvd) ordering them in time, and a statistics report per snapshot.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "amrvtk %s\n", version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML configuration file (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Turn on debugging output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the file, then applies the flags the user set on cmd.
func loadConfig(cmd *cobra.Command) (*config.ConfigData, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogging(cfg *config.ConfigData) error {
	err := log.Init(log.Options{
		Debug:      cfg.Log.Debug,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
