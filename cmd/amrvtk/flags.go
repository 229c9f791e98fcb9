package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

// applyFlags copies every flag set on the command line into cfg. Flags
// left at their default never override the file.
func applyFlags(cmd *cobra.Command, cfg *config.ConfigData) error {
	var err error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		flags := cmd.Flags()
		switch f.Name {
		case "input":
			cfg.InputDir, err = flags.GetString(f.Name)
		case "output":
			cfg.OutputDir, err = flags.GetString(f.Name)
		case "stats":
			cfg.StatsDir, err = flags.GetString(f.Name)
		case "sqlite":
			var path string
			path, err = flags.GetString(f.Name)
			cfg.Storage.SQLite = &config.SQLiteData{Path: path}
		case "dry-tolerance":
			cfg.Conversion.DryTolerance, err = flags.GetFloat64(f.Name)
		case "time-increment":
			cfg.Conversion.TimeIncrement, err = flags.GetFloat64(f.Name)
		case "sea-level":
			cfg.Conversion.SeaLevel, err = flags.GetFloat64(f.Name)
		case "resample":
			cfg.Conversion.Resample, err = flags.GetString(f.Name)
		case "encoding":
			cfg.Conversion.Encoding, err = flags.GetString(f.Name)
		case "arrays":
			cfg.Conversion.Arrays, err = flags.GetStringSlice(f.Name)
		case "workers":
			cfg.Conversion.Workers, err = flags.GetInt(f.Name)
		case "listen":
			rest := restConfig(cfg)
			rest.ListenAddr, err = flags.GetString(f.Name)
		case "port":
			rest := restConfig(cfg)
			rest.Port, err = flags.GetInt(f.Name)
		}
	})
	return err
}

func restConfig(cfg *config.ConfigData) *config.RESTServerData {
	if cfg.REST == nil {
		cfg.REST = &config.RESTServerData{Port: config.DefaultRESTPort}
	}
	return cfg.REST
}
