package main

import (
	"github.com/spf13/cobra"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/app"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the manifest, meshes and statistics over HTTP",
	Long: `Serve the results of a conversion:

  GET /manifest        output times and their mesh files
  GET /stats           statistics of the latest run (needs --sqlite)
  GET /stats/{step}    statistics of one snapshot
  GET /vtk/{file}      a .vtr or .pvd file from the output directory

Append ?format=msgpack for MessagePack instead of JSON.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("output", "", "Directory holding the .vtr files and the .pvd collection")
	f.String("sqlite", "", "SQLite statistics database written by convert")
	f.String("listen", "0.0.0.0", "Listen address")
	f.Int("port", config.DefaultRESTPort, "Listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	return app.New(cfg, log.GetSugaredLogger()).Serve(cmd.Context())
}
