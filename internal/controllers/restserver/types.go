package restserver

import (
	"time"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
)

// ManifestEntry is one output time of the manifest and its mesh files.
type ManifestEntry struct {
	Time  float64  `json:"time"`
	Files []string `json:"files"`
}

// RunStats is the response of /stats.
type RunStats struct {
	RunID     string         `json:"run_id"`
	Started   time.Time      `json:"started"`
	InputDir  string         `json:"input_dir"`
	OutputDir string         `json:"output_dir"`
	Records   []stats.Record `json:"records"`
}
