package restserver

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage/sqlite"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/vtk"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetManifest returns the manifest as time-ordered entries.
func (h *Handlers) GetManifest(w http.ResponseWriter, req *http.Request) {
	path := filepath.Join(h.controller.OutputDir, h.controller.ManifestName)
	c, err := vtk.ReadCollection(path)
	if errors.Is(err, fs.ErrNotExist) {
		h.formatter.WriteError(w, req, http.StatusNotFound, "manifest not found")
		return
	}
	if err != nil {
		log.Errorw("could not read manifest", "path", path, "error", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "could not read manifest")
		return
	}

	times, files := c.Group()
	entries := make([]ManifestEntry, 0, len(times))
	for _, t := range times {
		entries = append(entries, ManifestEntry{Time: t, Files: files[t]})
	}
	if err := h.formatter.WriteResponse(w, req, entries, nil); err != nil {
		log.Errorw("could not write response", "error", err)
	}
}

// GetStats returns every record of the most recent run.
func (h *Handlers) GetStats(w http.ResponseWriter, req *http.Request) {
	if h.controller.Stats == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "statistics store not configured")
		return
	}

	run, err := h.controller.Stats.LatestRun(req.Context())
	if err != nil {
		h.writeStoreError(w, req, "no run stored", err)
		return
	}
	records, err := h.controller.Stats.ListStats(req.Context(), run.ID)
	if err != nil {
		h.writeStoreError(w, req, "no run stored", err)
		return
	}

	resp := RunStats{
		RunID:     run.ID,
		Started:   run.Started,
		InputDir:  run.InputDir,
		OutputDir: run.OutputDir,
		Records:   records,
	}
	if err := h.formatter.WriteResponse(w, req, resp, map[string]string{"X-Run-ID": run.ID}); err != nil {
		log.Errorw("could not write response", "error", err)
	}
}

// GetStep returns one record of the most recent run.
func (h *Handlers) GetStep(w http.ResponseWriter, req *http.Request) {
	if h.controller.Stats == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "statistics store not configured")
		return
	}

	step, err := strconv.Atoi(mux.Vars(req)["step"])
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid step")
		return
	}

	run, err := h.controller.Stats.LatestRun(req.Context())
	if err != nil {
		h.writeStoreError(w, req, "no run stored", err)
		return
	}
	r, err := h.controller.Stats.GetStats(req.Context(), run.ID, step)
	if err != nil {
		h.writeStoreError(w, req, fmt.Sprintf("step %d not found", step), err)
		return
	}
	if err := h.formatter.WriteResponse(w, req, r, map[string]string{"X-Run-ID": run.ID}); err != nil {
		log.Errorw("could not write response", "error", err)
	}
}

// ServeArtifact serves a mesh or manifest file from the output directory.
// Only plain .vtr and .pvd names are served.
func (h *Handlers) ServeArtifact(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["file"]
	if name != filepath.Base(name) || name == "." || name == ".." {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid file name")
		return
	}
	switch filepath.Ext(name) {
	case ".vtr", ".pvd":
	default:
		h.formatter.WriteError(w, req, http.StatusNotFound, "not a VTK file")
		return
	}

	path := filepath.Join(h.controller.OutputDir, name)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		h.formatter.WriteError(w, req, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/xml")
	http.ServeFile(w, req, path)
}

func (h *Handlers) writeStoreError(w http.ResponseWriter, req *http.Request, notFound string, err error) {
	if errors.Is(err, sqlite.ErrNotFound) {
		h.formatter.WriteError(w, req, http.StatusNotFound, notFound)
		return
	}
	log.Errorw("statistics query failed", "error", err)
	h.formatter.WriteError(w, req, http.StatusInternalServerError, "statistics query failed")
}
