package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

// StatsReader is the query side of a statistics store. *sqlite.Storage
// implements it.
type StatsReader interface {
	LatestRun(ctx context.Context) (storage.Run, error)
	ListStats(ctx context.Context, runID string) ([]stats.Record, error)
	GetStats(ctx context.Context, runID string, step int) (stats.Record, error)
}

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	restConfig   config.RESTServerData
	Server       http.Server
	OutputDir    string
	ManifestName string
	Stats        StatsReader
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller. A nil reader disables
// the /stats endpoints.
func NewController(ctx context.Context, wg *sync.WaitGroup, c *config.ConfigData, reader StatsReader, logger *zap.SugaredLogger) (*Controller, error) {
	if c == nil {
		return nil, fmt.Errorf("no configuration provided")
	}

	rc := config.RESTServerData{}
	if c.REST != nil {
		rc = *c.REST
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}
	if rc.Port == 0 {
		logger.Infof("rest.port not provided; defaulting to %d", config.DefaultRESTPort)
		rc.Port = config.DefaultRESTPort
	}
	if reader == nil {
		logger.Info("no sqlite store configured; /stats endpoints disabled")
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		restConfig:   rc,
		OutputDir:    c.OutputDir,
		ManifestName: c.Conversion.ManifestName,
		Stats:        reader,
		logger:       logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/manifest", c.handlers.GetManifest).Methods(http.MethodGet)
	router.HandleFunc("/stats", c.handlers.GetStats).Methods(http.MethodGet)
	router.HandleFunc("/stats/{step:[0-9]+}", c.handlers.GetStep).Methods(http.MethodGet)
	router.HandleFunc("/vtk/{file}", c.handlers.ServeArtifact).Methods(http.MethodGet)

	return router
}

// statusRecorder remembers the status and size written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, req)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		log.LogHTTPRequest(req.Method, req.URL.Path, rec.status, time.Since(start), rec.size, req.RemoteAddr, req.UserAgent(), nil)
	})
}
