package web

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/config"
	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/fbx/cache"
	"github.com/mogaika/mesh_optimizer/status"
	"github.com/mogaika/mesh_optimizer/vfs"
)

type Server struct {
	Config *config.Config
	Hub    *status.Hub
	// Data is nil when ?file= param is disabled
	Data vfs.Directory
	// parsed files of data directory, read only
	Cache *cache.Cache
	Log   *zap.Logger
}

func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		Config: cfg,
		Hub:    status.NewHub(log),
		Cache:  cache.NewCache(fbx.WithLogger(log)),
		Log:    log.Named("web"),
	}
	if cfg.Server.DataDirectory != "" {
		s.Data = vfs.NewDirectoryDriver(cfg.Server.DataDirectory)
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/files", s.HandlerAjaxFiles).Methods(http.MethodGet)
	r.HandleFunc("/json/meshes", s.HandlerAjaxMeshes).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/optimize", s.HandlerOptimize).Methods(http.MethodPost)
	r.HandleFunc("/merge", s.HandlerMerge).Methods(http.MethodPost)
	r.HandleFunc("/export/glb", s.HandlerExportGlb).Methods(http.MethodPost)
	r.HandleFunc("/status", s.Hub.ServeWS)
	return r
}

type recoveryLogger struct {
	log *zap.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("handler panic", zap.String("panic", fmt.Sprint(v...)))
}

// Handler is router wrapped with panic recovery and access log
func (s *Server) Handler() http.Handler {
	h := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.Log}),
		handlers.PrintRecoveryStack(true),
	)(s.Router())
	return handlers.LoggingHandler(os.Stderr, h)
}

func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = s.Config.Server.Address
	}
	s.Log.Info("starting server", zap.String("address", addr))
	return http.ListenAndServe(addr, s.Handler())
}
