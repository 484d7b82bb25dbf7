package api

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"showroomgo/internal/ui"
	"showroomgo/pkg/config"
	"showroomgo/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts the params handler, the event hub, the viewer settings and a
// shutdownFunc for graceful shutdown.
func NewServer(addr string, viewer config.ViewerConfig, paramsH *ParamsHandler, hub *EventHub, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Params Endpoints
	mux.HandleFunc("GET /api/params", paramsH.HandleGet)
	mux.HandleFunc("PUT /api/params", paramsH.HandleUpdate)
	mux.HandleFunc("POST /api/params", paramsH.HandleUpdate)
	mux.HandleFunc("POST /api/params/reset", paramsH.HandleReset)

	// 4. Event Push Endpoint
	mux.HandleFunc("GET /api/events", hub.HandleEvents)

	// 5. Viewer Assets (glTF models, textures, HDRIs)
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(viewer.AssetsDir))))
	mux.HandleFunc("GET /api/viewer", func(w http.ResponseWriter, r *http.Request) {
		handleViewer(w, viewer)
	})

	// 6. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// 7. Static Frontend Serving (SPA)
	// We need to serve from the "dist" subdirectory of the embedded FS
	distFS, err := fs.Sub(ui.DistFS, "dist")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree dist from embedded assets: %v", err))
	}

	spaFS := &spaFileSystem{root: http.FS(distFS)}
	mux.Handle("/", http.FileServer(spaFS))

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

// ViewerResponse tells the front-end where assets live and which model to
// load first.
type ViewerResponse struct {
	AssetsBase   string `json:"assetsBase"`
	DefaultModel string `json:"defaultModel"`
}

func handleViewer(w http.ResponseWriter, viewer config.ViewerConfig) {
	w.Header().Set("Content-Type", "application/json")
	resp := ViewerResponse{
		AssetsBase:   "/assets/",
		DefaultModel: viewer.DefaultModel,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode viewer response", "error", err)
	}
}
