package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/davidsparrow/guitartube-sub001/internal/config"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/recognition"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
	"github.com/davidsparrow/guitartube-sub001/internal/storage"
)

const maxWebhookBody = 1 << 20

type apiServer struct {
	bind          string
	logger        *slog.Logger
	daemon        *Daemon
	webhookSecret string
	objectDir     string

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}

	srv := &apiServer{
		bind:          bind,
		logger:        logger,
		daemon:        d,
		webhookSecret: cfg.Provider.WebhookSecret,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/jobs/", srv.handleJob)
	mux.HandleFunc("/webhooks/recognition", srv.handleWebhook)

	// Local object store backend doubles as the public URL surface.
	if cfg.Storage.Backend == "local" {
		store, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("local object dir: %w", err)
		}
		srv.objectDir = store.Dir()
		mux.Handle("/objects/", http.StripPrefix("/objects/", http.FileServer(http.Dir(srv.objectDir))))
	}

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	jobs := make(map[string]int, len(status.Jobs))
	for jobStatus, count := range status.Jobs {
		jobs[string(jobStatus)] = count
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"running":      status.Running,
		"catalogDb":    status.CatalogDBPath,
		"lockFilePath": status.LockFilePath,
		"jobs":         jobs,
	})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	view, err := s.daemon.status.JobView(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleWebhook is the provider callback endpoint. Response codes signal
// redelivery semantics to the provider: 2xx acknowledges, 4xx rejects
// permanently, 5xx invites redelivery.
func (s *apiServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !recognition.VerifySignature(s.webhookSecret, body, r.Header.Get(recognition.SignatureHeader)) {
		s.writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	callback, err := recognition.ParseCallback(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.daemon.ingestor.HandleCallback(r.Context(), callback); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "unknown job")
			return
		}
		s.log().Error("webhook ingestion failed",
			slog.String(logging.FieldJobID, callback.JobID),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusBadGateway, "ingestion failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.WithComponent(s.logger, "api-server")
}
