package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hexfm/internal/config"
	"hexfm/internal/logging"
)

// Server exposes the service over HTTP for the review frontend.
type Server struct {
	bind    string
	service *Service
	logger  *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer builds an HTTP server around the service. A blank bind address
// disables it.
func NewServer(cfg *config.Config, service *Service, logger *slog.Logger) *Server {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &Server{
		bind:    bind,
		service: service,
		logger:  logging.WithComponent(logger, "api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/home_data", srv.handleHome)
	mux.HandleFunc("/api/get_next_unreviewed", srv.handleNextUnreviewed)
	mux.HandleFunc("/api/get_scrobble_date_range", srv.handleDateRange)
	mux.HandleFunc("/api/handle_match", srv.handleMatch)
	mux.HandleFunc("/api/handle_no_match", srv.handleNoMatch)
	mux.HandleFunc("/api/handle_delete_matches", srv.handleDeleteMatches)
	mux.HandleFunc("/api/new_tracks", srv.handleNewTracks)
	mux.HandleFunc("/api/delete_new_track", srv.handleDeleteNewTracks)
	mux.HandleFunc("/api/query", srv.handleQuery)
	mux.HandleFunc("/api/csv_upload", srv.handleCSVUpload)
	mux.HandleFunc("/api/update_lastfm_data", srv.handlePull)
	mux.HandleFunc("/api/update_hex_data", srv.handleCatalogSync)
	mux.HandleFunc("/api/process_matches", srv.handleProcess)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", "address", listener.Addr().String())
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
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

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data, err := s.service.Home(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleNextUnreviewed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	item, err := s.service.NextUnreviewed(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeJSON(w, http.StatusOK, map[string]bool{"status": false})
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		Status bool `json:"status"`
		ReviewItem
	}{Status: true, ReviewItem: *item})
}

func (s *Server) handleDateRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	dateRange, err := s.service.ScrobbleDateRange(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, dateRange)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		ConcatKey string `json:"concatKey"`
		TrackID   int64  `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ConcatKey == "" || payload.TrackID == 0 {
		s.writeError(w, http.StatusBadRequest, "concatKey and trackId are required")
		return
	}
	if err := s.service.AssignMatch(r.Context(), payload.ConcatKey, payload.TrackID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleNoMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		ConcatKey string `json:"concatKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ConcatKey == "" {
		s.writeError(w, http.StatusBadRequest, "concatKey is required")
		return
	}
	if err := s.service.AssignNoMatch(r.Context(), payload.ConcatKey); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteMatches(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.decodeIDList(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteMatches(r.Context(), ids); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleNewTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	tracks, err := s.service.NewTracks(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		NewTracks      []NewTrackView `json:"newTracks"`
		NewTracksCount int            `json:"newTracksCount"`
	}{NewTracks: tracks, NewTracksCount: len(tracks)})
}

func (s *Server) handleDeleteNewTracks(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.decodeIDList(w, r)
	if !ok {
		return
	}
	if err := s.service.AcknowledgeNewTracks(r.Context(), ids); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 30
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	tracks, err := s.service.Query(r.Context(), r.URL.Query().Get("filter"), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleCSVUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "csv file upload required")
		return
	}
	defer file.Close()
	summary, err := s.service.ImportCSV(r.Context(), file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.service.Pull(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCatalogSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.service.SyncCatalog(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.service.ProcessMatches(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) decodeIDList(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	var ids []int64
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return ids, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
