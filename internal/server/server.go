package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ruslanvt/call-transcriber/internal/pipeline"
	"github.com/ruslanvt/call-transcriber/internal/transcript"
)

type Config struct {
	Host            string
	Port            int
	OutputDir       string
	SaveTranscripts bool
}

type Server struct {
	config   Config
	pipeline *pipeline.Pipeline
	log      *logrus.Logger
	http     *http.Server
}

type asrRequest struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(config Config, p *pipeline.Pipeline, log *logrus.Logger) (*Server, error) {
	if config.SaveTranscripts && config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	s := &Server{
		config:   config,
		pipeline: p,
		log:      log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/asr", s.handleASR).Methods(http.MethodPost)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: router,
	}
	return s, nil
}

func (s *Server) Start() error {
	s.log.Infof("ASR server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleASR(w http.ResponseWriter, r *http.Request) {
	var req asrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "audio path is required")
		return
	}

	result, err := s.pipeline.Run(r.Context(), req.Path)
	if err != nil {
		s.log.WithError(err).Error("request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.config.SaveTranscripts {
		s.saveTranscript(result)
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// saveTranscript persists the composed result for offline inspection.
// Failures only log; the response already succeeded.
func (s *Server) saveTranscript(result *transcript.Result) {
	name := fmt.Sprintf("%s_transcript.json", time.Now().Format("20060102_150405.000"))
	path := filepath.Join(s.config.OutputDir, name)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.log.WithError(err).Error("failed to encode transcript")
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		s.log.WithError(err).Error("failed to save transcript")
		return
	}
	s.log.Infof("Transcript saved to %s", path)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
