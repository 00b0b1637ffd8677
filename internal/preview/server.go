// Package preview serves a local browser preview of a slideshow session.
//
// The page plays the original audio with the browser's native controls and
// swaps images from the audio clock using the same slide table the exporter
// renders, so what the user sees in the preview is what ends up in the file.
// Only files belonging to the session are ever served.
package preview

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"beatframe/internal/images"
	"beatframe/internal/logging"
	"beatframe/internal/project"
	"beatframe/internal/services"
)

//go:embed assets
var assets embed.FS

var pageTemplate = template.Must(template.ParseFS(assets, "assets/index.html"))

// RequestIDHeader echoes the identifier logged for each preview request.
const RequestIDHeader = "X-Request-ID"

// SessionResponse is the /api/session payload.
type SessionResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	AudioPath     string  `json:"audio_path"`
	AudioDuration float64 `json:"audio_duration"`
	Duration      float64 `json:"duration"`
	FPS           int     `json:"fps"`
	ImageCount    int     `json:"image_count"`
	SlideCount    int     `json:"slide_count"`
	BeatCount     int     `json:"beat_count"`
	TempoBPM      float64 `json:"tempo_bpm"`
	Method        string  `json:"method"`
	PlanSource    string  `json:"plan_source"`
	CacheHit      bool    `json:"cache_hit"`
}

// PlanResponse is the /api/plan payload.
type PlanResponse struct {
	Duration   float64         `json:"duration"`
	FPS        int             `json:"fps"`
	ImageCount int             `json:"image_count"`
	Slides     []slideResponse `json:"slides"`
	Beats      []float64       `json:"beats"`
	Images     []imageResponse `json:"images"`
}

type slideResponse struct {
	Index int     `json:"index"`
	Image int     `json:"image"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type imageResponse struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Server serves one session.
type Server struct {
	session *project.Session
	bind    string
	logger  *slog.Logger

	listener net.Listener
	server   *http.Server
	handler  http.Handler
	running  sync.WaitGroup
}

// New constructs a preview server for session.
func New(session *project.Session, bind string, logger *slog.Logger) (*Server, error) {
	if session == nil {
		return nil, errors.New("preview requires a session")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		session: session,
		bind:    strings.TrimSpace(bind),
		logger:  logging.NewComponentLogger(logger, "preview"),
	}

	static, err := fs.Sub(assets, "assets")
	if err != nil {
		return nil, fmt.Errorf("preview assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/static/", s.getOnly(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/plan", s.handlePlan)
	mux.HandleFunc("/media/audio", s.handleAudio)
	mux.HandleFunc("/media/images/", s.handleImage)
	s.handler = s.withRequestID(mux)

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	bind := s.bind
	if bind == "" {
		bind = "127.0.0.1:0"
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("preview listen: %w", err)
	}
	s.listener = listener

	s.running.Add(2)
	go func() {
		defer s.running.Done()
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("preview server error", logging.Error(err))
		}
	}()
	go func() {
		defer s.running.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("preview shutdown incomplete", logging.Error(err))
		}
		s.logger.Info("preview server stopped")
	}()
	s.logger.Info("preview server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldSessionID, s.session.ID))
	return nil
}

// Wait blocks until a started server has finished shutting down after its
// context ended. It returns immediately if Start was never called.
func (s *Server) Wait() {
	s.running.Wait()
}

// URL returns the address browsers should open, once started.
func (s *Server) URL() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String() + "/"
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	tempo := "tempo unknown"
	if bpm := s.session.Timeline.Tempo(); bpm > 0 {
		tempo = strconv.FormatFloat(bpm, 'f', 1, 64) + " bpm"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, map[string]any{
		"Title":  s.session.Title,
		"Images": len(s.session.Images),
		"Slides": len(s.session.Plan.Slides),
		"Tempo":  tempo,
	})
	if err != nil {
		s.logger.Warn("render preview page failed", logging.Error(err))
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.session
	s.writeJSON(w, http.StatusOK, SessionResponse{
		ID:            sess.ID,
		Title:         sess.Title,
		AudioPath:     sess.AudioPath,
		AudioDuration: sess.Probe.DurationSeconds(),
		Duration:      sess.Plan.Duration,
		FPS:           sess.Plan.FPS,
		ImageCount:    len(sess.Images),
		SlideCount:    len(sess.Plan.Slides),
		BeatCount:     len(sess.Timeline.Beats),
		TempoBPM:      sess.Timeline.Tempo(),
		Method:        sess.Timeline.Method,
		PlanSource:    sess.Plan.Source,
		CacheHit:      sess.CacheHit,
	})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	plan := s.session.Plan
	resp := PlanResponse{
		Duration:   plan.Duration,
		FPS:        plan.FPS,
		ImageCount: plan.ImageCount,
		Slides:     make([]slideResponse, len(plan.Slides)),
		Beats:      s.session.Timeline.Times(),
		Images:     make([]imageResponse, len(s.session.Images)),
	}
	for i, slide := range plan.Slides {
		resp.Slides[i] = slideResponse{Index: slide.Index, Image: slide.ImageIndex, Start: slide.Start, End: slide.End}
	}
	for i, img := range s.session.Images {
		resp.Images[i] = imageResponse{Name: img.Name, Width: img.Width, Height: img.Height}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.serveFile(w, r, s.session.AudioPath, audioContentType(s.session.AudioPath))
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
}

func audioContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/media/images/")
	if raw == "" || strings.Contains(raw, "/") {
		s.writeError(w, http.StatusNotFound, "image not found")
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n >= len(s.session.Images) {
		s.writeError(w, http.StatusNotFound, "image not found")
		return
	}
	img := s.session.Images[n]
	s.serveFile(w, r, img.Path, images.ContentType(img.Path))
}

// serveFile streams path with Range support.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("preview file unavailable", logging.Path(path), logging.Error(err))
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		ctx := services.WithRequestID(r.Context(), id)
		w.Header().Set(RequestIDHeader, id)
		logging.WithContext(ctx, s.logger).Debug("preview request",
			logging.String("method", r.Method),
			logging.String("url_path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		s.logger.Warn("preview encode failed", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
