// Package webui serves the keyer's settings page endpoints over HTTP.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net"
	"net/http"
	"time"

	"github.com/verte-zerg/cwkeyer/internal/keyer"
	"github.com/verte-zerg/cwkeyer/internal/model"
	"github.com/verte-zerg/cwkeyer/internal/settings"
	"github.com/verte-zerg/cwkeyer/internal/surface"
)

// maxTextBytes bounds a single text submission.
const maxTextBytes = 4096

// Server exposes a device to the browser settings page.
type Server struct {
	dev    *keyer.Device
	pixels *surface.Pixels
	logf   func(format string, args ...any)
	mux    *http.ServeMux
}

// SettingValue is one entry of a setconfig request.
type SettingValue struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type setConfigRequest struct {
	Settings []SettingValue `json:"settings"`
}

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	Msg   string `json:"msg"`
	Chars int    `json:"chars"`
}

type screenResponse struct {
	Rows      []string `json:"rows"`
	Evictions int      `json:"evictions"`
	WPM       int      `json:"wpm"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Unknown []string `json:"unknown,omitempty"`
}

// New builds a server for dev. pixels may be nil, which disables the
// framebuffer endpoint.
func New(dev *keyer.Device, pixels *surface.Pixels, logf func(format string, args ...any)) *Server {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	s := &Server{dev: dev, pixels: pixels, logf: logf, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /getconfig", s.handleGetConfig)
	s.mux.HandleFunc("POST /setconfig", s.handleSetConfig)
	s.mux.HandleFunc("POST /textsubmit", s.handleTextSubmit)
	s.mux.HandleFunc("GET /screen", s.handleScreen)
	s.mux.HandleFunc("GET /screen.png", s.handleScreenPNG)
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logf("webui: listening on %s", ln.Addr())
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeSettings(w)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req setConfigRequest
	if err := decodeBody(w, r, settings.MaxDocumentBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	known := make(map[string]bool)
	for _, k := range settings.Keys() {
		known[k] = true
	}
	doc := make(map[string]json.RawMessage, len(req.Settings))
	var unknown []string
	for _, sv := range req.Settings {
		if !known[sv.Name] {
			unknown = append(unknown, sv.Name)
			continue
		}
		doc[sv.Name] = sv.Value
	}
	if len(unknown) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown settings", Unknown: unknown})
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	sctx := s.dev.Settings()
	probe := sctx.Snapshot()
	if err := settings.Decode(data, &probe); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(doc) > 0 {
		sctx.Update(func(cur *model.Settings) { _ = settings.Decode(data, cur) })
	}
	if err := s.dev.Commit(r.Context()); err != nil {
		s.logf("webui: commit failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.writeSettings(w)
}

func (s *Server) handleTextSubmit(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeBody(w, r, maxTextBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	n := s.dev.Text(req.Text)
	writeJSON(w, http.StatusOK, textResponse{Msg: "ok", Chars: n})
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, screenResponse{
		Rows:      []string(s.dev.Display().Layout()),
		Evictions: s.dev.Display().Evictions(),
		WPM:       s.dev.WPM(),
	})
}

func (s *Server) handleScreenPNG(w http.ResponseWriter, r *http.Request) {
	if s.pixels == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, s.pixels.Image()); err != nil {
		s.logf("webui: encode screen: %v", err)
	}
}

func (s *Server) writeSettings(w http.ResponseWriter) {
	data, err := settings.Marshal(s.dev.Settings().Snapshot())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
