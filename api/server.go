package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"github.com/gorilla/websocket"

	"github.com/animtx/animtx/anim"
	"github.com/animtx/animtx/capture"
	"github.com/animtx/animtx/util"
)

// CaptureRequest is the payload accepted by POST /capture. Animation fields
// not supplied fall back to the server defaults.
type CaptureRequest struct {
	anim.Spec
	FPS         float64 `json:"fps"`
	DurationSec float64 `json:"durationSec"`
}

// Server exposes the animations over HTTP: single frames for debugging, a
// websocket preview stream and a capture endpoint producing a webm download.
type Server struct {
	addr     string
	defaults anim.Spec
	fps      float64
	loopSec  float64

	// newEncoder is swappable so the handlers are testable without ffmpeg.
	newEncoder func() (capture.Encoder, error)
	upgrader   websocket.Upgrader

	mu        sync.Mutex
	capturing bool
}

// NewServer creates a Server with the given preview defaults. The preview
// rate is clamped to the same range as the capture rate, so a degenerate
// configured fps cannot produce a zero ticker interval.
func NewServer(addr string, defaults anim.Spec, fps, loopSec float64) *Server {
	s := new(Server)
	s.addr = addr
	s.defaults = defaults
	s.fps = util.Clamp(fps, capture.MinFPS, capture.MaxFPS)
	s.loopSec = loopSec
	s.newEncoder = func() (capture.Encoder, error) { return capture.NewFFmpeg() }
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/frame", s.handleFrame)
	mux.HandleFunc("/capture", s.handleCapture)
	mux.HandleFunc("/ws/preview", s.handlePreview)
	mux.Handle("/", http.FileServer(http.Dir("client/dist")))
	return mux
}

// Serve blocks listening on the configured address.
func (s *Server) Serve() error {
	log.Printf("api: listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// beginCapture claims the capture slot. Only one capture runs at a time and
// the preview loop yields while one is in flight.
func (s *Server) beginCapture() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capturing {
		return false
	}
	s.capturing = true
	return true
}

func (s *Server) endCapture() {
	s.mu.Lock()
	s.capturing = false
	s.mu.Unlock()
}

func (s *Server) isCapturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturing
}

// specFromQuery overlays recognised query parameters onto the defaults.
func (s *Server) specFromQuery(q url.Values) anim.Spec {
	spec := s.defaults
	if v := q.Get("template"); v != "" {
		spec.Template = v
	}
	if v := q.Get("text"); v != "" {
		spec.Text = v
	}
	if v := q.Get("backgroundColor"); v != "" {
		spec.BackgroundColor = v
	}
	if v := q.Get("primaryColor"); v != "" {
		spec.PrimaryColor = v
	}
	if v := q.Get("secondaryColor"); v != "" {
		spec.SecondaryColor = v
	}
	return spec
}

// handleFrame renders a single PNG frame at the requested virtual time.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := strconv.ParseFloat(q.Get("t"), 64)
	if err != nil || t < 0 {
		t = 0
	}

	cfg, err := s.specFromQuery(q).Config()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := anim.New(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dc := gg.NewContext(cfg.Width, cfg.Height)
	a.RenderFrame(dc, t)

	w.Header().Set("Content-Type", "image/png")
	if err := dc.EncodePNG(w); err != nil {
		log.Printf("api: encoding frame: %v", err)
	}
}

// handleCapture runs one capture and responds with the webm artifact.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	req := CaptureRequest{Spec: s.defaults, FPS: s.fps, DurationSec: s.loopSec}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad capture request: %v", err), http.StatusBadRequest)
		return
	}
	cfg, err := req.Spec.Config()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := anim.New(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.beginCapture() {
		http.Error(w, "a capture is already running", http.StatusConflict)
		return
	}
	defer s.endCapture()

	enc, err := s.newEncoder()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, capture.ErrUnsupportedEnvironment) {
			status = http.StatusNotImplemented
		}
		http.Error(w, err.Error(), status)
		return
	}

	dc := gg.NewContext(cfg.Width, cfg.Height)
	opts := capture.Options{
		FPS:      req.FPS,
		Duration: time.Duration(req.DurationSec * float64(time.Second)),
	}
	artifact, err := capture.Run(r.Context(), dc, enc, opts, func(t float64) {
		a.RenderFrame(dc, t)
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("capture failed: %v", err), http.StatusInternalServerError)
		return
	}

	name := capture.Filename(string(cfg.Template), time.Now(), cfg.Width, cfg.Height, opts.CaptureFPS())
	w.Header().Set("Content-Type", artifact.MediaType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size(), 10))
	if _, err := artifact.WriteTo(w); err != nil {
		log.Printf("api: writing artifact: %v", err)
	}
}

// handlePreview streams PNG frames over a websocket at the preview rate,
// wrapping virtual time by the loop duration. The loop skips whole frames
// while a capture is in flight so the two never contend for the CPU.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.specFromQuery(r.URL.Query()).Config()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := anim.New(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	dc := gg.NewContext(cfg.Width, cfg.Height)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.fps))
	defer ticker.Stop()

	origin := time.Now()
	var buf bytes.Buffer
	for range ticker.C {
		if s.isCapturing() {
			continue
		}

		t := time.Since(origin).Seconds()
		if s.loopSec > 0 {
			t = math.Mod(t, s.loopSec)
		}
		a.RenderFrame(dc, t)

		buf.Reset()
		if err := dc.EncodePNG(&buf); err != nil {
			log.Printf("api: encoding preview frame: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
			return
		}
	}
}
