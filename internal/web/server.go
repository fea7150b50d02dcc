// Package web provides the HTTP server for the counterwatch daemon: the
// status page, browser calibration, the annotated snapshot, metrics and the
// live event stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/sweeney/counterwatch/internal/calibration"
	"github.com/sweeney/counterwatch/internal/metrics"
	"github.com/sweeney/counterwatch/internal/render"
	"github.com/sweeney/counterwatch/internal/status"
	"github.com/sweeney/counterwatch/internal/ws"
)

// SessionCookie names the cookie that carries the calibration session id.
const SessionCookie = "counterwatch_session"

// maxUploadBytes caps the /upload-frame body.
const maxUploadBytes = 16 << 20

// Options wires the optional parts of the server. Nil fields disable the
// routes that need them.
type Options struct {
	Sessions *calibration.Sessions
	// Selector picks the ROI when an upload carries none.
	Selector calibration.Selector
	// RectFile is where /save-coordinates writes and /calibration.json reads.
	RectFile string
	Latest   *render.Latest
	Metrics  *metrics.Metrics
	Hub      *ws.Hub
}

// Server serves the status page and calibration routes over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	opts       Options
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, opts Options) *Server {
	if opts.Sessions == nil {
		opts.Sessions = calibration.NewSessions(0)
	}
	if opts.RectFile == "" {
		opts.RectFile = calibration.DefaultRectFile
	}
	s := &Server{tracker: tracker, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/calibrate", s.handleCalibrate)
	mux.HandleFunc("/upload-frame", s.handleUploadFrame)
	mux.HandleFunc("/save-coordinates", s.handleSaveCoordinates)
	mux.HandleFunc("/calibration.json", s.handleCalibration)
	mux.HandleFunc("/snapshot.jpg", s.handleSnapshot)
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics.Handler())
	}
	if opts.Hub != nil {
		mux.Handle("/ws", opts.Hub)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderIndex(w, snap, s.opts.Hub != nil, s.opts.Latest != nil)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	s.session(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderCalibrate(w)
}

// roiJSON is the optional browser-drawn selection in an upload.
type roiJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type uploadRequest struct {
	Frame string   `json:"frame"`
	ROI   *roiJSON `json:"roi,omitempty"`
}

type uploadResponse struct {
	Status string            `json:"status"`
	Rect   *calibration.Rect `json:"rect,omitempty"`
}

func (s *Server) handleUploadFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)

	var req uploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		log.Printf("web: upload-frame: %v", err)
		writeJSON(w, http.StatusBadRequest, uploadResponse{Status: "failed"})
		return
	}

	img, err := calibration.DecodeFrame(req.Frame)
	if err != nil {
		log.Printf("web: upload-frame: %v", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Status: "failed"})
		return
	}

	sel := s.opts.Selector
	if req.ROI != nil {
		sel = calibration.FixedSelector{Rect: image.Rect(req.ROI.X, req.ROI.Y, req.ROI.X+req.ROI.Width, req.ROI.Y+req.ROI.Height)}
	}
	if sel == nil {
		log.Printf("web: upload-frame: no roi and no selector")
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Status: "failed"})
		return
	}

	picked, err := sel.Select(img)
	if err != nil {
		log.Printf("web: upload-frame: select: %v", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Status: "failed"})
		return
	}
	rect, err := calibration.FromRectangle(picked)
	if err != nil {
		log.Printf("web: upload-frame: %v", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Status: "failed"})
		return
	}

	sess.SetPending(rect)
	log.Printf("web: session %s pending %+v", sess.ID, rect)
	writeJSON(w, http.StatusOK, uploadResponse{Status: "ready", Rect: &rect})
}

func (s *Server) handleSaveCoordinates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rect calibration.Rect
	ok := false
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, found := s.opts.Sessions.Lookup(c.Value); found {
			rect, ok = sess.Pending()
			if ok {
				defer sess.Clear()
			}
		}
	}
	if !ok {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Status: "no_data"})
		return
	}

	if err := calibration.SaveRect(s.opts.RectFile, rect); err != nil {
		log.Printf("web: save-coordinates: %v", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Status: "failed"})
		return
	}
	log.Printf("web: saved calibration to %s", s.opts.RectFile)
	writeJSON(w, http.StatusOK, uploadResponse{Status: "saved", Rect: &rect})
}

func (s *Server) handleCalibration(w http.ResponseWriter, r *http.Request) {
	rect, err := calibration.LoadRect(s.opts.RectFile)
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rect)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.opts.Latest == nil {
		http.NotFound(w, r)
		return
	}
	data, _, ok := s.opts.Latest.Get()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// session returns the caller's calibration session, issuing a cookie when
// the request carries none or an expired one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *calibration.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess := s.opts.Sessions.Get(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
