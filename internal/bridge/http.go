package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/wrtsync/internal/openwrt"
	"github.com/muurk/wrtsync/internal/reconcile"
	"github.com/muurk/wrtsync/internal/wireless"
)

// maxBodySize bounds request bodies on the mutation routes
const maxBodySize = 16 << 10

// Controller is the engine surface the bridges forward to.
type Controller interface {
	Name() string
	Current() *wireless.Snapshot
	LastPlan() reconcile.Plan
	Connected() bool
	Send(ctx context.Context, cmd openwrt.Command) (bool, error)
	Intent(ctx context.Context, key string, value bool) (bool, error)
}

// IntentRequest is the body of POST /set and of messages on <prefix>.set
type IntentRequest struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

// RadioRequest is the body of POST /radios/{device}
type RadioRequest struct {
	Enabled bool `json:"enabled"`
	Restart bool `json:"restart"`
}

// SSIDRequest is the body of POST /ssids/{device}/{ssid}
type SSIDRequest struct {
	Enabled bool   `json:"enabled"`
	NewName string `json:"newName"`
}

// Result reports the outcome of a forwarded command.
type Result struct {
	// Accepted is false when the router was busy and the command dropped
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Device    string `json:"device"`
	Connected bool   `json:"connected"`
	LinkUp    bool   `json:"linkUp"`
}

type snapshotResponse struct {
	Device   string             `json:"device"`
	Snapshot *wireless.Snapshot `json:"snapshot"`
	Plan     reconcile.Plan     `json:"plan"`
}

// NewRouter creates the chi router for the REST bridge. events may be
// nil, in which case /events is not served.
func NewRouter(ctrl Controller, events http.Handler, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{ctrl: ctrl, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))
	r.Use(recovery(logger))

	r.Get("/health", h.health)
	r.Get("/snapshot", h.snapshot)
	r.Post("/set", h.intent)

	r.Route("/radios", func(r chi.Router) {
		r.Post("/{device}", h.setRadio)
	})
	r.Route("/ssids", func(r chi.Router) {
		r.Post("/{device}/{ssid}", h.setSSID)
	})

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}
	return r
}

type handlers struct {
	ctrl   Controller
	logger *zap.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Device:    h.ctrl.Name(),
		Connected: h.ctrl.Connected(),
	}
	status := http.StatusOK
	if snap := h.ctrl.Current(); snap != nil {
		resp.LinkUp = snap.LinkUp
	} else {
		resp.Status = "connecting"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *handlers) snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		Device:   h.ctrl.Name(),
		Snapshot: snap,
		Plan:     h.ctrl.LastPlan(),
	})
}

func (h *handlers) intent(w http.ResponseWriter, r *http.Request) {
	var req IntentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	ran, err := h.ctrl.Intent(r.Context(), req.Key, req.Value)
	h.writeResult(w, ran, err)
}

func (h *handlers) setRadio(w http.ResponseWriter, r *http.Request) {
	var req RadioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ran, err := h.ctrl.Send(r.Context(), openwrt.Command{
		Kind:    openwrt.KindRadio,
		Device:  chi.URLParam(r, "device"),
		Enable:  req.Enabled,
		Restart: req.Restart,
	})
	h.writeResult(w, ran, err)
}

func (h *handlers) setSSID(w http.ResponseWriter, r *http.Request) {
	var req SSIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ran, err := h.ctrl.Send(r.Context(), openwrt.Command{
		Kind:    openwrt.KindSSID,
		Device:  chi.URLParam(r, "device"),
		SSID:    chi.URLParam(r, "ssid"),
		NewName: req.NewName,
		Enable:  req.Enabled,
	})
	h.writeResult(w, ran, err)
}

// writeResult maps a command outcome onto an HTTP status: 202 when run,
// 409 when dropped by a busy router, 404 for a missing target.
func (h *handlers) writeResult(w http.ResponseWriter, ran bool, err error) {
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case openwrt.IsNotFoundError(err):
			status = http.StatusNotFound
		case !openwrt.IsRPCError(err) && !openwrt.IsAuthError(err):
			status = http.StatusBadRequest
		}
		res := Result{Error: err.Error()}
		if status != http.StatusBadRequest {
			res.Hint = openwrt.Hint(err)
		}
		writeJSON(w, status, res)
		return
	}
	if !ran {
		writeJSON(w, http.StatusConflict, Result{Accepted: false})
		return
	}
	writeJSON(w, http.StatusAccepted, Result{Accepted: true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.New().String()[:8])
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

func recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic in HTTP handler", zap.Any("panic", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the /events upgrade through the logging middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}
