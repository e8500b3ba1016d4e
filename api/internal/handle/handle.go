package handle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"paper-pal/api/internal/normalize"
	"paper-pal/api/internal/paper"
	"paper-pal/api/internal/paper/types"
)

const fallbackHeader = "X-Fallback-Reason"

type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

type Handle struct {
	n        *normalize.Normalizer
	analyzer *paper.Analyzer
	images   paper.ImageSearcher
	opts     Options
	log      *logrus.Logger
}

func New(n *normalize.Normalizer, a *paper.Analyzer, images paper.ImageSearcher, opts Options, log *logrus.Logger) *Handle {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 180 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Handle{n: n, analyzer: a, images: images, opts: opts, log: log}
}

// Routes registers every endpoint on mux.
func (h *Handle) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/api/generate-content", h.GenerateContent)
	mux.HandleFunc("/api/generate-quiz", h.GenerateQuiz)
	mux.HandleFunc("/api/generate-applications", h.GenerateApplications)
	mux.HandleFunc("/api/fetch-images", h.FetchImages)
	mux.HandleFunc("/api/extract-text", h.ExtractText)
	mux.HandleFunc("/api/analyze-paper", h.AnalyzePaper)
}

func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorBody{Error: msg})
}

func postOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return false
	}
	return true
}

// maxRequestTimeout caps client-supplied deadlines.
const maxRequestTimeout = 15 * time.Minute

// withDeadline honours X-Request-Timeout or ?timeoutSec= (seconds), capped at
// maxRequestTimeout.
func (h *Handle) withDeadline(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := h.opts.RequestTimeout
	ts := r.Header.Get("X-Request-Timeout")
	if ts == "" {
		ts = r.URL.Query().Get("timeoutSec")
	}
	if ts != "" {
		if v, _ := strconv.ParseInt(ts, 10, 64); v > 0 {
			if v > int64(maxRequestTimeout/time.Second) {
				deadline = maxRequestTimeout
			} else {
				deadline = time.Duration(v) * time.Second
			}
		}
	}
	return context.WithTimeout(r.Context(), deadline)
}

func (h *Handle) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return false
	}
	return true
}

// credentialFrom prefers the explicit field; apiKey is what the web UI sends.
func credentialFrom(credential, apiKey string) string {
	if c := strings.TrimSpace(credential); c != "" {
		return c
	}
	return strings.TrimSpace(apiKey)
}
