// Package api exposes the conversion pipeline as an HTTP service.
//
// The service is deliberately small: one conversion endpoint plus a health
// probe. All conversion behavior lives in [pipeline.Runner]; this package
// only translates HTTP requests into pipeline options and pipeline errors
// into status codes.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/laneflow/laneflow/pkg/errors"
	"github.com/laneflow/laneflow/pkg/observability"
	"github.com/laneflow/laneflow/pkg/pipeline"
	"github.com/laneflow/laneflow/pkg/process"
)

// MaxSpecSize bounds the request body. Specs are small documents; anything
// larger is a client error.
const MaxSpecSize = 1 << 20 // 1 MiB

type ctxKey int

const requestIDKey ctxKey = 0

// Server handles HTTP conversion requests.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// NewServer creates a server around the given runner. A nil logger falls
// back to the default logger.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/convert", s.handleConvert)

	return r
}

// requestID assigns each request a UUID, echoed in the X-Request-Id header
// and attached to log lines and error responses.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// observe emits request logs and HTTP hook events.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", duration,
			"request_id", requestID(r.Context()))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleConvert runs the pipeline over the posted spec. The spec encoding
// follows the Content-Type header, the artifact format and indentation the
// query string.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	specData, err := io.ReadAll(io.LimitReader(r.Body, MaxSpecSize+1))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidSpec, err, "read request body"))
		return
	}
	if len(specData) > MaxSpecSize {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidSpec, "spec exceeds %d bytes", MaxSpecSize))
		return
	}

	opts := pipeline.Options{
		Format:     r.URL.Query().Get("format"),
		Pretty:     r.URL.Query().Get("pretty") != "false",
		Refresh:    r.URL.Query().Get("refresh") == "true",
		SpecFormat: specFormat(r.Header.Get("Content-Type")),
		Logger:     s.logger,
	}

	result, err := s.runner.Execute(r.Context(), specData, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifactContentType(opts.Format))
	w.Header().Set("X-Run-Id", result.RunID.String())
	if result.CacheInfo.ArtifactHit {
		w.Header().Set("X-Cache", "hit")
	}
	_, _ = w.Write(result.Artifact)
}

// specFormat maps a Content-Type header to the spec encoding. JSON is the
// default for missing or unrecognized types.
func specFormat(contentType string) process.Format {
	switch contentType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return process.FormatYAML
	default:
		return process.FormatJSON
	}
}

func artifactContentType(format string) string {
	switch format {
	case pipeline.FormatLayout:
		return "application/json"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	case pipeline.FormatSVG:
		return "image/svg+xml"
	default:
		return "application/xml"
	}
}

// errorResponse is the JSON body returned for failed requests.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: requestID(r.Context()),
	})
}

// statusForError maps structured error codes to HTTP status codes.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidSpec, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupportedTopology:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
