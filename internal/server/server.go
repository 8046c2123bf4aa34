// Package server is the reference tree data service: a small chi router
// over a node source, speaking the same /v1/nodes protocol the HTTP store
// client consumes. It exists so the loader has something real to fetch
// from in development and tests.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	pkgerrors "github.com/Qefaraki/treescape/pkg/errors"
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// Query limits mirroring the client defaults.
const (
	maxDepthLimit      = 32
	maxGenerationsInit = 10
)

// Server serves region and initial-load queries over a node source.
type Server struct {
	source store.NodeSource
	logger *log.Logger
}

// New creates a server. A nil logger discards output.
func New(source store.NodeSource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{source: source, logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/nodes", s.handleRegion)
		r.Get("/nodes/initial", s.handleInitial)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegion returns the nodes whose footprints intersect the requested
// world rectangle, optionally capped at a generation depth below the
// shallowest match.
func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minX, err := parseCoord(q.Get("minx"))
	if err != nil {
		s.writeError(w, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidRegion, err, "invalid minx"))
		return
	}
	minY, err := parseCoord(q.Get("miny"))
	if err != nil {
		s.writeError(w, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidRegion, err, "invalid miny"))
		return
	}
	maxX, err := parseCoord(q.Get("maxx"))
	if err != nil {
		s.writeError(w, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidRegion, err, "invalid maxx"))
		return
	}
	maxY, err := parseCoord(q.Get("maxy"))
	if err != nil {
		s.writeError(w, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidRegion, err, "invalid maxy"))
		return
	}
	if err := pkgerrors.ValidateRegion(minX, minY, maxX, maxY); err != nil {
		s.writeError(w, err)
		return
	}

	depth := 0
	if raw := q.Get("depth"); raw != "" {
		depth, err = strconv.Atoi(raw)
		if err != nil || depth < 0 || depth > maxDepthLimit {
			s.writeError(w, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "depth must be 0..%d", maxDepthLimit))
			return
		}
	}

	bounds := geom.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	nodes, err := s.source.FetchRegion(r.Context(), bounds, depth)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tree.Tree{Nodes: nodes})
}

// handleInitial returns the named root plus a fixed number of descendant
// generations, the payload the loader uses for first paint.
func (s *Server) handleInitial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rootID := q.Get("root")
	if rootID != "" {
		if err := pkgerrors.ValidateNodeID(rootID); err != nil {
			s.writeError(w, err)
			return
		}
	}

	generations := store.DefaultInitialGenerations
	if raw := q.Get("generations"); raw != "" {
		g, err := strconv.Atoi(raw)
		if err != nil || g < 1 || g > maxGenerationsInit {
			s.writeError(w, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "generations must be 1..%d", maxGenerationsInit))
			return
		}
		generations = g
	}

	nodes, err := s.source.FetchInitial(r.Context(), rootID, generations)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tree.Tree{Nodes: nodes})
}

// errorBody is the wire shape of a failed request.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorBody{
		Code:    string(pkgerrors.GetCode(err)),
		Message: pkgerrors.UserMessage(err),
	})
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	switch pkgerrors.GetCode(err) {
	case pkgerrors.ErrCodeInvalidInput, pkgerrors.ErrCodeInvalidRegion,
		pkgerrors.ErrCodeInvalidNode, pkgerrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case pkgerrors.ErrCodeNotFound, pkgerrors.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case pkgerrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case pkgerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func parseCoord(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

// logRequests logs one line per request with the structured logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
