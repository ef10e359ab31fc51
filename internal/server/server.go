// Package server exposes the operator pipeline over HTTP: rollout
// submission and retrieval, graph inspection, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/rigno"
	"github.com/aretw0/rigno/internal/logging"
	"github.com/aretw0/rigno/internal/rollout"
	"github.com/aretw0/rigno/internal/telemetry"
	"github.com/aretw0/rigno/pkg/domain"
	"github.com/aretw0/rigno/pkg/ports"
)

// Operator is the slice of the pipeline facade the server consumes.
type Operator interface {
	Rollout(ctx context.Context, run rigno.Run) (*domain.Trajectory, error)
	Graphs(ctx context.Context, cloud *domain.PointCloud) (*domain.GraphSet, error)
}

// Server routes HTTP requests onto an Operator and a TrajectoryStore.
type Server struct {
	op      Operator
	store   ports.TrajectoryStore
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes the given collectors on /metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(op Operator, store ports.TrajectoryStore, opts ...Option) http.Handler {
	s := &Server{
		op:     op,
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/rollouts", s.createRollout)
		r.Get("/rollouts", s.listRollouts)
		r.Get("/rollouts/{id}", s.getRollout)
		r.Delete("/rollouts/{id}", s.deleteRollout)
		r.Post("/graphs", s.describeGraphs)
	})
	return r
}

// rolloutRequest is the POST /v1/rollouts body.
type rolloutRequest struct {
	Cloud    *domain.PointCloud  `json:"cloud"`
	Initial  domain.Field        `json:"initial"`
	Schedule rollout.TauSchedule `json:"schedule"`
}

// rolloutResponse summarizes the stored trajectory. Error carries the
// failure reason when the rollout diverged or was cut short.
type rolloutResponse struct {
	ID     string               `json:"id"`
	Status domain.RolloutStatus `json:"status"`
	Steps  int                  `json:"steps"`
	Error  string               `json:"error,omitempty"`
}

func (s *Server) createRollout(w http.ResponseWriter, r *http.Request) {
	var req rolloutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Cloud == nil {
		http.Error(w, "missing cloud", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	traj, err := s.op.Rollout(r.Context(), rigno.Run{
		ID:       id,
		Cloud:    req.Cloud,
		Initial:  req.Initial,
		Schedule: req.Schedule,
	})
	if traj == nil && err != nil {
		// Nothing ran: bad mesh, bad schedule, or graph construction
		// failure. All of them are caller errors.
		s.logger.Warn("rollout rejected", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Failed rollouts are stored too; the partial trajectory is the
	// diagnostic for divergence.
	if storeErr := s.store.Save(r.Context(), traj); storeErr != nil {
		s.logger.Error("failed to store trajectory", "id", id, "err", storeErr)
		http.Error(w, "failed to store trajectory", http.StatusInternalServerError)
		return
	}

	resp := rolloutResponse{ID: id, Status: traj.Status, Steps: traj.Steps()}
	if err != nil {
		resp.Error = err.Error()
	}
	s.logger.Info("rollout finished", "id", id, "status", traj.Status, "steps", traj.Steps())
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) listRollouts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list trajectories", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) getRollout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	traj, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTrajectoryNotFound) {
			http.Error(w, "trajectory not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load trajectory", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, traj)
}

func (s *Server) deleteRollout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, "failed to delete trajectory", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// graphsRequest is the POST /v1/graphs body.
type graphsRequest struct {
	Cloud *domain.PointCloud `json:"cloud"`
}

// graphsResponse summarizes a built graph set without shipping the full
// edge arrays.
type graphsResponse struct {
	Key             string `json:"key"`
	Regions         int    `json:"regions"`
	EncoderEdges    int    `json:"encoder_edges"`
	DecoderEdges    int    `json:"decoder_edges"`
	ProcessorLevels []int  `json:"processor_levels"`
}

func (s *Server) describeGraphs(w http.ResponseWriter, r *http.Request) {
	var req graphsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Cloud == nil {
		http.Error(w, "missing cloud", http.StatusBadRequest)
		return
	}

	gs, err := s.op.Graphs(r.Context(), req.Cloud)
	if err != nil {
		s.logger.Warn("graph build rejected", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := graphsResponse{
		Key:          gs.Key,
		Regions:      gs.Regions.Len(),
		EncoderEdges: gs.Encoder.NumEdges(),
		DecoderEdges: gs.Decoder.NumEdges(),
	}
	for i := range gs.Processor {
		resp.ProcessorLevels = append(resp.ProcessorLevels, gs.Processor[i].NumEdges())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": rigno.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
