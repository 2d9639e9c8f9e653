// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/candirank/internal/adapters/repository"
	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/internal/domain/aggregate"
)

// Default ranking limits.
const (
	defaultRankingLimit = 10
	defaultMaxLimit     = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	RecordsDependencies
	EvaluationDependencies
	RankingDependencies
	RankDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	recordsHandler     *RecordsHandler
	evaluationsHandler *EvaluationsHandler
	rankingHandler     *RankingHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{defaultLimit: defaultRankingLimit, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		recordsHandler:     NewRecordsHandler(deps),
		evaluationsHandler: NewEvaluationsHandler(deps),
		rankingHandler:     NewRankingHandler(deps, cfg.defaultLimit, cfg.maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("PUT /skills", MetricsMiddleware(s.recordsHandler.HandlePutSkills, "skills"))
	mux.HandleFunc("GET /skills", MetricsMiddleware(s.recordsHandler.HandleGetSkills, "skills"))
	mux.HandleFunc("PUT /positions", MetricsMiddleware(s.recordsHandler.HandlePutPositions, "positions"))
	mux.HandleFunc("GET /positions/{id}", MetricsMiddleware(s.recordsHandler.HandleGetPosition, "position"))
	mux.HandleFunc("PUT /candidates", MetricsMiddleware(s.recordsHandler.HandlePutCandidates, "candidates"))
	mux.HandleFunc("GET /candidates/{id}", MetricsMiddleware(s.recordsHandler.HandleGetCandidate, "candidate"))

	mux.HandleFunc("POST /evaluations", MetricsMiddleware(s.evaluationsHandler.HandlePostEvaluation, "evaluations"))

	mux.HandleFunc("GET /positions/{id}/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("POST /positions/{id}/query", MetricsMiddleware(s.rankingHandler.HandleQuery, "query"))
	mux.HandleFunc("GET /positions/{id}/candidates/{cid}/rank", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("GET /candidates/{id}/skills", MetricsMiddleware(s.rankHandler.HandleGetCandidateSkills, "candidate_skills"))
}

// countResponse acknowledges a batch upsert.
type countResponse struct {
	Stored int `json:"stored"`
}

// rankingResponse is the body of ranking and query reads.
type rankingResponse struct {
	PositionID string  `json:"position_id"`
	Entries    []Entry `json:"entries"`
}

// skillsResponse is the body of GET /candidates/{id}/skills.
type skillsResponse struct {
	CandidateID string                 `json:"candidate_id"`
	Skills      []aggregate.SkillScore `json:"skills"`
}

// compile-time check that the service satisfies the handler contracts.
var _ Dependencies = (*service.Service)(nil)

