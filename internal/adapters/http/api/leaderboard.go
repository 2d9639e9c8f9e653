package api

import (
	"context"
	"fmt"
	"net/http"

	service "github.com/okian/candirank/internal/app"
)

// RankingDependencies defines the interface for ranking reads.
type RankingDependencies interface {
	Ranking(ctx context.Context, positionID string, n int) ([]Entry, error)
	Query(ctx context.Context, positionID string, opts service.QueryOptions) ([]Entry, error)
}

// RankingHandler handles position ranking requests.
type RankingHandler struct {
	deps         RankingDependencies
	defaultLimit int
	maxLimit     int
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies, defaultLimit, maxLimit int) *RankingHandler {
	return &RankingHandler{
		deps:         deps,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// HandleGetRanking handles GET /positions/{id}/ranking?limit=N requests.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	n, err := parseLimit(r, h.defaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, badRequest(op, err))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, codeLimitExceeded,
			badRequest(op, fmt.Errorf("limit %d exceeds maximum %d", n, h.maxLimit)))
		return
	}
	id := r.PathValue("id")
	entries, err := h.deps.Ranking(r.Context(), id, n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRankingResponse(id, entries))
}

// HandleQuery handles POST /positions/{id}/query requests. The body is
// optional; an empty body ranks applicants with the default weights.
func (h *RankingHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	const op = "api.query"
	var opts service.QueryOptions
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, op, &opts); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if opts.Limit < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, badRequest(op, fmt.Errorf("negative limit %d", opts.Limit)))
		return
	}
	if opts.Limit == 0 || opts.Limit > h.maxLimit {
		opts.Limit = h.maxLimit
	}
	id := r.PathValue("id")
	entries, err := h.deps.Query(r.Context(), id, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRankingResponse(id, entries))
}

func newRankingResponse(positionID string, entries []Entry) rankingResponse {
	if entries == nil {
		entries = []Entry{}
	}
	return rankingResponse{PositionID: positionID, Entries: entries}
}
