package api

import (
	"context"
	"net/http"

	"github.com/okian/candirank/internal/domain/aggregate"
)

// RankDependencies defines the interface for single-candidate reads.
type RankDependencies interface {
	Rank(ctx context.Context, positionID, candidateID string) (Entry, error)
	CandidateSkills(ctx context.Context, candidateID string) ([]aggregate.SkillScore, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /positions/{id}/candidates/{cid}/rank requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.Rank(r.Context(), r.PathValue("id"), r.PathValue("cid"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleGetCandidateSkills handles GET /candidates/{id}/skills requests.
func (h *RankHandler) HandleGetCandidateSkills(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	skills, err := h.deps.CandidateSkills(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if skills == nil {
		skills = []aggregate.SkillScore{}
	}
	writeJSON(w, http.StatusOK, skillsResponse{CandidateID: id, Skills: skills})
}
