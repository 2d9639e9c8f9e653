package api

import (
	"context"
	"net/http"

	"github.com/okian/candirank/internal/domain/model"
)

// RecordsDependencies defines the record upsert and lookup operations.
type RecordsDependencies interface {
	PutSkills(ctx context.Context, skills []model.Skill) (int, error)
	PutPositions(ctx context.Context, positions []model.Position) (int, error)
	PutCandidates(ctx context.Context, candidates []model.Candidate) (int, error)
	Skills() []model.Skill
	Position(id string) (model.Position, error)
	Candidate(id string) (model.Candidate, error)
}

// RecordsHandler handles skill, position and candidate requests.
type RecordsHandler struct {
	deps RecordsDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordsDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandlePutSkills handles PUT /skills requests.
func (h *RecordsHandler) HandlePutSkills(w http.ResponseWriter, r *http.Request) {
	var skills []model.Skill
	if err := decodeJSON(w, r, "api.put_skills", &skills); err != nil {
		writeServiceError(w, err)
		return
	}
	n, err := h.deps.PutSkills(r.Context(), skills)
	respondStored(w, n, err)
}

// HandlePutPositions handles PUT /positions requests.
func (h *RecordsHandler) HandlePutPositions(w http.ResponseWriter, r *http.Request) {
	var positions []model.Position
	if err := decodeJSON(w, r, "api.put_positions", &positions); err != nil {
		writeServiceError(w, err)
		return
	}
	n, err := h.deps.PutPositions(r.Context(), positions)
	respondStored(w, n, err)
}

// HandlePutCandidates handles PUT /candidates requests.
func (h *RecordsHandler) HandlePutCandidates(w http.ResponseWriter, r *http.Request) {
	var candidates []model.Candidate
	if err := decodeJSON(w, r, "api.put_candidates", &candidates); err != nil {
		writeServiceError(w, err)
		return
	}
	n, err := h.deps.PutCandidates(r.Context(), candidates)
	respondStored(w, n, err)
}

// HandleGetSkills handles GET /skills requests.
func (h *RecordsHandler) HandleGetSkills(w http.ResponseWriter, _ *http.Request) {
	skills := h.deps.Skills()
	if skills == nil {
		skills = []model.Skill{}
	}
	writeJSON(w, http.StatusOK, skills)
}

// HandleGetPosition handles GET /positions/{id} requests.
func (h *RecordsHandler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Position(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGetCandidate handles GET /candidates/{id} requests.
func (h *RecordsHandler) HandleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Candidate(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// respondStored reports how many records of a batch were stored.
func respondStored(w http.ResponseWriter, n int, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Stored: n})
}
