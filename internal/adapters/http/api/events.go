package api

import (
	"context"
	"net/http"

	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/internal/domain/model"
)

// EvaluationDependencies defines the interface for evaluation intake.
type EvaluationDependencies interface {
	SubmitEvaluation(ctx context.Context, e model.Evaluation) (service.Submission, error)
}

// EvaluationsHandler handles evaluation requests.
type EvaluationsHandler struct {
	deps EvaluationDependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationDependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandlePostEvaluation handles POST /evaluations requests. New evaluations
// are acknowledged with 202, already-seen ids with 200.
func (h *EvaluationsHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluation"
	var e model.Evaluation
	if err := decodeJSON(w, r, op, &e); err != nil {
		writeServiceError(w, err)
		return
	}
	sub, err := h.deps.SubmitEvaluation(r.Context(), e)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusAccepted
	if sub.Status == service.StatusDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, sub)
}
