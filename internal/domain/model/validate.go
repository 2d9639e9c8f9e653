package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation failure in this package.
var ErrInvalid = errors.New("invalid record")

func invalid(kind, id, format string, args ...any) error {
	return fmt.Errorf("%w: %s %q: %s", ErrInvalid, kind, id, fmt.Sprintf(format, args...))
}

// Validate checks the skill record.
func (s *Skill) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return invalid("skill", s.ID, "missing id")
	}
	if strings.TrimSpace(s.Name) == "" {
		return invalid("skill", s.ID, "missing name")
	}
	return nil
}

// Validate checks the position record.
func (p *Position) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return invalid("position", p.ID, "missing id")
	case strings.TrimSpace(p.Title) == "":
		return invalid("position", p.ID, "missing title")
	case p.AllocatedPay < 0:
		return invalid("position", p.ID, "allocated_pay must not be negative")
	case p.RequiredDateOfFilling.IsZero():
		return invalid("position", p.ID, "missing required_date_of_filling")
	case len(p.RequiredSkills) == 0:
		return invalid("position", p.ID, "missing required_skills")
	case len(p.RequiredSkills) != len(p.RequiredSkillWeights):
		return invalid("position", p.ID, "required_skills has %d entries but required_skill_weights has %d",
			len(p.RequiredSkills), len(p.RequiredSkillWeights))
	}
	seen := make(map[string]struct{}, len(p.RequiredSkills))
	sum := 0.0
	for i, id := range p.RequiredSkills {
		if _, dup := seen[id]; dup {
			return invalid("position", p.ID, "duplicate required skill %q", id)
		}
		seen[id] = struct{}{}
		w := p.RequiredSkillWeights[i]
		if w < 0 {
			return invalid("position", p.ID, "negative weight for skill %q", id)
		}
		sum += w
	}
	if sum <= 0 {
		return invalid("position", p.ID, "required_skill_weights must have a positive sum")
	}
	return nil
}

// Validate checks the candidate record.
func (c *Candidate) Validate() error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return invalid("candidate", c.ID, "missing id")
	case strings.TrimSpace(c.Name) == "":
		return invalid("candidate", c.ID, "missing name")
	case c.DesiredPay < 0:
		return invalid("candidate", c.ID, "desired_pay must not be negative")
	case c.DateOfAvailability.IsZero():
		return invalid("candidate", c.ID, "missing date_of_availability")
	}
	return nil
}

// Validate checks the evaluation record in isolation. Referential checks
// (known candidate, position and skills) are done by the service.
func (e *Evaluation) Validate() error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return invalid("evaluation", e.ID, "missing id")
	case strings.TrimSpace(e.CandidateID) == "":
		return invalid("evaluation", e.ID, "missing candidate_id")
	case strings.TrimSpace(e.PositionID) == "":
		return invalid("evaluation", e.ID, "missing position_id")
	case e.CreatedAt.IsZero():
		return invalid("evaluation", e.ID, "missing created_at")
	case len(e.EvaluatedSkills) == 0:
		return invalid("evaluation", e.ID, "missing evaluated_skills")
	case len(e.EvaluatedSkills) != len(e.EvaluatedSkillScores):
		return invalid("evaluation", e.ID, "evaluated_skills has %d entries but evaluated_skill_scores has %d",
			len(e.EvaluatedSkills), len(e.EvaluatedSkillScores))
	}
	seen := make(map[string]struct{}, len(e.EvaluatedSkills))
	for i, id := range e.EvaluatedSkills {
		if _, dup := seen[id]; dup {
			return invalid("evaluation", e.ID, "duplicate evaluated skill %q", id)
		}
		seen[id] = struct{}{}
		if s := e.EvaluatedSkillScores[i]; s < 0 || s > MaxSkillScore {
			return invalid("evaluation", e.ID, "score %v for skill %q outside [0, %v]", s, id, MaxSkillScore)
		}
	}
	return nil
}
