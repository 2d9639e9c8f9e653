// Package model contains domain models passed between layers.
package model

import "time"

// MaxSkillScore is the upper bound of a single evaluated skill score.
const MaxSkillScore = 10.0

// Skill is a catalog entry referenced by positions and evaluations.
type Skill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Position is an open position candidates are ranked against.
// Years of experience and academic background are not modelled.
type Position struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	AllocatedPay          int64     `json:"allocated_pay"` // annual USD
	RequiredDateOfFilling time.Time `json:"required_date_of_filling"`
	RequiredSkills        []string  `json:"required_skills"`
	RequiredSkillWeights  []float64 `json:"required_skill_weights"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Text returns the text embedded for description similarity.
func (p *Position) Text() string {
	if p.Title == "" {
		return p.Description
	}
	return p.Title + ". " + p.Description
}

// SkillWeights returns the required skills as a skill id -> weight map.
func (p *Position) SkillWeights() map[string]float64 {
	out := make(map[string]float64, len(p.RequiredSkills))
	for i, id := range p.RequiredSkills {
		out[id] = p.RequiredSkillWeights[i]
	}
	return out
}

// Candidate is a person applying for positions. No age, gender or photo
// fields are kept.
type Candidate struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PhoneNumber        string    `json:"phone_number"`
	RecommendedBy      *string   `json:"recommended_by,omitempty"`
	DesiredPay         int64     `json:"desired_pay"` // annual USD
	SelfDescription    string    `json:"self_description"`
	DateOfAvailability time.Time `json:"date_of_availability"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Evaluation is an immutable interview outcome: a set of skill scores given
// to a candidate for a position.
type Evaluation struct {
	ID                   string    `json:"id"`
	CandidateID          string    `json:"candidate_id"`
	PositionID           string    `json:"position_id"`
	EvaluatedSkills      []string  `json:"evaluated_skills"`
	EvaluatedSkillScores []float64 `json:"evaluated_skill_scores"`
	InterviewerName      string    `json:"interviewer_name"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
