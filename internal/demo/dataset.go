// Package demo seeds a small hiring scenario into the ranking service and
// prints the resulting position ranking, either in-process or over HTTP.
package demo

import (
	"time"

	"github.com/okian/candirank/internal/domain/model"
)

// Dataset is a complete set of records to seed.
type Dataset struct {
	Skills      []model.Skill      `json:"skills"`
	Positions   []model.Position   `json:"positions"`
	Candidates  []model.Candidate  `json:"candidates"`
	Evaluations []model.Evaluation `json:"evaluations"`
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Default returns the built-in scenario: one frontend position, two
// candidates and one interview each.
func Default() Dataset {
	return Dataset{
		Skills: []model.Skill{
			{ID: "skill1", Name: "Team player"},
			{ID: "skill2", Name: "Frontend technologies"},
			{ID: "skill3", Name: "Culture fit"},
			{ID: "skill4", Name: "Leadership"},
		},
		Positions: []model.Position{
			{
				ID:    "position1",
				Title: "Senior Frontend Developer",
				Description: "We are looking for a skilled frontend developer to join our team. " +
					"Must be proficient in JavaScript, React, and CSS.",
				AllocatedPay:          120000,
				RequiredDateOfFilling: date(2025, time.December, 1),
				RequiredSkills:        []string{"skill1", "skill2", "skill3"},
				RequiredSkillWeights:  []float64{0.2, 0.5, 0.3},
			},
		},
		Candidates: []model.Candidate{
			{
				ID:                 "candidate1",
				Name:               "Alice Johnson",
				Email:              "Alice@gmail.com",
				PhoneNumber:        "555-1234",
				DesiredPay:         115000,
				SelfDescription:    "Experienced frontend developer with a passion for creating user-friendly web applications.",
				DateOfAvailability: date(2025, time.November, 15),
			},
			{
				ID:                 "candidate2",
				Name:               "Bob Smith",
				Email:              "Bob@gmail.com",
				PhoneNumber:        "555-5678",
				DesiredPay:         125000,
				SelfDescription:    "Seasoned developer with expertise in React and a strong focus on team collaboration.",
				DateOfAvailability: date(2025, time.December, 5),
			},
		},
		Evaluations: []model.Evaluation{
			{
				ID:                   "eval1",
				CandidateID:          "candidate1",
				PositionID:           "position1",
				EvaluatedSkills:      []string{"skill1", "skill2", "skill3"},
				EvaluatedSkillScores: []float64{8, 9, 7},
				InterviewerName:      "Carol",
			},
			{
				ID:                   "eval2",
				CandidateID:          "candidate2",
				PositionID:           "position1",
				EvaluatedSkills:      []string{"skill1", "skill2", "skill3"},
				EvaluatedSkillScores: []float64{7, 8, 9},
				InterviewerName:      "Dave",
			},
		},
	}
}

// Names maps candidate id to name.
func (d *Dataset) Names() map[string]string {
	out := make(map[string]string, len(d.Candidates))
	for _, c := range d.Candidates {
		out[c.ID] = c.Name
	}
	return out
}

// Position returns the dataset position with the given id.
func (d *Dataset) Position(id string) (model.Position, bool) {
	for _, p := range d.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return model.Position{}, false
}
