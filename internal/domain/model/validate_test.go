package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/candirank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func validPosition() model.Position {
	return model.Position{
		ID:                    "position1",
		Title:                 "Senior Frontend Developer",
		Description:           "React and CSS",
		AllocatedPay:          120000,
		RequiredDateOfFilling: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		RequiredSkills:        []string{"skill1", "skill2"},
		RequiredSkillWeights:  []float64{0.4, 0.6},
	}
}

func validEvaluation() model.Evaluation {
	return model.Evaluation{
		ID:                   "eval1",
		CandidateID:          "candidate1",
		PositionID:           "position1",
		EvaluatedSkills:      []string{"skill1", "skill2"},
		EvaluatedSkillScores: []float64{8, 9},
		InterviewerName:      "Carol",
		CreatedAt:            time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPosition_Validate(t *testing.T) {
	Convey("Given a position", t, func() {
		p := validPosition()

		Convey("When it is well formed", func() {
			So(p.Validate(), ShouldBeNil)
		})

		Convey("When skills and weights differ in length", func() {
			p.RequiredSkillWeights = []float64{1}
			err := p.Validate()
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "required_skill_weights has 1")
		})

		Convey("When a skill is listed twice", func() {
			p.RequiredSkills = []string{"skill1", "skill1"}
			So(errors.Is(p.Validate(), model.ErrInvalid), ShouldBeTrue)
		})

		Convey("When all weights are zero", func() {
			p.RequiredSkillWeights = []float64{0, 0}
			So(errors.Is(p.Validate(), model.ErrInvalid), ShouldBeTrue)
		})

		Convey("When the pay is negative", func() {
			p.AllocatedPay = -1
			So(errors.Is(p.Validate(), model.ErrInvalid), ShouldBeTrue)
		})

		Convey("Then SkillWeights pairs skills with weights", func() {
			So(p.SkillWeights(), ShouldResemble, map[string]float64{"skill1": 0.4, "skill2": 0.6})
		})

		Convey("Then Text prefixes the title", func() {
			So(p.Text(), ShouldEqual, "Senior Frontend Developer. React and CSS")
		})
	})
}

func TestCandidate_Validate(t *testing.T) {
	Convey("Given a candidate", t, func() {
		c := model.Candidate{
			ID:                 "candidate1",
			Name:               "Alice Johnson",
			DesiredPay:         115000,
			DateOfAvailability: time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		}
		So(c.Validate(), ShouldBeNil)

		Convey("When the availability date is missing", func() {
			c.DateOfAvailability = time.Time{}
			So(errors.Is(c.Validate(), model.ErrInvalid), ShouldBeTrue)
		})

		Convey("When the name is blank", func() {
			c.Name = "  "
			So(errors.Is(c.Validate(), model.ErrInvalid), ShouldBeTrue)
		})
	})
}

func TestEvaluation_Validate(t *testing.T) {
	Convey("Given an evaluation", t, func() {
		e := validEvaluation()
		So(e.Validate(), ShouldBeNil)

		Convey("When a score is above the maximum", func() {
			e.EvaluatedSkillScores[1] = model.MaxSkillScore + 1
			So(errors.Is(e.Validate(), model.ErrInvalid), ShouldBeTrue)
		})

		Convey("When a score is negative", func() {
			e.EvaluatedSkillScores[0] = -0.5
			So(errors.Is(e.Validate(), model.ErrInvalid), ShouldBeTrue)
		})

		Convey("When the scores do not line up with skills", func() {
			e.EvaluatedSkillScores = e.EvaluatedSkillScores[:1]
			So(errors.Is(e.Validate(), model.ErrInvalid), ShouldBeTrue)
		})

		Convey("When the timestamp is missing", func() {
			e.CreatedAt = time.Time{}
			So(errors.Is(e.Validate(), model.ErrInvalid), ShouldBeTrue)
		})
	})

	Convey("Given a skill without a name", t, func() {
		s := model.Skill{ID: "skill1"}
		So(errors.Is(s.Validate(), model.ErrInvalid), ShouldBeTrue)
	})
}
