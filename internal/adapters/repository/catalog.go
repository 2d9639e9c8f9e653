package repository

import (
	"slices"
	"sort"
	"sync"

	"github.com/okian/candirank/internal/domain/model"
)

// PositionRecord is a stored position plus its description embedding.
// Embedder names the embedder that produced Vector.
type PositionRecord struct {
	Position model.Position `json:"position"`
	Vector   []float64      `json:"vector,omitempty"`
	Embedder string         `json:"embedder,omitempty"`
}

// CandidateRecord is a stored candidate plus its self-description embedding.
type CandidateRecord struct {
	Candidate model.Candidate `json:"candidate"`
	Vector    []float64       `json:"vector,omitempty"`
	Embedder  string          `json:"embedder,omitempty"`
}

// Catalog is the in-memory store of skills, positions, candidates and the
// append-only evaluation history. Getters return copies.
type Catalog struct {
	mu         sync.RWMutex
	skills     map[string]model.Skill
	positions  map[string]PositionRecord
	candidates map[string]CandidateRecord
	// history holds evaluations per candidate in arrival order.
	history map[string][]model.Evaluation
	evalIDs map[string]struct{}
	// applicants maps position id to the candidates evaluated for it.
	applicants  map[string]map[string]struct{}
	evaluations int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		skills:     make(map[string]model.Skill),
		positions:  make(map[string]PositionRecord),
		candidates: make(map[string]CandidateRecord),
		history:    make(map[string][]model.Evaluation),
		evalIDs:    make(map[string]struct{}),
		applicants: make(map[string]map[string]struct{}),
	}
}

// PutSkill inserts or replaces a skill.
func (c *Catalog) PutSkill(s model.Skill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skills[s.ID] = s
}

// Skill returns a skill by id.
func (c *Catalog) Skill(id string) (model.Skill, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.skills[id]
	return s, ok
}

// Skills returns all skills sorted by id.
func (c *Catalog) Skills() []model.Skill {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Skill, 0, len(c.skills))
	for _, s := range c.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PutPosition inserts or replaces a position.
func (c *Catalog) PutPosition(rec PositionRecord) {
	rec.Position.RequiredSkills = slices.Clone(rec.Position.RequiredSkills)
	rec.Position.RequiredSkillWeights = slices.Clone(rec.Position.RequiredSkillWeights)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions[rec.Position.ID] = rec
}

// Position returns a position record by id.
func (c *Catalog) Position(id string) (PositionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.positions[id]
	return rec, ok
}

// Positions returns all position records sorted by id.
func (c *Catalog) Positions() []PositionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PositionRecord, 0, len(c.positions))
	for _, p := range c.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position.ID < out[j].Position.ID })
	return out
}

// PutCandidate inserts or replaces a candidate.
func (c *Catalog) PutCandidate(rec CandidateRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candidates[rec.Candidate.ID] = rec
}

// Candidate returns a candidate record by id.
func (c *Catalog) Candidate(id string) (CandidateRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.candidates[id]
	return rec, ok
}

// Candidates returns all candidate records sorted by id.
func (c *Catalog) Candidates() []CandidateRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CandidateRecord, 0, len(c.candidates))
	for _, rec := range c.candidates {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Candidate.ID < out[j].Candidate.ID })
	return out
}

// AppendEvaluation adds an evaluation to the candidate's history. Returns
// false if an evaluation with the same id was already appended.
func (c *Catalog) AppendEvaluation(e model.Evaluation) bool {
	e.EvaluatedSkills = slices.Clone(e.EvaluatedSkills)
	e.EvaluatedSkillScores = slices.Clone(e.EvaluatedSkillScores)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.evalIDs[e.ID]; dup {
		return false
	}
	c.evalIDs[e.ID] = struct{}{}
	c.history[e.CandidateID] = append(c.history[e.CandidateID], e)
	set, ok := c.applicants[e.PositionID]
	if !ok {
		set = make(map[string]struct{})
		c.applicants[e.PositionID] = set
	}
	set[e.CandidateID] = struct{}{}
	c.evaluations++
	return true
}

// HasEvaluation reports whether an evaluation id was already appended.
func (c *Catalog) HasEvaluation(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.evalIDs[id]
	return ok
}

// History returns a copy of the candidate's evaluations in arrival order.
func (c *Catalog) History(candidateID string) []model.Evaluation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.history[candidateID])
}

// Applicants returns the sorted ids of candidates evaluated for a position.
func (c *Catalog) Applicants(positionID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := c.applicants[positionID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsApplicant reports whether the candidate has been evaluated for a position.
func (c *Catalog) IsApplicant(positionID, candidateID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.applicants[positionID][candidateID]
	return ok
}

// PositionsFor returns the sorted ids of positions the candidate applied to.
func (c *Catalog) PositionsFor(candidateID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for pid, set := range c.applicants {
		if _, ok := set[candidateID]; ok {
			out = append(out, pid)
		}
	}
	sort.Strings(out)
	return out
}

// Counts is a snapshot of catalog sizes.
type Counts struct {
	Skills      int `json:"skills"`
	Positions   int `json:"positions"`
	Candidates  int `json:"candidates"`
	Evaluations int `json:"evaluations"`
}

// Counts returns the number of stored records of each kind.
func (c *Catalog) Counts() Counts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Counts{
		Skills:      len(c.skills),
		Positions:   len(c.positions),
		Candidates:  len(c.candidates),
		Evaluations: c.evaluations,
	}
}
