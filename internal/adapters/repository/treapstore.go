package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/candirank/internal/domain/scoring"
	"github.com/okian/candirank/pkg/metrics"
)

// Treap-based, in-memory Ranking implementation with one treap per position.
//
// Ordering: score DESC, then candidateID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the ranking from
// best to worst. Subtree sizes make Rank O(log n).

// scoreScale controls fixed-point scaling from float64. Scores live in
// [0, 100], so nine decimal places cannot overflow.
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled > math.MaxInt64 {
		return scoreFP(math.MaxInt64)
	}
	if scaled < math.MinInt64 {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// record stores the fixed-point score plus the breakdown for a candidate.
type record struct {
	score     scoreFP
	breakdown scoring.Breakdown
	updatedAt time.Time
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBefore returns how many nodes order strictly before (score, id).
func countBefore(n *node, score scoreFP, id string) int {
	count := 0
	for n != nil {
		if less(n.score, n.id, score, id) {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		rec := records[n.id]
		*out = append(*out, Entry{
			CandidateID: n.id,
			Score:       toFloat(rec.score),
			Breakdown:   rec.breakdown,
			UpdatedAt:   rec.updatedAt,
		})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// leaderboard is the ranking of one position.
type leaderboard struct {
	root *node
	byID map[string]record
}

// TreapStore implements Ranking. A single RWMutex guards all positions;
// writes are rare relative to reads.
type TreapStore struct {
	mu     sync.RWMutex
	boards map[string]*leaderboard
	now    func() time.Time
}

// NewTreapStore constructs an empty ranking store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		boards: make(map[string]*leaderboard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert implements Ranking.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, positionID, candidateID string, score float64, breakdown scoring.Breakdown) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	ns := toFixedPoint(score)

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[positionID]
	if !ok {
		b = &leaderboard{byID: make(map[string]record)}
		s.boards[positionID] = b
	}
	if old, ok := b.byID[candidateID]; ok {
		b.root = deleteNode(b.root, candidateID, old.score)
	}
	b.byID[candidateID] = record{score: ns, breakdown: breakdown, updatedAt: s.now()}
	b.root = insert(b.root, candidateID, ns, rand.Uint64()) //nolint:gosec // treap priorities need no crypto randomness
	metrics.UpdateRankedCandidates(positionID, len(b.byID))
	return nil
}

// Remove drops the candidate from the position's ranking. Returns false
// if the candidate was not ranked.
func (s *TreapStore) Remove(_ context.Context, positionID, candidateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[positionID]
	if !ok {
		return false
	}
	old, ok := b.byID[candidateID]
	if !ok {
		return false
	}
	b.root = deleteNode(b.root, candidateID, old.score)
	delete(b.byID, candidateID)
	metrics.UpdateRankedCandidates(positionID, len(b.byID))
	return true
}

// Rank returns the current rank and score for a candidate in O(log n).
// Equal scores share a rank (competition ranking: 1, 1, 3).
func (s *TreapStore) Rank(_ context.Context, positionID, candidateID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[positionID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	rec, ok := b.byID[candidateID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	// No id orders before "", so this counts strictly higher scores.
	higher := countBefore(b.root, rec.score, "")
	return Entry{
		Rank:        higher + 1,
		CandidateID: candidateID,
		Score:       toFloat(rec.score),
		Breakdown:   rec.breakdown,
		UpdatedAt:   rec.updatedAt,
	}, nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(_ context.Context, positionID string, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[positionID]
	if !ok {
		return []Entry{}, nil
	}
	out := make([]Entry, 0, min(n, len(b.byID)))
	collectTopN(b.root, n, b.byID, &out)
	AssignRanks(out)
	return out, nil
}

// Count returns the number of candidates ranked for a position.
func (s *TreapStore) Count(_ context.Context, positionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.boards[positionID]; ok {
		return len(b.byID)
	}
	return 0
}

// Total returns the number of ranked (position, candidate) pairs.
func (s *TreapStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, b := range s.boards {
		total += len(b.byID)
	}
	return total
}

// AssignRanks sets competition ranks on entries already sorted by score
// desc: equal scores share a rank and the next rank skips accordingly.
func AssignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
