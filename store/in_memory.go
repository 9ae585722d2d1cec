package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/deliberate/core"
)

// InMemoryStore is a volatile Gateway implementation storing discussions in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo runs. Loaded discussions are cloned to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu          sync.RWMutex
	discussions map[string]*core.Discussion
	roundOwner  map[string]string // round id -> discussion id
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		discussions: make(map[string]*core.Discussion),
		roundOwner:  make(map[string]string),
	}
}

// CreateDiscussion implements Gateway.
func (s *InMemoryStore) CreateDiscussion(_ context.Context, d *core.Discussion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.discussions[d.ID]; ok {
		return fmt.Errorf("discussion %s already exists", d.ID)
	}
	s.discussions[d.ID] = cloneDiscussion(d)
	return nil
}

// CreateRound implements Gateway.
func (s *InMemoryStore) CreateRound(_ context.Context, r *core.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discussions[r.DiscussionID]
	if !ok {
		return fmt.Errorf("create round: %w", ErrNotFound)
	}
	round := *r
	round.Responses = nil
	d.Rounds = append(d.Rounds, round)
	s.roundOwner[r.ID] = r.DiscussionID
	return nil
}

// StoreResponse implements Gateway.
func (s *InMemoryStore) StoreResponse(_ context.Context, roundID string, resp core.ParticipantResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, err := s.findRoundLocked(roundID)
	if err != nil {
		return err
	}
	round.Responses = append(round.Responses, resp)
	return nil
}

// UpdateRoundScore implements Gateway.
func (s *InMemoryStore) UpdateRoundScore(_ context.Context, roundID string, similarity float64, consensusReached bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, err := s.findRoundLocked(roundID)
	if err != nil {
		return err
	}
	round.Similarity = similarity
	round.ConsensusReached = consensusReached
	return nil
}

// CompleteDiscussion implements Gateway.
func (s *InMemoryStore) CompleteDiscussion(_ context.Context, discussionID string, status core.Status, finalAnswer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discussions[discussionID]
	if !ok {
		return fmt.Errorf("complete discussion: %w", ErrNotFound)
	}
	d.Complete(status, finalAnswer)
	return nil
}

// LoadDiscussion implements Gateway.
func (s *InMemoryStore) LoadDiscussion(_ context.Context, discussionID string) (*core.Discussion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.discussions[discussionID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDiscussion(d), nil
}

// ListDiscussions implements Gateway.
func (s *InMemoryStore) ListDiscussions(_ context.Context, limit int) ([]*core.Discussion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Discussion, 0, len(s.discussions))
	for _, d := range s.discussions {
		clone := cloneDiscussion(d)
		clone.Rounds = nil
		out = append(out, clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements Gateway.
func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) findRoundLocked(roundID string) (*core.Round, error) {
	discussionID, ok := s.roundOwner[roundID]
	if !ok {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	d := s.discussions[discussionID]
	for i := range d.Rounds {
		if d.Rounds[i].ID == roundID {
			return &d.Rounds[i], nil
		}
	}
	return nil, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
}

func cloneDiscussion(d *core.Discussion) *core.Discussion {
	clone := *d
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		clone.CompletedAt = &t
	}
	clone.Rounds = make([]core.Round, len(d.Rounds))
	for i, r := range d.Rounds {
		round := r
		round.Responses = append([]core.ParticipantResponse(nil), r.Responses...)
		clone.Rounds[i] = round
	}
	return &clone
}
