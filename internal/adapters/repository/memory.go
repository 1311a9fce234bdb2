package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/metrics"
)

// MemoryStore keeps all state in maps behind one RWMutex. ReplaceForGig
// swaps a gig's result set under the write lock, so readers see either the
// previous set or the new one.
type MemoryStore struct {
	mu      sync.RWMutex
	gigs    map[string]model.GigRequirement
	talents map[string]model.TalentProfile
	results map[string][]model.MatchResult // by gig id, rank order

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	closeOnce             sync.Once
}

// NewMemoryStore constructs an empty store and starts the metrics updater,
// which stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		gigs:                  make(map[string]model.GigRequirement),
		talents:               make(map[string]model.TalentProfile),
		results:               make(map[string][]model.MatchResult),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	talents, gigs := len(s.talents), len(s.gigs)
	s.mu.RUnlock()

	metrics.UpdateTotalTalents(talents)
	metrics.UpdateTotalGigs(gigs)
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// PutGig implements Store.
func (s *MemoryStore) PutGig(_ context.Context, g model.GigRequirement) error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("%w: gig id is empty", ErrInvalidRecord)
	}
	s.mu.Lock()
	s.gigs[g.ID] = cloneGig(g)
	s.mu.Unlock()
	return nil
}

// PutTalent implements Store.
func (s *MemoryStore) PutTalent(_ context.Context, t model.TalentProfile) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: talent id is empty", ErrInvalidRecord)
	}
	s.mu.Lock()
	s.talents[t.ID] = cloneTalent(t)
	s.mu.Unlock()
	return nil
}

// Counts implements Store.
func (s *MemoryStore) Counts(context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.talents), len(s.gigs), nil
}

// Gig implements ranking.GigRepository.
func (s *MemoryStore) Gig(_ context.Context, id string) (model.GigRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gigs[id]
	if !ok {
		return model.GigRequirement{}, fmt.Errorf("gig %q: %w", id, ErrNotFound)
	}
	return cloneGig(g), nil
}

// Talents implements ranking.TalentRepository.
func (s *MemoryStore) Talents(_ context.Context, limit int) ([]model.TalentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.talents))
	for id := range s.talents {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]model.TalentProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneTalent(s.talents[id]))
	}
	return out, nil
}

// ReplaceForGig implements ranking.ResultRepository.
func (s *MemoryStore) ReplaceForGig(_ context.Context, gigID string, results []model.MatchResult) error {
	for _, r := range results {
		if r.GigID != gigID {
			return fmt.Errorf("%w: %s in replace for %s", ErrMixedGig, r.GigID, gigID)
		}
	}
	next := slices.Clone(results)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(next) == 0 {
		delete(s.results, gigID)
		return nil
	}
	s.results[gigID] = next
	return nil
}

// ResultsForGig implements ranking.ResultRepository.
func (s *MemoryStore) ResultsForGig(_ context.Context, gigID string) ([]model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.results[gigID])
	slices.SortFunc(out, func(a, b model.MatchResult) int { return cmp.Compare(a.Rank, b.Rank) })
	return out, nil
}

// ResultsForTalent implements ranking.ResultRepository.
func (s *MemoryStore) ResultsForTalent(_ context.Context, talentID string) ([]model.MatchResult, error) {
	s.mu.RLock()
	var out []model.MatchResult
	for _, rs := range s.results {
		for _, r := range rs {
			if r.TalentID == talentID {
				out = append(out, r)
			}
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.MatchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.GigID, b.GigID)
	})
	return out, nil
}

func cloneGig(g model.GigRequirement) model.GigRequirement {
	g.RequiredSkills = slices.Clone(g.RequiredSkills)
	return g
}

func cloneTalent(t model.TalentProfile) model.TalentProfile {
	t.Skills = slices.Clone(t.Skills)
	t.Portfolio = slices.Clone(t.Portfolio)
	return t
}
