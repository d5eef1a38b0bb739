package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/heartwire/heartwire/internal/compat"
	"github.com/heartwire/heartwire/internal/monitoring"
	"github.com/heartwire/heartwire/internal/profiles"
)

// scanWorkers bounds the number of goroutines scoring a candidate batch.
// Scoring is pure, so pairs can be scored in parallel without coordination.
const scanWorkers = 8

// maxCandidateScan caps how many stored profiles one scan pulls from the
// repository.
const maxCandidateScan = 500

// Match pairs a candidate profile with its compatibility result.
type Match struct {
	ProfileID   string        `json:"profile_id"`
	DisplayName string        `json:"display_name"`
	Result      compat.Result `json:"result"`
}

// CandidateResponse is the payload for a candidate scan.
type CandidateResponse struct {
	ProfileID string    `json:"profile_id"`
	Matches   []Match   `json:"matches"`
	Scanned   int       `json:"scanned"`
	CreatedAt time.Time `json:"created_at"`
}

// Service scores a profile against stored candidates and ranks the results.
type Service struct {
	repo    *profiles.Repository
	cache   *MatchCache
	weights compat.Weights
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewService creates a matching service with the reference weight table.
func NewService(repo *profiles.Repository, metrics *monitoring.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   NewMatchCache(15 * time.Minute),
		weights: compat.DefaultWeights(),
		metrics: metrics,
		logger:  monitoring.NewLogger(),
	}
}

// NewServiceWithWeights creates a matching service with a custom weight table.
func NewServiceWithWeights(repo *profiles.Repository, metrics *monitoring.Metrics, weights compat.Weights) *Service {
	s := NewService(repo, metrics)
	s.weights = weights
	return s
}

// Cache exposes the scan cache for stats endpoints.
func (s *Service) Cache() *MatchCache {
	return s.cache
}

// TopCandidates scores the given profile against stored candidates and
// returns the best limit matches by overall similarity. Results are cached;
// a scan also appends to match history so repeated pairings are auditable.
func (s *Service) TopCandidates(ctx context.Context, profileID string, limit int) (*CandidateResponse, error) {
	if cached, found := s.cache.GetCandidates(profileID, limit); found {
		s.logger.CacheLogger("get", profileID, true, s.cache.Size())
		return cached, nil
	}

	start := time.Now()

	profile, err := s.repo.GetProfile(profileID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.ListCandidates(profileID, maxCandidateScan)
	if err != nil {
		return nil, err
	}

	matches := s.scoreCandidates(ctx, profile, candidates)

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Result.Overall != matches[j].Result.Overall {
			return matches[i].Result.Overall > matches[j].Result.Overall
		}
		return matches[i].ProfileID < matches[j].ProfileID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	response := &CandidateResponse{
		ProfileID: profileID,
		Matches:   matches,
		Scanned:   len(candidates),
		CreatedAt: time.Now(),
	}

	s.cache.SetCandidates(profileID, limit, response)

	if s.metrics != nil {
		s.metrics.IncrementCandidateScans()
		s.metrics.AddPairsScored(int64(len(candidates)))
	}

	// Persist the returned matches asynchronously; history is best-effort
	// and must not block the response.
	go s.recordMatches(profileID, matches)

	s.logger.MatchScanLogger(profileID, len(candidates), len(matches), time.Since(start))

	return response, nil
}

// scoreCandidates fans the candidate batch out over a bounded worker pool.
func (s *Service) scoreCandidates(ctx context.Context, profile *profiles.StoredProfile, candidates []*profiles.StoredProfile) []Match {
	if len(candidates) == 0 {
		return []Match{}
	}

	workers := scanWorkers
	if len(candidates) < workers {
		workers = len(candidates)
	}

	jobs := make(chan *profiles.StoredProfile)
	results := make([]Match, 0, len(candidates))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for candidate := range jobs {
				result := compat.Score(profile.Attributes, candidate.Attributes, s.weights)
				if s.metrics != nil {
					s.metrics.IncrementScoresComputed()
				}

				mu.Lock()
				results = append(results, Match{
					ProfileID:   candidate.ID,
					DisplayName: candidate.DisplayName,
					Result:      result,
				})
				mu.Unlock()
			}
		}()
	}

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			// Stop feeding on cancellation; in-flight scores finish.
			close(jobs)
			wg.Wait()
			return results
		case jobs <- candidate:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// recordMatches appends scored pairs to match history.
func (s *Service) recordMatches(profileID string, matches []Match) {
	for _, match := range matches {
		record := profiles.NewMatchRecord(profileID, match.ProfileID, match.Result)
		if err := s.repo.SaveMatch(record); err != nil {
			s.logger.Error("Failed to save match record", "error", err, "profile_id", profileID, "candidate_id", match.ProfileID)
		}
	}
}

// History returns the most recent stored matches for a profile.
func (s *Service) History(profileID string, limit int) ([]*profiles.MatchRecord, error) {
	return s.repo.RecentMatches(profileID, limit)
}
