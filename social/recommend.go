package social

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/linguamate/server/cache"
	"github.com/linguamate/server/config"
	"github.com/linguamate/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CandidateProfile is the structured profile data sent to the scorer.
type CandidateProfile struct {
	ID               int64    `json:"id"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	Hobbies          []string `json:"hobbies"`
	SpokenLanguages  []string `json:"spoken_languages"`
	DesiredLanguages []string `json:"desired_languages"`
}

// Scorer computes a similarity score between an owner and each candidate.
type Scorer interface {
	Score(ctx context.Context, ownerID int64, profiles []CandidateProfile) (map[int64]float64, error)
}

// Recommendation is one decorated entry of a member's candidate batch.
type Recommendation struct {
	CandidateID   int64    `json:"candidate_id"`
	Nickname      string   `json:"nickname"`
	Similarity    float64  `json:"similarity"`
	Opened        bool     `json:"opened"`
	SharedHobbies []string `json:"shared_hobbies"`
}

// RecommendService orchestrates candidate selection, external scoring,
// the 24h batch cache, and the per-member daily quota.
type RecommendService struct {
	db      *gorm.DB
	cache   cache.Cache
	friends *FriendshipService
	search  *SearchService
	scorer  Scorer
	logger  *zap.Logger
	cfg     config.RecommendConfig
}

// NewRecommendService creates a RecommendService.
func NewRecommendService(db *gorm.DB, c cache.Cache, friends *FriendshipService,
	search *SearchService, scorer Scorer, cfg config.RecommendConfig, logger *zap.Logger) *RecommendService {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 20
	}
	if cfg.BatchTTL <= 0 {
		cfg.BatchTTL = 24 * time.Hour
	}
	if cfg.ScorerTimeout <= 0 {
		cfg.ScorerTimeout = 10 * time.Second
	}
	return &RecommendService{
		db:      db,
		cache:   c,
		friends: friends,
		search:  search,
		scorer:  scorer,
		logger:  logger,
		cfg:     cfg,
	}
}

// HasFresh reports whether a non-stale candidate batch exists for the
// owner, without triggering regeneration.
func (s *RecommendService) HasFresh(ctx context.Context, ownerID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.FriendRecommend{}).
		Where("owner_id = ? AND generated_at > ?", ownerID, time.Now().Add(-s.cfg.BatchTTL)).
		Count(&n).Error
	return n > 0, err
}

// Get returns the owner's recommendations sorted by similarity descending.
// A fresh batch (generated within BatchTTL) is served as-is; an absent or
// stale batch triggers the generation pipeline.
func (s *RecommendService) Get(ctx context.Context, ownerID int64) ([]Recommendation, error) {
	rows, err := s.loadFresh(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return s.decorate(ctx, ownerID, rows)
	}
	return s.regenerate(ctx, ownerID)
}

func (s *RecommendService) loadFresh(ctx context.Context, ownerID int64) ([]model.FriendRecommend, error) {
	var rows []model.FriendRecommend
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND generated_at > ?", ownerID, time.Now().Add(-s.cfg.BatchTTL)).
		Order("similarity DESC, candidate_id").
		Find(&rows).Error
	return rows, err
}

// regenerate runs the pipeline: select candidates, score, swap the batch.
// The old batch is only deleted in the same transaction that inserts the
// new one, and only after the scorer succeeded, so a failed or slow
// scorer never leaves the owner with an empty or partial batch.
func (s *RecommendService) regenerate(ctx context.Context, ownerID int64) ([]Recommendation, error) {
	// Advisory lock so concurrent misses trigger one scorer call. If a
	// parallel regeneration just finished, serve its batch.
	lockKey := "lock:recommend:" + strconv.FormatInt(ownerID, 10)
	acquired, err := s.cache.SetNX(ctx, lockKey, "1", s.cfg.ScorerTimeout+5*time.Second)
	if err != nil {
		s.logger.Warn("recommend lock unavailable", zap.Error(err))
	}
	if acquired {
		defer func() {
			if err := s.cache.Del(context.Background(), lockKey); err != nil {
				s.logger.Warn("recommend lock release failed", zap.Error(err))
			}
		}()
	} else if err == nil {
		rows, err := s.loadFresh(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return s.decorate(ctx, ownerID, rows)
		}
	}

	excludeIDs, err := s.friends.FriendIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	excludeIDs = append(excludeIDs, ownerID)

	candidates, _, err := s.search.Search(ctx, Filter{}, Page{Index: 0, Size: s.cfg.CandidateLimit}, excludeIDs)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// Nothing to score; the previous batch, if any, stays untouched.
		return []Recommendation{}, nil
	}

	profiles, err := s.candidateProfiles(ctx, candidates)
	if err != nil {
		return nil, err
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.cfg.ScorerTimeout)
	defer cancel()
	scores, err := s.scorer.Score(scoreCtx, ownerID, profiles)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: empty score map", ErrUpstream)
	}

	now := time.Now()
	batch := make([]model.FriendRecommend, 0, len(scores))
	for _, c := range candidates {
		score, ok := scores[c.ID]
		if !ok {
			continue
		}
		batch = append(batch, model.FriendRecommend{
			OwnerID:     ownerID,
			CandidateID: c.ID,
			Similarity:  score,
			Opened:      false,
			GeneratedAt: now,
		})
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: score map references no candidate", ErrUpstream)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).
			Delete(&model.FriendRecommend{}).Error; err != nil {
			return err
		}
		return tx.Create(&batch).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recommendation batch regenerated",
		zap.Int64("owner_id", ownerID),
		zap.Int("candidates", len(batch)))

	sort.Slice(batch, func(i, j int) bool {
		if batch[i].Similarity != batch[j].Similarity {
			return batch[i].Similarity > batch[j].Similarity
		}
		return batch[i].CandidateID < batch[j].CandidateID
	})
	return s.decorate(ctx, ownerID, batch)
}

// candidateProfiles loads hobby and language tags for the candidate set.
func (s *RecommendService) candidateProfiles(ctx context.Context, members []model.Member) ([]CandidateProfile, error) {
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}

	hobbies, err := s.hobbiesByMember(ctx, ids)
	if err != nil {
		return nil, err
	}
	var langs []model.MemberLanguage
	if err := s.db.WithContext(ctx).Where("member_id IN ?", ids).Find(&langs).Error; err != nil {
		return nil, err
	}
	spoken := make(map[int64][]string)
	desired := make(map[int64][]string)
	for _, l := range langs {
		switch l.Kind {
		case model.LanguageSpoken:
			spoken[l.MemberID] = append(spoken[l.MemberID], l.Language)
		case model.LanguageDesired:
			desired[l.MemberID] = append(desired[l.MemberID], l.Language)
		}
	}

	profiles := make([]CandidateProfile, len(members))
	for i, m := range members {
		profiles[i] = CandidateProfile{
			ID:               m.ID,
			Age:              m.Age,
			Gender:           m.Gender,
			Hobbies:          hobbies[m.ID],
			SpokenLanguages:  spoken[m.ID],
			DesiredLanguages: desired[m.ID],
		}
	}
	return profiles, nil
}

func (s *RecommendService) hobbiesByMember(ctx context.Context, ids []int64) (map[int64][]string, error) {
	var rows []model.MemberHobby
	if err := s.db.WithContext(ctx).Where("member_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64][]string)
	for _, r := range rows {
		out[r.MemberID] = append(out[r.MemberID], r.Hobby)
	}
	return out, nil
}

// decorate turns stored batch rows into the response shape: nickname,
// opened flag, and the hobby tags shared with the owner. Rows arrive
// sorted by similarity descending and stay in that order.
func (s *RecommendService) decorate(ctx context.Context, ownerID int64, rows []model.FriendRecommend) ([]Recommendation, error) {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.CandidateID
	}

	var members []model.Member
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	nicknames := make(map[int64]string, len(members))
	for _, m := range members {
		nicknames[m.ID] = m.Nickname
	}

	ownerHobbies, err := s.hobbiesByMember(ctx, []int64{ownerID})
	if err != nil {
		return nil, err
	}
	mine := make(map[string]bool)
	for _, h := range ownerHobbies[ownerID] {
		mine[h] = true
	}

	candidateHobbies, err := s.hobbiesByMember(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, len(rows))
	for i, r := range rows {
		shared := []string{}
		for _, h := range candidateHobbies[r.CandidateID] {
			if mine[h] {
				shared = append(shared, h)
			}
		}
		sort.Strings(shared)
		out[i] = Recommendation{
			CandidateID:   r.CandidateID,
			Nickname:      nicknames[r.CandidateID],
			Similarity:    r.Similarity,
			Opened:        r.Opened,
			SharedHobbies: shared,
		}
	}
	return out, nil
}

// OpenProfile marks the cache entry for (owner, candidate) as opened.
func (s *RecommendService) OpenProfile(ctx context.Context, ownerID, candidateID int64) error {
	res := s.db.WithContext(ctx).Model(&model.FriendRecommend{}).
		Where("owner_id = ? AND candidate_id = ?", ownerID, candidateID).
		Update("opened", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: candidate %d is not in the batch of %d", ErrNotFound, candidateID, ownerID)
	}
	return nil
}

// CheckQuota returns the member's remaining regeneration allowance.
func (s *RecommendService) CheckQuota(ctx context.Context, memberID int64) (int, error) {
	var m model.Member
	err := s.db.WithContext(ctx).Select("id", "recommend_quota").First(&m, memberID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
		}
		return 0, err
	}
	return m.RecommendQuota, nil
}

// ConsumeQuota decrements the member's allowance if it is positive,
// reporting whether the decrement happened. The guarded UPDATE makes the
// check-and-decrement atomic; the counter never goes negative even under
// concurrent calls.
func (s *RecommendService) ConsumeQuota(ctx context.Context, memberID int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Member{}).
		Where("id = ? AND recommend_quota > 0", memberID).
		Update("recommend_quota", gorm.Expr("recommend_quota - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ResetQuotas restores every member's allowance to the daily quota.
// Called by the scheduler once a day.
func (s *RecommendService) ResetQuotas(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Member{}).
		Where("recommend_quota <> ?", s.cfg.DailyQuota).
		Update("recommend_quota", s.cfg.DailyQuota)
	return res.RowsAffected, res.Error
}

// PurgeStale deletes batches older than the TTL. They would never be
// served again; this keeps the table from growing without bound.
func (s *RecommendService) PurgeStale(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("generated_at <= ?", time.Now().Add(-s.cfg.BatchTTL)).
		Delete(&model.FriendRecommend{})
	return res.RowsAffected, res.Error
}
