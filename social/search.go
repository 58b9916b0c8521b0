package social

import (
	"context"
	"fmt"

	"github.com/linguamate/server/model"
	"gorm.io/gorm"
)

// Filter is the composable profile predicate set. Zero-valued fields are
// omitted from the conjunction; all supplied fields are AND-combined.
type Filter struct {
	Hobby           string
	SpokenLanguage  string
	DesiredLanguage string
	MinAge          *int
	MaxAge          *int
	Gender          string
}

// Validate rejects a one-sided age range: MinAge and MaxAge must be
// supplied together or not at all.
func (f Filter) Validate() error {
	if (f.MinAge == nil) != (f.MaxAge == nil) {
		return fmt.Errorf("%w: age range requires both min_age and max_age", ErrValidation)
	}
	if f.MinAge != nil && *f.MinAge > *f.MaxAge {
		return fmt.Errorf("%w: min_age exceeds max_age", ErrValidation)
	}
	return nil
}

// apply appends the filter predicates to a query over the members table.
// Tag predicates use EXISTS subqueries so a member with several matching
// tags still appears exactly once.
func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Hobby != "" {
		q = q.Where("EXISTS (SELECT 1 FROM member_hobbies WHERE member_hobbies.member_id = members.id AND member_hobbies.hobby = ?)",
			f.Hobby)
	}
	if f.SpokenLanguage != "" {
		q = q.Where("EXISTS (SELECT 1 FROM member_languages WHERE member_languages.member_id = members.id AND member_languages.kind = ? AND member_languages.language = ?)",
			model.LanguageSpoken, f.SpokenLanguage)
	}
	if f.DesiredLanguage != "" {
		q = q.Where("EXISTS (SELECT 1 FROM member_languages WHERE member_languages.member_id = members.id AND member_languages.kind = ? AND member_languages.language = ?)",
			model.LanguageDesired, f.DesiredLanguage)
	}
	if f.MinAge != nil && f.MaxAge != nil {
		q = q.Where("members.age BETWEEN ? AND ?", *f.MinAge, *f.MaxAge)
	}
	if f.Gender != "" {
		q = q.Where("members.gender = ?", f.Gender)
	}
	return q
}

// Page is a zero-based page request. Offset = Index * Size.
type Page struct {
	Index int
	Size  int
}

const defaultPageSize = 10

func (p Page) normalized() Page {
	if p.Index < 0 {
		p.Index = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	return p
}

// SearchService is the filtered member lookup. It excludes no one by
// default; callers needing self or friend exclusion pass excludeIDs.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a SearchService.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search returns members matching the filter, paginated, with the total
// match count.
func (s *SearchService) Search(ctx context.Context, f Filter, p Page, excludeIDs []int64) ([]model.Member, int64, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	p = p.normalized()

	q := s.db.WithContext(ctx).Model(&model.Member{}).Where("members.status = 1")
	q = f.apply(q)
	if len(excludeIDs) > 0 {
		q = q.Where("members.id NOT IN ?", excludeIDs)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []model.Member
	err := q.Order("members.id").
		Offset(p.Index * p.Size).
		Limit(p.Size).
		Find(&members).Error
	return members, total, err
}
