package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/linguamate/server/model"
	"gorm.io/gorm"
)

// Profile is a member together with their tag sets.
type Profile struct {
	Member           model.Member `json:"member"`
	Hobbies          []string     `json:"hobbies"`
	SpokenLanguages  []string     `json:"spoken_languages"`
	DesiredLanguages []string     `json:"desired_languages"`
}

// ProfileUpdate carries the editable profile fields. Nil slices leave
// the corresponding tag set untouched; empty slices clear it.
type ProfileUpdate struct {
	Nickname         *string  `json:"nickname"`
	Age              *int     `json:"age"`
	Gender           *string  `json:"gender"`
	Introduce        *string  `json:"introduce"`
	Hobbies          []string `json:"hobbies"`
	SpokenLanguages  []string `json:"spoken_languages"`
	DesiredLanguages []string `json:"desired_languages"`
}

// ProfileService reads and updates member profiles and their tags.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a ProfileService.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Get loads a member's profile with hobby and language tags.
func (s *ProfileService) Get(ctx context.Context, memberID int64) (*Profile, error) {
	var m model.Member
	if err := s.db.WithContext(ctx).First(&m, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
		}
		return nil, err
	}

	p := &Profile{
		Member:           m,
		Hobbies:          []string{},
		SpokenLanguages:  []string{},
		DesiredLanguages: []string{},
	}
	if err := s.db.WithContext(ctx).Model(&model.MemberHobby{}).
		Where("member_id = ?", memberID).
		Order("hobby").
		Pluck("hobby", &p.Hobbies).Error; err != nil {
		return nil, err
	}
	var langs []model.MemberLanguage
	if err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("language").
		Find(&langs).Error; err != nil {
		return nil, err
	}
	for _, l := range langs {
		switch l.Kind {
		case model.LanguageSpoken:
			p.SpokenLanguages = append(p.SpokenLanguages, l.Language)
		case model.LanguageDesired:
			p.DesiredLanguages = append(p.DesiredLanguages, l.Language)
		}
	}
	return p, nil
}

// Update applies a profile update in one transaction. Tag sets are
// replaced wholesale when supplied.
func (s *ProfileService) Update(ctx context.Context, memberID int64, upd ProfileUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Member
		if err := tx.First(&m, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: member %d", ErrNotFound, memberID)
			}
			return err
		}

		fields := map[string]interface{}{}
		if upd.Nickname != nil {
			fields["nickname"] = *upd.Nickname
		}
		if upd.Age != nil {
			fields["age"] = *upd.Age
		}
		if upd.Gender != nil {
			fields["gender"] = *upd.Gender
		}
		if upd.Introduce != nil {
			fields["introduce"] = *upd.Introduce
		}
		if len(fields) > 0 {
			if err := tx.Model(&m).Updates(fields).Error; err != nil {
				return err
			}
		}

		if upd.Hobbies != nil {
			if err := tx.Where("member_id = ?", memberID).
				Delete(&model.MemberHobby{}).Error; err != nil {
				return err
			}
			for _, h := range upd.Hobbies {
				if err := tx.Create(&model.MemberHobby{MemberID: memberID, Hobby: h}).Error; err != nil {
					return err
				}
			}
		}
		if upd.SpokenLanguages != nil {
			if err := replaceLanguages(tx, memberID, model.LanguageSpoken, upd.SpokenLanguages); err != nil {
				return err
			}
		}
		if upd.DesiredLanguages != nil {
			if err := replaceLanguages(tx, memberID, model.LanguageDesired, upd.DesiredLanguages); err != nil {
				return err
			}
		}
		return nil
	})
}

func replaceLanguages(tx *gorm.DB, memberID int64, kind string, languages []string) error {
	if err := tx.Where("member_id = ? AND kind = ?", memberID, kind).
		Delete(&model.MemberLanguage{}).Error; err != nil {
		return err
	}
	for _, l := range languages {
		if err := tx.Create(&model.MemberLanguage{
			MemberID: memberID,
			Kind:     kind,
			Language: l,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}
