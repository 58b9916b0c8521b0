package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/linguamate/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FriendshipService owns the symmetric friendship edges. Every mutation
// touches both directional rows inside one transaction so the relation
// can never be observed one-sided.
type FriendshipService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewFriendshipService creates a FriendshipService.
func NewFriendshipService(db *gorm.DB, logger *zap.Logger) *FriendshipService {
	return &FriendshipService{db: db, logger: logger}
}

// AreFriends reports whether both directional edges exist between a and b.
func (s *FriendshipService) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	return areFriendsTx(s.db.WithContext(ctx), a, b)
}

func areFriendsTx(tx *gorm.DB, a, b int64) (bool, error) {
	var n int64
	err := tx.Model(&model.Friendship{}).
		Where("(from_member_id = ? AND to_member_id = ?) OR (from_member_id = ? AND to_member_id = ?)",
			a, b, b, a).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n == 2, nil
}

// AddFriendship creates both directional edges in one transaction.
// Already-existing sides are left alone, so the call is idempotent and
// also repairs a half-written pair instead of duplicating it.
func (s *FriendshipService) AddFriendship(ctx context.Context, a, b int64) error {
	if a == b {
		return fmt.Errorf("%w: cannot befriend yourself", ErrValidation)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addFriendshipTx(tx, a, b)
	})
}

func addFriendshipTx(tx *gorm.DB, a, b int64) error {
	for _, pair := range [][2]int64{{a, b}, {b, a}} {
		var existing model.Friendship
		err := tx.Where("from_member_id = ? AND to_member_id = ?", pair[0], pair[1]).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&model.Friendship{
			FromMemberID: pair[0],
			ToMemberID:   pair[1],
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveFriendship deletes both directional edges in one transaction.
// Both sides must exist beforehand; otherwise ErrNotFriends is returned
// and nothing is deleted.
func (s *FriendshipService) RemoveFriendship(ctx context.Context, a, b int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := areFriendsTx(tx, a, b)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d and %d", ErrNotFriends, a, b)
		}
		return tx.
			Where("(from_member_id = ? AND to_member_id = ?) OR (from_member_id = ? AND to_member_id = ?)",
				a, b, b, a).
			Delete(&model.Friendship{}).Error
	})
}

// FriendIDs returns the IDs of all friends of a member.
func (s *FriendshipService) FriendIDs(ctx context.Context, memberID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("from_member_id = ?", memberID).
		Pluck("to_member_id", &ids).Error
	return ids, err
}

// ListFriends returns a member's friends with the given profile filter
// applied, paginated with a total count. An empty filter matches all.
func (s *FriendshipService) ListFriends(ctx context.Context, memberID int64, f Filter, p Page) ([]model.Member, int64, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	p = p.normalized()

	q := s.db.WithContext(ctx).Model(&model.Member{}).
		Where("EXISTS (SELECT 1 FROM friendships WHERE friendships.from_member_id = ? AND friendships.to_member_id = members.id)",
			memberID)
	q = f.apply(q)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var friends []model.Member
	err := q.Order("members.id").
		Offset(p.Index * p.Size).
		Limit(p.Size).
		Find(&friends).Error
	return friends, total, err
}
