package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linguamate/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier is the best-effort notification sink. Emit must never fail
// the triggering mutation; implementations log and swallow errors.
type Notifier interface {
	Emit(ctx context.Context, typ string, memberID int64, content string, relatedID int64)
}

// RequestService drives the friend-request lifecycle:
// none → pending → accepted | rejected | cancelled. All three outcomes
// delete the pending row, so "no row" and "no request" are the same state.
type RequestService struct {
	db       *gorm.DB
	friends  *FriendshipService
	notifier Notifier
	logger   *zap.Logger
}

// NewRequestService creates a RequestService.
func NewRequestService(db *gorm.DB, friends *FriendshipService, notifier Notifier, logger *zap.Logger) *RequestService {
	return &RequestService{db: db, friends: friends, notifier: notifier, logger: logger}
}

// Send creates a pending request from sender to receiver and notifies the
// receiver. It fails with ErrConflict when the pair is already friends or
// a pending request exists in either direction. The in-transaction count
// gives the friendly error on the common path; under a race the canonical
// (pair_lo, pair_hi) unique index rejects the second insert whichever
// direction it came from, so two concurrent sends for a pair cannot both
// succeed.
func (s *RequestService) Send(ctx context.Context, senderID, receiverID int64) error {
	if senderID == receiverID {
		return fmt.Errorf("%w: cannot send a friend request to yourself", ErrValidation)
	}

	var sender model.Member
	if err := s.db.WithContext(ctx).First(&sender, senderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %d", ErrNotFound, senderID)
		}
		return err
	}
	var receiver model.Member
	if err := s.db.WithContext(ctx).First(&receiver, receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %d", ErrNotFound, receiverID)
		}
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		friends, err := areFriendsTx(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		if friends {
			return fmt.Errorf("%w: already friends", ErrConflict)
		}

		var pending int64
		if err := tx.Model(&model.FriendRequest{}).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				senderID, receiverID, receiverID, senderID).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: a pending request already exists", ErrConflict)
		}

		if err := tx.Create(&model.FriendRequest{
			SenderID:   senderID,
			ReceiverID: receiverID,
		}).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: a pending request already exists", ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Emit(ctx, model.NotificationFriend, receiverID,
		sender.Nickname+" sent you a friend request", senderID)
	return nil
}

// Cancel removes a pending request the sender previously sent.
func (s *RequestService) Cancel(ctx context.Context, senderID, receiverID int64) error {
	res := s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Delete(&model.FriendRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: no pending request from %d to %d", ErrNotFound, senderID, receiverID)
	}
	return nil
}

// Accept materializes the friendship (both edges) and deletes the pending
// request in one transaction, then notifies the sender.
func (s *RequestService) Accept(ctx context.Context, senderID, receiverID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
			Delete(&model.FriendRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: no pending request from %d to %d", ErrNotFound, senderID, receiverID)
		}
		return addFriendshipTx(tx, senderID, receiverID)
	})
	if err != nil {
		return err
	}

	var receiver model.Member
	if err := s.db.WithContext(ctx).First(&receiver, receiverID).Error; err == nil {
		s.notifier.Emit(ctx, model.NotificationFriend, senderID,
			receiver.Nickname+" accepted your friend request", receiverID)
	}
	return nil
}

// Reject deletes the pending request without creating a friendship.
func (s *RequestService) Reject(ctx context.Context, senderID, receiverID int64) error {
	res := s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Delete(&model.FriendRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: no pending request from %d to %d", ErrNotFound, senderID, receiverID)
	}
	return nil
}

// ListIncoming returns the profiles of members whose pending requests are
// addressed to the given member.
func (s *RequestService) ListIncoming(ctx context.Context, memberID int64) ([]model.Member, error) {
	var senders []model.Member
	err := s.db.WithContext(ctx).Model(&model.Member{}).
		Where("EXISTS (SELECT 1 FROM friend_requests WHERE friend_requests.sender_id = members.id AND friend_requests.receiver_id = ?)",
			memberID).
		Order("members.id").
		Find(&senders).Error
	return senders, err
}

// ListOutgoing returns the profiles of members the given member has sent
// pending requests to.
func (s *RequestService) ListOutgoing(ctx context.Context, memberID int64) ([]model.Member, error) {
	var receivers []model.Member
	err := s.db.WithContext(ctx).Model(&model.Member{}).
		Where("EXISTS (SELECT 1 FROM friend_requests WHERE friend_requests.receiver_id = members.id AND friend_requests.sender_id = ?)",
			memberID).
		Order("members.id").
		Find(&receivers).Error
	return receivers, err
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
