package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/linguamate/server/cache"
	"github.com/linguamate/server/model"
	"github.com/linguamate/server/social"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChannelFor returns the pub/sub channel carrying a member's live
// notifications.
func ChannelFor(memberID int64) string {
	return "notify:" + strconv.FormatInt(memberID, 10)
}

// Emitter appends notifications and fans them out to live subscribers.
// Both effects are best-effort: a failed append or publish is logged and
// never propagated, so the triggering mutation is unaffected.
type Emitter struct {
	db     *gorm.DB
	pubsub cache.PubSub
	logger *zap.Logger
}

// NewEmitter creates an Emitter.
func NewEmitter(db *gorm.DB, ps cache.PubSub, logger *zap.Logger) *Emitter {
	return &Emitter{db: db, pubsub: ps, logger: logger}
}

// Emit appends a notification row and publishes it on the member's
// channel.
func (e *Emitter) Emit(ctx context.Context, typ string, memberID int64, content string, relatedID int64) {
	n := model.Notification{
		Type:      typ,
		MemberID:  memberID,
		Content:   content,
		RelatedID: relatedID,
	}
	if err := e.db.WithContext(ctx).Create(&n).Error; err != nil {
		e.logger.Warn("notification append failed",
			zap.Int64("member_id", memberID),
			zap.String("type", typ),
			zap.Error(err))
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		e.logger.Warn("notification encode failed",
			zap.Int64("member_id", memberID),
			zap.Error(err))
		return
	}
	if err := e.pubsub.Publish(ctx, ChannelFor(memberID), string(payload)); err != nil {
		e.logger.Warn("notification publish failed",
			zap.Int64("member_id", memberID),
			zap.Error(err))
	}
}

// List returns a member's notifications, newest first. With unreadOnly
// set, read notifications are skipped.
func (e *Emitter) List(ctx context.Context, memberID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := e.db.WithContext(ctx).Where("member_id = ?", memberID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []model.Notification
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// UnreadCount returns how many unread notifications a member has.
func (e *Emitter) UnreadCount(ctx context.Context, memberID int64) (int64, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&model.Notification{}).
		Where("member_id = ? AND read = ?", memberID, false).
		Count(&n).Error
	return n, err
}

// MarkRead flags one of the member's notifications as read.
func (e *Emitter) MarkRead(ctx context.Context, memberID, notificationID int64) error {
	var n model.Notification
	err := e.db.WithContext(ctx).
		Where("id = ? AND member_id = ?", notificationID, memberID).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %d", social.ErrNotFound, notificationID)
		}
		return err
	}
	return e.db.WithContext(ctx).Model(&n).Update("read", true).Error
}
