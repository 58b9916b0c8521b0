package model

import "time"

// Notification types.
const (
	NotificationFriend = "friend" // friend request received / accepted
	NotificationSystem = "system"
)

// Notification is an append-only message for a member. The social core
// only ever creates these; reading and mark-as-read happen through the
// notification endpoints.
type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	MemberID  int64     `gorm:"index:idx_notification_member;not null" json:"member_id"`
	Content   string    `gorm:"type:text" json:"content"`
	RelatedID int64     `json:"related_id"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
