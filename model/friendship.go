package model

import (
	"time"

	"gorm.io/gorm"
)

// Friendship is one directional friend edge. An accepted relation between
// A and B is always stored as two rows: (A→B) and (B→A). Rows are created
// and deleted strictly in pairs; a one-sided row is a bug.
type Friendship struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FromMemberID int64     `gorm:"uniqueIndex:idx_friendship_pair;not null" json:"from_member_id"`
	ToMemberID   int64     `gorm:"uniqueIndex:idx_friendship_pair;not null" json:"to_member_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// FriendRequest is a pending directional proposal from sender to receiver.
// The row exists only while the request is pending; accept, reject, and
// cancel all delete it. PairLo/PairHi hold the two member ids in ascending
// order; their unique index makes the database reject a second pending
// request for the pair in either direction, so concurrent sends lose the
// race at the store instead of in application code.
type FriendRequest struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   int64     `gorm:"uniqueIndex:idx_request_pair;not null" json:"sender_id"`
	ReceiverID int64     `gorm:"uniqueIndex:idx_request_pair;not null" json:"receiver_id"`
	PairLo     int64     `gorm:"uniqueIndex:idx_request_mutual;not null" json:"-"`
	PairHi     int64     `gorm:"uniqueIndex:idx_request_mutual;not null" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate fills the canonical pair columns from the directional ids.
func (r *FriendRequest) BeforeCreate(*gorm.DB) error {
	r.PairLo, r.PairHi = r.SenderID, r.ReceiverID
	if r.PairLo > r.PairHi {
		r.PairLo, r.PairHi = r.PairHi, r.PairLo
	}
	return nil
}
