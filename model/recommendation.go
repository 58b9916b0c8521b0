package model

import "time"

// FriendRecommend is one scored candidate in a member's recommendation
// batch. All rows for one owner share the same GeneratedAt; the batch is
// replaced wholesale on regeneration, never refreshed row by row.
type FriendRecommend struct {
	OwnerID     int64     `gorm:"primaryKey;autoIncrement:false" json:"owner_id"`
	CandidateID int64     `gorm:"primaryKey;autoIncrement:false" json:"candidate_id"`
	Similarity  float64   `gorm:"not null" json:"similarity"`
	Opened      bool      `gorm:"default:false" json:"opened"`
	GeneratedAt time.Time `gorm:"index:idx_recommend_generated;not null" json:"generated_at"`
}
