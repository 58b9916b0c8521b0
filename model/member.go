package model

import "time"

// Gender values stored on Member.
const (
	GenderUnknown = ""
	GenderMale    = "male"
	GenderFemale  = "female"
)

// Member represents a registered community member and their profile.
type Member struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:64;not null" json:"-"`
	Nickname     string     `gorm:"size:32;not null" json:"nickname"`
	Email        string     `gorm:"size:128" json:"email"`
	Age          int        `gorm:"default:0" json:"age"`
	Gender       string     `gorm:"size:8" json:"gender"`
	Introduce    string     `gorm:"type:text" json:"introduce"`
	// RecommendQuota is the remaining recommendation regenerations for today.
	RecommendQuota int        `gorm:"default:5" json:"recommend_quota"`
	Status         int        `gorm:"default:1" json:"status"` // 0=banned 1=normal
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	LastLoginIP    string     `gorm:"size:45" json:"-"`
}

// MemberHobby is one hobby tag attached to a member.
type MemberHobby struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID int64  `gorm:"uniqueIndex:idx_member_hobby;not null" json:"member_id"`
	Hobby    string `gorm:"uniqueIndex:idx_member_hobby;size:32;not null" json:"hobby"`
}

// Language kinds for MemberLanguage.
const (
	LanguageSpoken  = "spoken"  // a language the member can speak
	LanguageDesired = "desired" // a language the member wants to learn
)

// MemberLanguage is one spoken or desired language attached to a member.
type MemberLanguage struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID int64  `gorm:"uniqueIndex:idx_member_lang;not null" json:"member_id"`
	Kind     string `gorm:"uniqueIndex:idx_member_lang;size:8;not null" json:"kind"`
	Language string `gorm:"uniqueIndex:idx_member_lang;size:32;not null" json:"language"`
}
