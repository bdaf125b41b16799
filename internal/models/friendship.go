package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friendship represents the relationship between two users. The record is
// stored asymmetrically: UserID is the initiator who sent the request and
// FriendID is the counterpart who must accept it. As a pair the relationship
// is unordered: at most one record may exist for {UserID, FriendID} in
// either orientation.
type Friendship struct {
	ID             string     `gorm:"primaryKey;size:36"`
	UserID         string     `gorm:"size:36;not null;uniqueIndex:idx_friendship_pair"`
	FriendID       string     `gorm:"size:36;not null;uniqueIndex:idx_friendship_pair"`
	RequestSentAt  time.Time  `gorm:"not null"`
	ResponseSentAt *time.Time
	Accepted       bool `gorm:"not null;default:false"`
}

// TableName specifies the table name.
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate assigns a UUID primary key if one is not set.
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Involves reports whether the given user is one of the two participants.
func (f *Friendship) Involves(userID string) bool {
	return f.UserID == userID || f.FriendID == userID
}

// CounterpartOf returns the other participant's id relative to userID.
func (f *Friendship) CounterpartOf(userID string) string {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}

// UserProfile is a user's display profile as resolved from the user service.
// It is never persisted here; the user service owns identity.
type UserProfile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Photo    string `json:"photo,omitempty"`
}

// FriendView is the composed response for a friendship: the relationship
// record joined with the counterpart's resolved display profile. Built per
// request, never stored.
type FriendView struct {
	FriendshipID string `json:"friendshipId"`
	UserID       string `json:"userId"`
	FriendID     string `json:"friendId"`
	FriendName   string `json:"friendName"`
	FriendPhoto  string `json:"friendPhoto,omitempty"`
	Accepted     bool   `json:"accepted"`
}
