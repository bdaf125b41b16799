package store

import (
	"context"
	"errors"

	"friendship/backend/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no friendship matches the lookup.
var ErrNotFound = errors.New("friendship not found")

// ErrDuplicatePair is returned when an insert would create a second record
// for the same unordered pair of users.
var ErrDuplicatePair = errors.New("friendship already exists for pair")

// FriendshipStore defines data access for friendship records. The store owns
// the authoritative records; callers never cache them across requests.
type FriendshipStore interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	// GetByPair looks the pair up in both orientations.
	GetByPair(ctx context.Context, userID, friendID string) (*models.Friendship, error)
	// ListAccepted returns every established friendship involving userID,
	// on either side of the record.
	ListAccepted(ctx context.Context, userID string) ([]models.Friendship, error)
	MarkAccepted(ctx context.Context, friendship *models.Friendship) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// GormFriendshipStore implements FriendshipStore on top of gorm.
type GormFriendshipStore struct {
	db *gorm.DB
}

// NewGormFriendshipStore creates a store backed by the given database handle.
func NewGormFriendshipStore(db *gorm.DB) *GormFriendshipStore {
	return &GormFriendshipStore{db: db}
}

func (s *GormFriendshipStore) Create(ctx context.Context, friendship *models.Friendship) error {
	// Check both orientations before inserting; the composite unique index on
	// (user_id, friend_id) backs the same-orientation race at the database.
	var existing models.Friendship
	err := s.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			friendship.UserID, friendship.FriendID, friendship.FriendID, friendship.UserID).
		First(&existing).Error
	if err == nil {
		return ErrDuplicatePair
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.db.WithContext(ctx).Create(friendship).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicatePair
		}
		return err
	}
	return nil
}

func (s *GormFriendshipStore) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	var friendship models.Friendship
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&friendship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (s *GormFriendshipStore) GetByPair(ctx context.Context, userID, friendID string) (*models.Friendship, error) {
	var friendship models.Friendship
	err := s.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		First(&friendship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (s *GormFriendshipStore) ListAccepted(ctx context.Context, userID string) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := s.db.WithContext(ctx).
		Where("(user_id = ? OR friend_id = ?) AND accepted = ?", userID, userID, true).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	return friendships, nil
}

func (s *GormFriendshipStore) MarkAccepted(ctx context.Context, friendship *models.Friendship) error {
	result := s.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ?", friendship.ID).
		Updates(map[string]interface{}{
			"accepted":         friendship.Accepted,
			"response_sent_at": friendship.ResponseSentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormFriendshipStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Friendship{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormFriendshipStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
