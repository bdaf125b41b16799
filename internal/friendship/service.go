package friendship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"friendship/backend/internal/client"
	"friendship/backend/internal/models"
	"friendship/backend/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserResolver resolves a user id to a display profile.
type UserResolver interface {
	Resolve(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Notifier dispatches a friend notification to a user.
type Notifier interface {
	Notify(ctx context.Context, notification client.Notification) error
}

// Service orchestrates the friendship lifecycle: request, accept, decline,
// cancel, list, is-friends. It owns no state of its own: the store holds the
// authoritative records, the resolver and notifier are external services whose
// failures propagate to the caller without retry.
type Service struct {
	store    store.FriendshipStore
	resolver UserResolver
	notifier Notifier
	now      func() time.Time
}

// NewService creates a friendship service.
func NewService(s store.FriendshipStore, resolver UserResolver, notifier Notifier) *Service {
	return &Service{
		store:    s,
		resolver: resolver,
		notifier: notifier,
		now:      time.Now,
	}
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q is not a valid id", ErrInvalidInput, id)
	}
	return nil
}

// RequestFriendship creates a pending friendship from the caller to the
// target user and notifies the target. Both identities are resolved first, so
// a request to an unknown user never creates a record.
func (s *Service) RequestFriendship(ctx context.Context, callerID, targetID string) (*models.FriendView, error) {
	if err := validateID(callerID); err != nil {
		return nil, err
	}
	if err := validateID(targetID); err != nil {
		return nil, err
	}
	if callerID == targetID {
		return nil, fmt.Errorf("%w: cannot request friendship with yourself", ErrInvalidInput)
	}

	log := logrus.WithFields(logrus.Fields{
		"userId":   callerID,
		"friendId": targetID,
	})
	log.Debug("requesting friendship")

	callerProfile, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving caller: %v", ErrUpstream, err)
	}
	targetProfile, err := s.resolver.Resolve(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving target: %v", ErrUpstream, err)
	}

	friendship := &models.Friendship{
		UserID:        callerID,
		FriendID:      targetID,
		RequestSentAt: s.now(),
		Accepted:      false,
	}
	if err := s.store.Create(ctx, friendship); err != nil {
		if errors.Is(err, store.ErrDuplicatePair) {
			return nil, fmt.Errorf("%w: between %s and %s", ErrConflict, callerID, targetID)
		}
		return nil, err
	}

	err = s.notifier.Notify(ctx, client.Notification{
		To:           targetID,
		Kind:         client.KindFriendRequest,
		FriendshipID: friendship.ID,
		FromName:     callerProfile.FullName,
	})
	if err != nil {
		// The record stays; notification delivery is at-most-once, not
		// atomic with the write.
		return nil, fmt.Errorf("%w: friend request notification: %v", ErrUpstream, err)
	}

	log.WithField("friendshipId", friendship.ID).Info("friendship requested")

	return &models.FriendView{
		FriendshipID: friendship.ID,
		UserID:       callerID,
		FriendID:     targetID,
		FriendName:   targetProfile.FullName,
		FriendPhoto:  targetProfile.Photo,
		Accepted:     false,
	}, nil
}

// AcceptFriendship establishes a pending friendship. Only the counterpart of
// the stored record may accept; the caller identity comes from the trusted
// caller context, never from the request body.
func (s *Service) AcceptFriendship(ctx context.Context, friendshipID, callerID string) (*models.FriendView, error) {
	if err := validateID(friendshipID); err != nil {
		return nil, err
	}
	if err := validateID(callerID); err != nil {
		return nil, err
	}

	friendship, err := s.store.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, friendshipID)
		}
		return nil, err
	}

	if friendship.FriendID != callerID {
		logrus.WithFields(logrus.Fields{
			"friendshipId": friendshipID,
			"callerId":     callerID,
		}).Warn("accept rejected, caller is not the counterpart")
		return nil, ErrUnauthorized
	}

	friendProfile, err := s.resolver.Resolve(ctx, friendship.FriendID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving counterpart: %v", ErrUpstream, err)
	}
	initiatorProfile, err := s.resolver.Resolve(ctx, friendship.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving initiator: %v", ErrUpstream, err)
	}

	responseSentAt := s.now()
	friendship.Accepted = true
	friendship.ResponseSentAt = &responseSentAt
	if err := s.store.MarkAccepted(ctx, friendship); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, friendshipID)
		}
		return nil, err
	}

	err = s.notifier.Notify(ctx, client.Notification{
		To:           friendship.UserID,
		Kind:         client.KindFriendAccepted,
		FriendshipID: friendship.ID,
		FromName:     friendProfile.FullName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: acceptance notification: %v", ErrUpstream, err)
	}

	logrus.WithFields(logrus.Fields{
		"friendshipId": friendship.ID,
		"userId":       friendship.UserID,
		"friendId":     friendship.FriendID,
	}).Info("friendship accepted")

	return &models.FriendView{
		FriendshipID: friendship.ID,
		UserID:       friendship.UserID,
		FriendID:     friendship.FriendID,
		FriendName:   initiatorProfile.FullName,
		FriendPhoto:  initiatorProfile.Photo,
		Accepted:     true,
	}, nil
}

// DeleteConfirmation is the message returned after a decline or cancel.
const DeleteConfirmation = "friendship deleted by id"

// DeclineFriendship deletes a pending friendship rejected by the counterpart.
func (s *Service) DeclineFriendship(ctx context.Context, friendshipID string) (string, error) {
	logrus.WithField("friendshipId", friendshipID).Debug("declining friendship")
	return s.deleteByID(ctx, friendshipID)
}

// CancelFriendship deletes a pending or established friendship. Either party
// may cancel; at the data layer this is identical to decline, the separate
// operation preserves the caller's intent at the boundary.
func (s *Service) CancelFriendship(ctx context.Context, friendshipID string) (string, error) {
	logrus.WithField("friendshipId", friendshipID).Debug("cancelling friendship")
	return s.deleteByID(ctx, friendshipID)
}

func (s *Service) deleteByID(ctx context.Context, friendshipID string) (string, error) {
	if err := validateID(friendshipID); err != nil {
		return "", err
	}

	if err := s.store.Delete(ctx, friendshipID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: id %s", ErrNotFound, friendshipID)
		}
		return "", err
	}

	logrus.WithField("friendshipId", friendshipID).Info("friendship deleted")
	return DeleteConfirmation, nil
}

// ListFriends returns a stream over the caller's established friendships.
// The records are read up front; each counterpart profile is resolved lazily
// as the stream is consumed.
func (s *Service) ListFriends(ctx context.Context, callerID string) (*FriendStream, error) {
	if err := validateID(callerID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListAccepted(ctx, callerID)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"userId": callerID,
		"count":  len(rows),
	}).Debug("listing friends")

	return NewFriendStream(s.resolver, callerID, rows), nil
}

// IsFriends reports whether the caller and the target user have an
// established friendship. A missing or still-pending record is false. The
// check is symmetric, either side gets the same answer.
func (s *Service) IsFriends(ctx context.Context, callerID, targetID string) (bool, error) {
	if err := validateID(callerID); err != nil {
		return false, err
	}
	if err := validateID(targetID); err != nil {
		return false, err
	}

	friendship, err := s.store.GetByPair(ctx, callerID, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return friendship.Accepted, nil
}
