package friendship

import (
	"context"
	"fmt"

	"friendship/backend/internal/models"
)

// FriendStream is a lazy, finite sequence of FriendViews produced by
// ListFriends. It reflects a point-in-time read of the caller's established
// friendships; each call to Next resolves one counterpart's profile, so
// consumption drives the network calls. The stream is not restartable.
//
// Usage follows sql.Rows:
//
//	for stream.Next(ctx) {
//		view := stream.View()
//		...
//	}
//	if err := stream.Err(); err != nil { ... }
type FriendStream struct {
	resolver UserResolver
	callerID string
	rows     []models.Friendship
	pos      int
	view     *models.FriendView
	err      error
}

// NewFriendStream builds a stream over rows already read from the store,
// resolving each counterpart of callerID lazily through resolver.
func NewFriendStream(resolver UserResolver, callerID string, rows []models.Friendship) *FriendStream {
	return &FriendStream{
		resolver: resolver,
		callerID: callerID,
		rows:     rows,
	}
}

// Next advances to the next friendship, resolving the counterpart's profile.
// It returns false when the sequence is exhausted or a resolution fails; a
// failure poisons the stream and is reported by Err.
func (s *FriendStream) Next(ctx context.Context) bool {
	if s.err != nil || s.pos >= len(s.rows) {
		return false
	}

	row := s.rows[s.pos]
	s.pos++

	counterpartID := row.CounterpartOf(s.callerID)
	profile, err := s.resolver.Resolve(ctx, counterpartID)
	if err != nil {
		s.err = fmt.Errorf("%w: resolving friend %s: %v", ErrUpstream, counterpartID, err)
		s.view = nil
		return false
	}

	s.view = &models.FriendView{
		FriendshipID: row.ID,
		UserID:       s.callerID,
		FriendID:     counterpartID,
		FriendName:   profile.FullName,
		FriendPhoto:  profile.Photo,
		Accepted:     row.Accepted,
	}
	return true
}

// View returns the element produced by the last successful Next.
func (s *FriendStream) View() *models.FriendView {
	return s.view
}

// Err returns the failure that terminated the stream, if any.
func (s *FriendStream) Err() error {
	return s.err
}
