package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"friendship/backend/internal/auth"
	"friendship/backend/internal/friendship"
	"friendship/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Orchestrator is the transport-independent friendship interface the HTTP
// layer adapts requests to.
type Orchestrator interface {
	RequestFriendship(ctx context.Context, callerID, targetID string) (*models.FriendView, error)
	AcceptFriendship(ctx context.Context, friendshipID, callerID string) (*models.FriendView, error)
	DeclineFriendship(ctx context.Context, friendshipID string) (string, error)
	CancelFriendship(ctx context.Context, friendshipID string) (string, error)
	ListFriends(ctx context.Context, callerID string) (*friendship.FriendStream, error)
	IsFriends(ctx context.Context, callerID, targetID string) (bool, error)
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse represents a confirmation message response.
type MessageResponse struct {
	Message string `json:"message" example:"friendship deleted by id"`
}

// FriendshipHandler adapts HTTP requests to the friendship orchestrator.
type FriendshipHandler struct {
	svc Orchestrator
}

// NewFriendshipHandler creates the handler for the friendship routes.
func NewFriendshipHandler(svc Orchestrator) *FriendshipHandler {
	return &FriendshipHandler{svc: svc}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, friendship.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, friendship.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, friendship.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, friendship.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, friendship.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RequestFriendship godoc
// @Summary      Send friend request
// @Description  Creates a pending friendship with the target user and notifies them.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "Target User ID"
// @Success      201     {object}  models.FriendView
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      409     {object}  ErrorResponse "Friendship already exists for the pair"
// @Failure      502     {object}  ErrorResponse "User or notification service failed"
// @Router       /friendships/request/{userId} [post]
func (h *FriendshipHandler) RequestFriendship(c *gin.Context) {
	callerID := auth.CallerID(c)
	targetID := c.Param("userId")

	view, err := h.svc.RequestFriendship(c.Request.Context(), callerID, targetID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// AcceptFriendship godoc
// @Summary      Accept friend request
// @Description  Establishes a pending friendship. Only the request's recipient may accept.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        friendshipId  path      string  true  "Friendship ID"
// @Success      200           {object}  models.FriendView
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      403           {object}  ErrorResponse "Caller is not the counterpart"
// @Failure      404           {object}  ErrorResponse "Friendship not found"
// @Failure      502           {object}  ErrorResponse "User or notification service failed"
// @Router       /friendships/accept/{friendshipId} [post]
func (h *FriendshipHandler) AcceptFriendship(c *gin.Context) {
	callerID := auth.CallerID(c)
	friendshipID := c.Param("friendshipId")

	view, err := h.svc.AcceptFriendship(c.Request.Context(), friendshipID, callerID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeclineFriendship godoc
// @Summary      Decline friend request
// @Description  Deletes a pending friendship rejected by the recipient.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        friendshipId  path      string  true  "Friendship ID"
// @Success      200           {object}  MessageResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      404           {object}  ErrorResponse "Friendship not found"
// @Router       /friendships/decline/{friendshipId} [delete]
func (h *FriendshipHandler) DeclineFriendship(c *gin.Context) {
	message, err := h.svc.DeclineFriendship(c.Request.Context(), c.Param("friendshipId"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// CancelFriendship godoc
// @Summary      Cancel friendship
// @Description  Deletes a pending or established friendship. Either party may cancel.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        friendshipId  path      string  true  "Friendship ID"
// @Success      200           {object}  MessageResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      404           {object}  ErrorResponse "Friendship not found"
// @Router       /friendships/cancel/{friendshipId} [delete]
func (h *FriendshipHandler) CancelFriendship(c *gin.Context) {
	message, err := h.svc.CancelFriendship(c.Request.Context(), c.Param("friendshipId"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// ListFriends godoc
// @Summary      List friends
// @Description  Streams the caller's established friendships as newline-delimited JSON, one FriendView per line.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.FriendView
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /friendships [get]
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	callerID := auth.CallerID(c)

	stream, err := h.svc.ListFriends(c.Request.Context(), callerID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(c.Writer)
	for stream.Next(c.Request.Context()) {
		if err := encoder.Encode(stream.View()); err != nil {
			logrus.WithError(err).Warn("friend stream write failed, client gone")
			return
		}
		c.Writer.Flush()
	}
	if err := stream.Err(); err != nil {
		// Headers are out; the stream truncates and the failure is logged.
		logrus.WithError(err).WithField("userId", callerID).Error("friend stream failed mid-flight")
	}
}

// IsFriends godoc
// @Summary      Check friendship
// @Description  Reports whether the caller and the target user are established friends.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "Target User ID"
// @Success      200     {object}  map[string]bool "{"friends": true}"
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Router       /friendships/{userId} [get]
func (h *FriendshipHandler) IsFriends(c *gin.Context) {
	callerID := auth.CallerID(c)
	targetID := c.Param("userId")

	friends, err := h.svc.IsFriends(c.Request.Context(), callerID, targetID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}
