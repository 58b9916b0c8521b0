package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/linguamate/server/audit"
	mw "github.com/linguamate/server/middleware"
	"github.com/linguamate/server/social"
)

// SocialHandler handles friendship and friend-request REST endpoints.
type SocialHandler struct {
	friends  *social.FriendshipService
	requests *social.RequestService
	audit    *audit.Service
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(friends *social.FriendshipService, requests *social.RequestService, auditSvc *audit.Service) *SocialHandler {
	return &SocialHandler{friends: friends, requests: requests, audit: auditSvc}
}

// ListFriends handles GET /api/social/friends.
// Supports the profile filter query params plus zero-based page/size.
func (h *SocialHandler) ListFriends(c *gin.Context) {
	memberID := mw.GetMemberID(c)

	filter, err := filterFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page := pageFromQuery(c)

	friends, total, err := h.friends.ListFriends(c.Request.Context(), memberID, filter, page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends, "total": total})
}

// Unfriend handles DELETE /api/social/friends/:id.
func (h *SocialHandler) Unfriend(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.friends.RemoveFriendship(c.Request.Context(), memberID, targetID); err != nil {
		writeError(c, err)
		return
	}
	h.logAction(c, memberID, "unfriend", targetID, nil)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// SendRequest handles POST /api/social/requests.
func (h *SocialHandler) SendRequest(c *gin.Context) {
	memberID := mw.GetMemberID(c)

	var req struct {
		TargetID int64 `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.requests.Send(c.Request.Context(), memberID, req.TargetID); err != nil {
		writeError(c, err)
		return
	}
	h.logAction(c, memberID, "friend_request_send", req.TargetID, nil)
	c.JSON(http.StatusCreated, gin.H{"message": "request sent"})
}

// CancelRequest handles DELETE /api/social/requests/:id.
// The path id is the receiver of the pending request.
func (h *SocialHandler) CancelRequest(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	receiverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.requests.Cancel(c.Request.Context(), memberID, receiverID); err != nil {
		writeError(c, err)
		return
	}
	h.logAction(c, memberID, "friend_request_cancel", receiverID, nil)
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

// AcceptRequest handles POST /api/social/requests/:id/accept.
// The path id is the sender of the pending request.
func (h *SocialHandler) AcceptRequest(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	senderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.requests.Accept(c.Request.Context(), senderID, memberID); err != nil {
		writeError(c, err)
		return
	}
	h.logAction(c, memberID, "friend_request_accept", senderID, nil)
	c.JSON(http.StatusOK, gin.H{"message": "accepted"})
}

// RejectRequest handles POST /api/social/requests/:id/reject.
// The path id is the sender of the pending request.
func (h *SocialHandler) RejectRequest(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	senderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.requests.Reject(c.Request.Context(), senderID, memberID); err != nil {
		writeError(c, err)
		return
	}
	h.logAction(c, memberID, "friend_request_reject", senderID, nil)
	c.JSON(http.StatusOK, gin.H{"message": "rejected"})
}

// ListIncoming handles GET /api/social/requests/incoming.
func (h *SocialHandler) ListIncoming(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	senders, err := h.requests.ListIncoming(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": senders})
}

// ListOutgoing handles GET /api/social/requests/outgoing.
func (h *SocialHandler) ListOutgoing(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	receivers, err := h.requests.ListOutgoing(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": receivers})
}

func (h *SocialHandler) logAction(c *gin.Context, memberID int64, action string, targetID int64, response interface{}) {
	if h.audit == nil {
		return
	}
	h.audit.Log(audit.AuditEntry{
		TraceID:  mw.GetTraceID(c),
		MemberID: &memberID,
		Action:   action,
		Request:  gin.H{"target_id": targetID},
		Response: response,
		IP:       c.ClientIP(),
	})
}
