package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mw "github.com/linguamate/server/middleware"
	"github.com/linguamate/server/social"
)

// RecommendHandler handles the friend recommendation endpoints.
type RecommendHandler struct {
	recommend *social.RecommendService
}

// NewRecommendHandler creates a RecommendHandler.
func NewRecommendHandler(recommend *social.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommend: recommend}
}

// Get handles GET /api/social/recommendations.
// Serving a fresh cached batch is free. Quota is only spent when the
// batch is absent or stale and a regeneration is about to run; an
// exhausted quota then yields 429 with the stale batch untouched.
func (h *RecommendHandler) Get(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	ctx := c.Request.Context()

	fresh, err := h.recommend.HasFresh(ctx, memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !fresh {
		ok, err := h.recommend.ConsumeQuota(ctx, memberID)
		if err != nil {
			writeError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily recommendation quota exhausted"})
			return
		}
	}

	recs, err := h.recommend.Get(ctx, memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// Quota handles GET /api/social/recommendations/quota.
func (h *RecommendHandler) Quota(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	remaining, err := h.recommend.CheckQuota(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}

// Open handles POST /api/social/recommendations/:id/open.
func (h *RecommendHandler) Open(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	candidateID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.recommend.OpenProfile(c.Request.Context(), memberID, candidateID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "opened"})
}
