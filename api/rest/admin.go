package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/linguamate/server/model"
	"github.com/linguamate/server/scheduler"
	"github.com/linguamate/server/social"
	"gorm.io/gorm"
)

// AdminHandler handles the operator endpoints. All routes behind it are
// guarded by AdminAuth and, optionally, an IP whitelist.
type AdminHandler struct {
	db        *gorm.DB
	recommend *social.RecommendService
	sched     *scheduler.Scheduler
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, recommend *social.RecommendService, sched *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{db: db, recommend: recommend, sched: sched}
}

// AdminAuth checks the X-Admin-Key header against the configured key.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" || c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// Metrics handles GET /api/admin/metrics.
func (h *AdminHandler) Metrics(c *gin.Context) {
	ctx := c.Request.Context()
	var members, friendships, requests, batches, notifications int64
	for _, q := range []struct {
		table interface{}
		dst   *int64
	}{
		{&model.Member{}, &members},
		{&model.Friendship{}, &friendships},
		{&model.FriendRequest{}, &requests},
		{&model.FriendRecommend{}, &batches},
		{&model.Notification{}, &notifications},
	} {
		if err := h.db.WithContext(ctx).Model(q.table).Count(q.dst).Error; err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"members":             members,
		"friendships":         friendships / 2,
		"pending_requests":    requests,
		"recommendation_rows": batches,
		"notifications":       notifications,
		"scheduler_tasks":     h.sched.ListTickers(),
	})
}

// BanMember handles POST /api/admin/members/:id/ban.
func (h *AdminHandler) BanMember(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&model.Member{}).
		Where("id = ?", memberID).
		Update("status", 0)
	if res.Error != nil {
		writeError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "banned"})
}

// UnbanMember handles POST /api/admin/members/:id/unban.
func (h *AdminHandler) UnbanMember(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&model.Member{}).
		Where("id = ?", memberID).
		Update("status", 1)
	if res.Error != nil {
		writeError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unbanned"})
}

// ResetQuotas handles POST /api/admin/quotas/reset. Forces the daily
// quota reset outside the scheduled run.
func (h *AdminHandler) ResetQuotas(c *gin.Context) {
	n, err := h.recommend.ResetQuotas(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": n})
}

// PurgeStale handles POST /api/admin/recommendations/purge.
func (h *AdminHandler) PurgeStale(c *gin.Context) {
	n, err := h.recommend.PurgeStale(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": n})
}
