package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mw "github.com/linguamate/server/middleware"
	"github.com/linguamate/server/social"
)

// ProfileHandler handles member profile REST endpoints.
type ProfileHandler struct {
	profiles *social.ProfileService
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *social.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetMe handles GET /api/members/me.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	p, err := h.profiles.Get(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(p, true))
}

// GetMember handles GET /api/members/:id.
func (h *ProfileHandler) GetMember(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := h.profiles.Get(c.Request.Context(), targetID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(p, false))
}

// UpdateMe handles PUT /api/members/me.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	memberID := mw.GetMemberID(c)

	var upd social.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.Update(c.Request.Context(), memberID, upd); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// profileResponse shapes a profile for the wire. The password hash never
// leaves the server; quota and login metadata are owner-only.
func profileResponse(p *social.Profile, owner bool) gin.H {
	out := gin.H{
		"id":                p.Member.ID,
		"username":          p.Member.Username,
		"nickname":          p.Member.Nickname,
		"age":               p.Member.Age,
		"gender":            p.Member.Gender,
		"introduce":         p.Member.Introduce,
		"hobbies":           p.Hobbies,
		"spoken_languages":  p.SpokenLanguages,
		"desired_languages": p.DesiredLanguages,
	}
	if owner {
		out["email"] = p.Member.Email
		out["recommend_quota"] = p.Member.RecommendQuota
		out["created_at"] = p.Member.CreatedAt
	}
	return out
}
