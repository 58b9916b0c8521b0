package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/linguamate/server/social"
)

// SearchHandler handles the member search endpoint.
type SearchHandler struct {
	search *social.SearchService
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search *social.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search handles GET /api/members/search.
// Query params: hobby, spoken_language, desired_language, min_age,
// max_age, gender, page, size. Page index is zero-based.
func (h *SearchHandler) Search(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page := pageFromQuery(c)

	members, total, err := h.search.Search(c.Request.Context(), filter, page, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": total})
}

// filterFromQuery builds a social.Filter from request query params.
func filterFromQuery(c *gin.Context) (social.Filter, error) {
	f := social.Filter{
		Hobby:           c.Query("hobby"),
		SpokenLanguage:  c.Query("spoken_language"),
		DesiredLanguage: c.Query("desired_language"),
		Gender:          c.Query("gender"),
	}
	if raw := c.Query("min_age"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("%w: min_age must be an integer", social.ErrValidation)
		}
		f.MinAge = &v
	}
	if raw := c.Query("max_age"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("%w: max_age must be an integer", social.ErrValidation)
		}
		f.MaxAge = &v
	}
	return f, nil
}

// pageFromQuery builds a zero-based social.Page from query params.
func pageFromQuery(c *gin.Context) social.Page {
	p := social.Page{}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Index = v
	}
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		p.Size = v
	}
	return p
}
