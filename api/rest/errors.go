package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linguamate/server/social"
)

// writeError maps social core errors onto HTTP statuses. Anything not in
// the taxonomy is a 500 with a generic body.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, social.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, social.ErrNotFound), errors.Is(err, social.ErrNotFriends):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, social.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, social.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "recommendation service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
