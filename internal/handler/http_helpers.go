package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// editionIDParam 解析 :id，非法时直接响应 400。
func editionIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 32)
	if err != nil || id == 0 {
		respondFormError(c, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return uint(id), true
}

// visibleParam reads how many cards the client already shows.
func visibleParam(c *gin.Context) int {
	visible, err := strconv.Atoi(strings.TrimSpace(c.Query("visible")))
	if err != nil || visible <= 0 {
		return editionPageSize
	}
	return visible
}
