package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ClampLimit returns size when it lies in [1, ceiling], otherwise ceiling.
func ClampLimit(size, ceiling int) int {
	if ceiling < 1 {
		ceiling = 1
	}
	if size < 1 || size > ceiling {
		return ceiling
	}
	return size
}

// ParseLimit extracts the "limit" query parameter. It returns 0 when the
// parameter is missing or not a positive integer, leaving the default to the caller.
func ParseLimit(c *gin.Context) int {
	size, err := strconv.Atoi(c.Query("limit"))
	if err != nil || size < 1 {
		return 0
	}
	return size
}
