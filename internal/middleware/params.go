package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
)

func paramKey(name string) string {
	return "param:" + name
}

// RequireIDParams parses the named path parameters as ids and rejects the request
// with 400 when one is not a positive integer.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := strconv.ParseUint(c.Param(name), 10, 64)
			if err != nil || id == 0 {
				apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
				return
			}
			c.Set(paramKey(name), id)
		}
		c.Next()
	}
}

// GetIDParam returns an id parsed by RequireIDParams
func GetIDParam(c *gin.Context, name string) (uint64, bool) {
	value, exists := c.Get(paramKey(name))
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}
