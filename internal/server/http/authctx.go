package httpserver

import (
	"github.com/gin-gonic/gin"

	"github.com/and161185/pontofacil/internal/model"
)

const userKey = "pf.user"

// withUser stores the authenticated user on the request context.
func withUser(c *gin.Context, u *model.User) {
	c.Set(userKey, u)
}

// userFrom fetches the authenticated user.
func userFrom(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok && u != nil
}
