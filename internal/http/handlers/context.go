package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/http/middlewares"
)

func currentUser(ctx *gin.Context) (user.User, bool) {
	return middlewares.CurrentUser(ctx)
}
