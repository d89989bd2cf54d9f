package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every error leaves through one of these so the envelope stays uniform:
// {"success": false, "message": "..."}.

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, message)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}

func RespondBadGateway(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadGateway, message)
}
