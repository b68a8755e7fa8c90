package handler

import (
	"net/http"

	"github.com/exception-notifier/backend/internal/model"
	"github.com/gin-gonic/gin"
)

// 헬스체크 엔드포인트
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, model.PingResponse{Message: "pong"})
}

// 루트 엔드포인트
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.RootResponse{Status: "ok", Message: "exception notifier is running"})
}

// Hello godoc
// @Summary Liveness check
// @Tags health
// @Produce plain
// @Success 200 {string} string
// @Router /hello [get]
func Hello(c *gin.Context) {
	c.String(http.StatusOK, "AzureTrigger function processed a request!")
}
