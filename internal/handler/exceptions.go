// 인바운드 예외 포워딩 요청을 처리하는 핸들러
//
// 요청 흐름:
//  1. 외부 시스템이 POST /exceptions로 임의의 JSON 전송
//  2. body를 {"text": "<json>"}으로 감싸 Slack Webhook으로 전달
//  3. Webhook의 status code와 body를 그대로 응답

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/exception-notifier/backend/internal/client"
	"github.com/exception-notifier/backend/internal/model"
	"github.com/exception-notifier/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// 포워딩 요청 body 최대 크기
const maxForwardBodyBytes = 1 << 20

// forwardService - 서비스 인터페이스
type forwardService interface {
	Forward(ctx context.Context, body []byte) (*client.WebhookResponse, error)
}

// ExceptionsHandler 구조체 정의
type ExceptionsHandler struct {
	svc forwardService
}

// ExceptionsHandler 객체 생성
func NewExceptionsHandler(svc forwardService) *ExceptionsHandler {
	return &ExceptionsHandler{svc: svc}
}

// Forward godoc
// @Summary Forward a JSON payload to the Slack channel
// @Tags exceptions
// @Accept json
// @Produce json
// @Param request body object true "Arbitrary JSON payload"
// @Success 200 {string} string "Slack webhook response body"
// @Failure 400,413,502 {object} model.ErrorResponse
// @Router /exceptions [post]
func (h *ExceptionsHandler) Forward(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxForwardBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "failed to read body"})
		return
	}

	resp, err := h.svc.Forward(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid payload"})
			return
		}
		log.Error("failed to forward exception payload", "error", err)
		c.JSON(http.StatusBadGateway, model.ErrorResponse{Error: "failed to reach slack webhook"})
		return
	}

	// Webhook 응답 그대로 반환
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
}
