// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"product-chatbot-server/internal/service"
	"product-chatbot-server/pkg/response"
)

// ChatHandler 对话请求处理器
// 面向顾客的接口，全部匿名，只靠会话令牌定位上下文
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 创建 ChatHandler 实例
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// CreateSession 创建新会话
// @Summary 创建会话
// @Description 生成新的会话令牌，客户端保存后用于后续对话
// @Tags 对话
// @Produce json
// @Success 201 {object} response.Response
// @Router /api/create_session [post]
func (h *ChatHandler) CreateSession(c *gin.Context) {
	session, err := h.chatService.CreateSession(c.Request.Context())
	if err != nil {
		response.InternalError(c, "创建会话失败")
		return
	}

	response.Created(c, gin.H{
		"session_id": session.SessionID,
		"created_at": session.CreatedAt,
	})
}

// ChatRequest 对话请求参数
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// Chat 处理一轮对话
// @Summary 发送消息
// @Description 发送用户消息并返回助手回复
// @Tags 对话
// @Accept json
// @Produce json
// @Param body body ChatRequest true "会话令牌和消息"
// @Success 200 {object} response.Response{data=service.ChatResponse}
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSessionID):
			response.BadRequest(c, "无效的会话令牌")
		case errors.Is(err, service.ErrEmptyMessage):
			response.BadRequest(c, "消息不能为空")
		case errors.Is(err, service.ErrSessionNotFound):
			response.SessionNotFound(c)
		case errors.Is(err, service.ErrGeneration):
			response.GenerationFailed(c)
		default:
			response.InternalError(c, "处理消息失败")
		}
		return
	}

	response.Success(c, result)
}

// GetHistory 获取会话历史
// @Summary 获取会话历史
// @Description 按时间升序返回会话的全部消息
// @Tags 对话
// @Produce json
// @Param session_id path string true "会话令牌"
// @Success 200 {object} response.Response{data=service.HistoryResponse}
// @Router /api/history/{session_id} [get]
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	result, err := h.chatService.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSessionID):
			response.BadRequest(c, "无效的会话令牌")
		case errors.Is(err, service.ErrSessionNotFound):
			response.SessionNotFound(c)
		default:
			response.InternalError(c, "获取历史失败")
		}
		return
	}

	response.Success(c, result)
}
