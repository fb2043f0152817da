// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"product-chatbot-server/internal/service"
	"product-chatbot-server/pkg/response"
)

// SupportHandler 客服支持侧请求处理器
// 除登录外全部接口都挂在客服认证中间件之后
type SupportHandler struct {
	authService    *service.AuthService
	supportService *service.SupportService
}

// NewSupportHandler 创建 SupportHandler 实例
func NewSupportHandler(authService *service.AuthService, supportService *service.SupportService) *SupportHandler {
	return &SupportHandler{
		authService:    authService,
		supportService: supportService,
	}
}

// LoginRequest 客服登录请求参数
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 客服登录
// @Summary 客服登录
// @Tags 支持
// @Accept json
// @Produce json
// @Param body body LoginRequest true "登录凭据"
// @Success 200 {object} response.Response{data=service.LoginResult}
// @Router /api/support/login [post]
func (h *SupportHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "用户名或密码错误")
			return
		}
		response.InternalError(c, "登录失败")
		return
	}

	response.Success(c, result)
}

// Queue 获取待处理的接管会话队列
// @Summary 获取待处理队列
// @Description 所有激活状态的接管会话，附带最近几条消息
// @Tags 支持
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response{data=[]service.QueueItem}
// @Router /api/support/queue [get]
func (h *SupportHandler) Queue(c *gin.Context) {
	items, err := h.supportService.Queue(c.Request.Context())
	if err != nil {
		response.InternalError(c, "获取队列失败")
		return
	}

	response.Success(c, items)
}

// SendRequest 客服代发消息请求参数
type SendRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// Send 客服向接管中的会话发送消息
// @Summary 客服发送消息
// @Tags 支持
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body SendRequest true "会话令牌和消息"
// @Success 200 {object} response.Response{data=model.ChatMessage}
// @Router /api/support/send [post]
func (h *SupportHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	msg, err := h.supportService.Send(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			response.BadRequest(c, "消息不能为空")
		case errors.Is(err, service.ErrSessionNotFound):
			response.SessionNotFound(c)
		case errors.Is(err, service.ErrHandoffNotActive):
			response.BadRequest(c, "会话不在人工接管状态")
		default:
			response.InternalError(c, "发送消息失败")
		}
		return
	}

	response.Success(c, msg)
}

// CloseRequest 结束接管请求参数
type CloseRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Close 结束会话的人工接管
// @Summary 结束接管
// @Description 标记转为 closed，之后的消息重新由助手回复
// @Tags 支持
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body CloseRequest true "会话令牌"
// @Success 200 {object} response.Response{data=model.HumanFlag}
// @Router /api/support/close [post]
func (h *SupportHandler) Close(c *gin.Context) {
	var req CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	flag, err := h.supportService.Close(c.Request.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.SessionNotFound(c)
		case errors.Is(err, service.ErrHandoffNotActive):
			response.BadRequest(c, "会话没有接管记录")
		default:
			response.InternalError(c, "结束接管失败")
		}
		return
	}

	response.Success(c, flag)
}
