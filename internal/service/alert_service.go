package service

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"product-chatbot-server/internal/model"
)

// EscalationBroadcaster 把接管事件推送给在线客服的接口
// 由 websocket 包的 Hub 实现；ChatService 不直接依赖 websocket
type EscalationBroadcaster interface {
	BroadcastEscalation(event EscalationEvent)
}

// EscalationEvent 推送给支持面板的接管事件
type EscalationEvent struct {
	Type            string    `json:"type"` // 固定为 "escalation"
	SessionID       string    `json:"session_id"`
	Reason          string    `json:"reason"`
	LastUserMessage string    `json:"last_user_message"`
	ActivatedAt     time.Time `json:"activated_at"`
}

// AlertService 客服告警服务
// 接管激活时通知值班客服: 总是写日志，配置了 Webhook 就异步 POST，
// 有在线客服就走 WebSocket 推送。通知失败不影响对话主流程
type AlertService struct {
	webhookURL  string
	broadcaster EscalationBroadcaster // 可选，nil 时跳过推送
	httpClient  *http.Client
}

// NewAlertService 创建 AlertService 实例
// webhookURL 为空表示只写日志；broadcaster 传 nil 表示不做实时推送
func NewAlertService(webhookURL string, broadcaster EscalationBroadcaster) *AlertService {
	return &AlertService{
		webhookURL:  webhookURL,
		broadcaster: broadcaster,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

// NotifyActivation 通知一次接管激活
// 日志同步写，Webhook 在后台 goroutine 里发，调用方不会被阻塞
func (s *AlertService) NotifyActivation(flag *model.HumanFlag) {
	if flag == nil {
		return
	}

	log.Printf("[alert] human handoff activated: session=%s reason=%q message=%q",
		flag.SessionID, flag.Reason, flag.LastUserMessage)

	event := EscalationEvent{
		Type:            "escalation",
		SessionID:       flag.SessionID,
		Reason:          flag.Reason,
		LastUserMessage: flag.LastUserMessage,
		ActivatedAt:     time.Now(),
	}
	if flag.ActivatedAt != nil {
		event.ActivatedAt = *flag.ActivatedAt
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEscalation(event)
	}

	if s.webhookURL != "" {
		go s.postWebhook(event)
	}
}

// postWebhook 把事件 POST 到告警 Webhook
// 失败只写日志，不重试
func (s *AlertService) postWebhook(event EscalationEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[alert] failed to marshal webhook payload: %v", err)
		return
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[alert] webhook post failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[alert] webhook returned status %d", resp.StatusCode)
	}
}
