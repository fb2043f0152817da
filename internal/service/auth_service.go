package service

import (
	"context"
	"errors"
	"log"

	"product-chatbot-server/internal/config"
	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
	"product-chatbot-server/pkg/jwt"
	"product-chatbot-server/pkg/util"
)

// 定义错误类型
var (
	ErrInvalidCredentials = errors.New("invalid username or password") // 用户名或密码错误
)

// LoginResult 客服登录结果
type LoginResult struct {
	Token string       `json:"token"`
	Agent *model.Agent `json:"agent"`
}

// AuthService 客服认证服务
type AuthService struct {
	agentRepo  *repository.AgentRepository
	jwtService *jwt.JWTService
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(agentRepo *repository.AgentRepository, jwtService *jwt.JWTService) *AuthService {
	return &AuthService{
		agentRepo:  agentRepo,
		jwtService: jwtService,
	}
}

// Login 客服登录
// 参数:
//   - ctx: 上下文
//   - username: 登录名
//   - password: 明文密码
//
// 返回:
//   - *LoginResult: 登录结果（含 JWT Token）
//   - error: ErrInvalidCredentials / 数据库错误
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	agent, err := s.agentRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	// 账号不存在和密码错误返回同一个错误，避免泄露账号是否存在
	if agent == nil {
		return nil, ErrInvalidCredentials
	}
	if !util.CheckPassword(password, agent.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(agent.ID, agent.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Agent: agent}, nil
}

// Bootstrap 首次启动时创建引导客服账号
// agents 表非空或引导配置缺失时什么都不做
func (s *AuthService) Bootstrap(ctx context.Context, cfg config.SupportConfig) error {
	if cfg.BootstrapUsername == "" || cfg.BootstrapPassword == "" {
		return nil
	}

	count, err := s.agentRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := util.HashPassword(cfg.BootstrapPassword)
	if err != nil {
		return err
	}

	agent := &model.Agent{
		Username:     cfg.BootstrapUsername,
		PasswordHash: hash,
		DisplayName:  cfg.BootstrapUsername,
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return err
	}

	log.Printf("[auth] bootstrap agent created: %s", agent.Username)
	return nil
}
