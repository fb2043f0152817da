// Package config 负责加载和管理应用程序的配置
// 使用 viper 库支持 YAML 配置文件和环境变量覆盖
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 是应用程序的根配置结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`  // 服务器配置
	MySQL   MySQLConfig   `mapstructure:"mysql"`   // MySQL 配置
	Redis   RedisConfig   `mapstructure:"redis"`   // Redis 配置
	JWT     JWTConfig     `mapstructure:"jwt"`     // JWT 配置
	Log     LogConfig     `mapstructure:"log"`     // 日志配置
	AI      AIConfig      `mapstructure:"ai"`      // Gemini 配置
	Chat    ChatConfig    `mapstructure:"chat"`    // 对话与留存策略配置
	Alert   AlertConfig   `mapstructure:"alert"`   // 客服告警配置
	Support SupportConfig `mapstructure:"support"` // 客服账号引导配置
}

// ServerConfig 服务器相关配置
type ServerConfig struct {
	Port int      `mapstructure:"port"` // 监听端口，默认 8080
	Mode string   `mapstructure:"mode"` // 运行模式: debug / release
	CORS []string `mapstructure:"cors"` // CORS 允许的域名
}

// MySQLConfig MySQL 数据库连接配置
type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxLifetime  int    `mapstructure:"max_lifetime"` // 连接最大生命周期（秒）
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// JWTConfig 客服认证的 JWT 配置
type JWTConfig struct {
	Secret       string        `mapstructure:"secret"`        // 签名密钥，至少32字符
	AccessExpire time.Duration `mapstructure:"access_expire"` // Token 过期时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug/info/warn/error
	Format string `mapstructure:"format"` // 日志格式: json/text
}

// AIConfig Gemini 生成配置
type AIConfig struct {
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"` // Gemini API Key
	GeminiModel   string        `mapstructure:"gemini_model"`   // 模型名称
	ProductsLimit int           `mapstructure:"products_limit"` // 单次检索喂给模型的商品上限
	Timeout       time.Duration `mapstructure:"timeout"`        // 单次生成调用的超时
}

// ChatConfig 对话与留存策略配置
type ChatConfig struct {
	MaxMessages       int `mapstructure:"max_messages"`        // 每会话保留的消息上限
	MaxSessions       int `mapstructure:"max_sessions"`        // 每轮对话后保留的会话上限
	CreateMaxSessions int `mapstructure:"create_max_sessions"` // 创建会话时保留的会话上限
	HistoryWindow     int `mapstructure:"history_window"`      // 发给模型的历史轮数上限
	HandoffStreak     int `mapstructure:"handoff_streak"`      // 连续未匹配多少轮后转人工
}

// AlertConfig 客服告警配置
type AlertConfig struct {
	WebhookURL string `mapstructure:"webhook_url"` // 为空则只写日志
}

// SupportConfig 客服账号引导配置
// 首次启动且 agents 表为空时，用这里的账号创建第一个客服
type SupportConfig struct {
	BootstrapUsername string `mapstructure:"bootstrap_username"`
	BootstrapPassword string `mapstructure:"bootstrap_password"`
}

// Load 从指定路径加载配置文件
// 支持环境变量覆盖配置项
// 参数:
//   - configPath: 配置文件目录路径 (如 "./configs")
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 启用环境变量，例如 MYSQL_HOST -> mysql.host
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)
	setDefaults(v)

	// 配置文件不存在时继续使用默认值和环境变量
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	v.BindEnv("mysql.host", "MYSQL_HOST")
	v.BindEnv("mysql.port", "MYSQL_PORT")
	v.BindEnv("mysql.username", "MYSQL_USERNAME")
	v.BindEnv("mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("mysql.database", "MYSQL_DATABASE")

	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.username", "REDIS_USERNAME")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("jwt.secret", "JWT_SECRET")

	v.BindEnv("ai.gemini_api_key", "GEMINI_API_KEY")
	v.BindEnv("ai.gemini_model", "GEMINI_MODEL")

	v.BindEnv("alert.webhook_url", "CS_ALERT_WEBHOOK_URL")

	v.BindEnv("support.bootstrap_username", "SUPPORT_BOOTSTRAP_USERNAME")
	v.BindEnv("support.bootstrap_password", "SUPPORT_BOOTSTRAP_PASSWORD")
}

// setDefaults 设置配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.max_lifetime", 3600)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)

	v.SetDefault("jwt.access_expire", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ai.gemini_model", "gemini-2.5-flash")
	v.SetDefault("ai.products_limit", 200)
	v.SetDefault("ai.timeout", "30s")

	v.SetDefault("chat.max_messages", 50)
	v.SetDefault("chat.max_sessions", 20)
	v.SetDefault("chat.create_max_sessions", 200)
	v.SetDefault("chat.history_window", 12)
	v.SetDefault("chat.handoff_streak", 3)
}
