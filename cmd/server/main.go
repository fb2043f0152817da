// Package main 是服务端的入口点
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"product-chatbot-server/internal/cache"
	"product-chatbot-server/internal/config"
	"product-chatbot-server/internal/handler"
	"product-chatbot-server/internal/middleware"
	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
	"product-chatbot-server/internal/service"
	"product-chatbot-server/internal/websocket"
	"product-chatbot-server/pkg/jwt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	// 自动迁移数据库表
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化 Redis
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		log.Fatalf("Failed to init redis: %v", err)
	}

	// 初始化 JWT 服务
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpire)

	// 初始化 Gemini 生成器
	generator, err := service.NewGeminiGenerator(context.Background(), cfg.AI)
	if err != nil {
		log.Fatalf("Failed to init gemini client: %v", err)
	}

	// 初始化 Repository 层
	productRepo := repository.NewProductRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	flagRepo := repository.NewFlagRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	agentRepo := repository.NewAgentRepository(db)

	// 初始化 WebSocket Hub
	wsHub := websocket.NewHub(redisCache)
	go wsHub.Run() // 在单独的 goroutine 中运行

	// 初始化 Service 层
	retrievalService := service.NewRetrievalService(productRepo, cfg.AI.ProductsLimit)
	handoffService := service.NewHandoffService(flagRepo, redisCache)
	purchaseService := service.NewPurchaseService(productRepo, interactionRepo)
	maintenanceService := service.NewMaintenanceService(sessionRepo, messageRepo, flagRepo, interactionRepo, handoffService)
	alertService := service.NewAlertService(cfg.Alert.WebhookURL, wsHub)
	chatService := service.NewChatService(cfg, sessionRepo, messageRepo,
		retrievalService, handoffService, purchaseService, maintenanceService, alertService, generator)
	productService := service.NewProductService(productRepo)
	authService := service.NewAuthService(agentRepo, jwtService)
	supportService := service.NewSupportService(sessionRepo, messageRepo, handoffService)

	// 首次启动时创建引导客服账号
	if err := authService.Bootstrap(context.Background(), cfg.Support); err != nil {
		log.Fatalf("Failed to bootstrap support agent: %v", err)
	}

	// 初始化 Handler 层
	chatHandler := handler.NewChatHandler(chatService)
	productHandler := handler.NewProductHandler(productService)
	supportHandler := handler.NewSupportHandler(authService, supportService)
	wsHandler := websocket.NewHandler(wsHub, jwtService)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	router := gin.New()

	// 全局中间件
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORS))

	// 注册路由
	registerRoutes(router, jwtService, chatHandler, productHandler, supportHandler, wsHandler)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // 生成一轮回复可能要等上游模型
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := redisCache.Close(); err != nil {
		log.Printf("Failed to close redis: %v", err)
	}

	log.Println("Server exited")
}

// initDatabase 初始化数据库连接
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.MySQL.Username,
		cfg.MySQL.Password,
		cfg.MySQL.Host,
		cfg.MySQL.Port,
		cfg.MySQL.Database,
		cfg.MySQL.Charset,
	)

	// 配置 GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 配置连接池
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MySQL.MaxLifetime) * time.Second)

	log.Println("Database connected successfully")
	return db, nil
}

// autoMigrate 自动迁移数据库表
func autoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&model.Product{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.HumanFlag{},
		&model.ProductInteraction{},
		&model.Agent{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// registerRoutes 注册所有路由
func registerRoutes(
	router *gin.Engine,
	jwtService *jwt.JWTService,
	chatHandler *handler.ChatHandler,
	productHandler *handler.ProductHandler,
	supportHandler *handler.SupportHandler,
	wsHandler *websocket.Handler,
) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// 对话相关（匿名，靠会话令牌定位上下文）
	{
		api.POST("/create_session", chatHandler.CreateSession)
		api.POST("/chat", chatHandler.Chat)
		api.GET("/history/:session_id", chatHandler.GetHistory)
	}

	// 商品管理
	products := api.Group("/products")
	{
		products.POST("", productHandler.Create)
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)
	}

	// 客服支持侧
	support := api.Group("/support")
	{
		// 登录和 WebSocket 不挂认证中间件（WS 的 token 在 query 里验证）
		support.POST("/login", supportHandler.Login)
		support.GET("/ws", wsHandler.HandleSupportWS)

		authed := support.Group("")
		authed.Use(middleware.AgentAuthMiddleware(jwtService))
		{
			authed.GET("/queue", supportHandler.Queue)
			authed.POST("/send", supportHandler.Send)
			authed.POST("/close", supportHandler.Close)
		}
	}
}
