package service

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"product-chatbot-server/internal/config"
	"product-chatbot-server/internal/model"
)

// newTestDB 建一个仅本测试可见的内存 SQLite 数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 每个测试独立的共享缓存内存库，连接池内的多个连接看到同一份数据
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Product{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.HumanFlag{},
		&model.ProductInteraction{},
		&model.Agent{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return db
}

// newTestConfig 测试用的最小配置
func newTestConfig() *config.Config {
	return &config.Config{
		Chat: config.ChatConfig{
			MaxMessages:       50,
			MaxSessions:       20,
			CreateMaxSessions: 200,
			HistoryWindow:     12,
			HandoffStreak:     3,
		},
		AI: config.AIConfig{
			ProductsLimit: 200,
		},
	}
}

// seedProducts 插入一组覆盖所有检索策略的商品
func seedProducts(t *testing.T, db *gorm.DB) []model.Product {
	t.Helper()

	products := []model.Product{
		{Name: "Galaxy A54", Category: "Mobile", Brand: "Samsung", Price: 52000},
		{Name: "Redmi Note 12", Category: "Mobile", Brand: "Xiaomi", Price: 28000},
		{Name: "iPhone 14", Category: "Mobile", Brand: "Apple", Price: 145000},
		{Name: "Victus 15 Gaming Laptop", Category: "Laptop", Brand: "HP", Price: 95000},
		{Name: "MacBook Air M2", Category: "Laptop", Brand: "Apple", Price: 185000},
		{Name: "IdeaPad Slim 3", Category: "Laptop", Brand: "Lenovo", Price: 65000},
		{Name: "Galaxy Tab A9", Category: "Tablet", Brand: "Samsung", Price: 24000},
		{Name: "Nokia C12", Category: "Mobile", Brand: "Nokia", Price: 16000},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			t.Fatalf("failed to seed product: %v", err)
		}
	}
	return products
}
