// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/service"
	"product-chatbot-server/pkg/response"
)

// ProductHandler 商品管理请求处理器
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler 创建 ProductHandler 实例
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// parseProductID 从路径参数解析商品 ID
func parseProductID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的商品ID")
		return 0, false
	}
	return id, true
}

// ProductRequest 商品创建/更新请求参数
type ProductRequest struct {
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category"`
	Brand     string  `json:"brand"`
	Screen    string  `json:"screen"`
	Processor string  `json:"processor"`
	RAM       string  `json:"ram"`
	Storage   string  `json:"storage"`
	Camera    string  `json:"camera"`
	Price     float64 `json:"price" binding:"required"`
}

// toModel 转换成数据库模型
func (r *ProductRequest) toModel() *model.Product {
	return &model.Product{
		Name:      r.Name,
		Category:  r.Category,
		Brand:     r.Brand,
		Screen:    r.Screen,
		Processor: r.Processor,
		RAM:       r.RAM,
		Storage:   r.Storage,
		Camera:    r.Camera,
		Price:     r.Price,
	}
}

// Create 创建商品
// @Summary 创建商品
// @Tags 商品
// @Accept json
// @Produce json
// @Param body body ProductRequest true "商品信息"
// @Success 201 {object} response.Response{data=model.Product}
// @Router /api/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	product := req.toModel()
	if err := h.productService.Create(c.Request.Context(), product); err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			response.BadRequest(c, "商品名称至少3个字符，价格必须为正数")
			return
		}
		response.InternalError(c, "创建商品失败")
		return
	}

	response.Created(c, product)
}

// Get 获取商品详情
// @Summary 获取商品详情
// @Tags 商品
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /api/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.ProductNotFound(c)
			return
		}
		response.InternalError(c, "获取商品失败")
		return
	}

	response.Success(c, product)
}

// List 获取商品列表
// @Summary 获取商品列表
// @Tags 商品
// @Produce json
// @Param limit query int false "数量上限" default(500)
// @Success 200 {object} response.Response{data=[]model.Product}
// @Router /api/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	products, err := h.productService.List(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, "获取商品列表失败")
		return
	}

	response.Success(c, products)
}

// Update 更新商品
// @Summary 更新商品
// @Tags 商品
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param body body ProductRequest true "商品信息"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /api/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req.toModel())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			response.ProductNotFound(c)
		case errors.Is(err, service.ErrInvalidProduct):
			response.BadRequest(c, "商品名称至少3个字符，价格必须为正数")
		default:
			response.InternalError(c, "更新商品失败")
		}
		return
	}

	response.Success(c, product)
}

// Delete 删除商品
// @Summary 删除商品
// @Tags 商品
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response
// @Router /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.ProductNotFound(c)
			return
		}
		response.InternalError(c, "删除商品失败")
		return
	}

	response.Success(c, nil)
}
