package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/resp"
	"github.com/MorseWayne/cherry_market/internal/service"
)

// ProductHandler 商品浏览与卖家管理接口
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler 创建商品处理器
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// ListProducts 商品列表（游标分页）
// @Summary 商品列表
// @Description 按状态、分类、价格区间、交易方式过滤，支持 LATEST/LOW_PRICE/HIGH_PRICE 排序
// @Tags 商品
// @Produce json
// @Param status query string false "商品状态，缺省时排除 PENDING"
// @Param category query string false "分类代码"
// @Param min_price query int false "最低价格"
// @Param max_price query int false "最高价格"
// @Param trade_type query string false "DIRECT | DELIVERY | BOTH"
// @Param sort query string false "LATEST | LOW_PRICE | HIGH_PRICE"
// @Param cursor query string false "上一页返回的 next_cursor"
// @Param limit query int false "每页数量，默认 20，最大 50"
// @Success 200 {object} resp.Response[domain.ProductListResponse]
// @Failure 400 {object} resp.Response[any]
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	req, err := parseListRequest(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.productService.ListProducts(c.Request.Context(), req, getCurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, "list products", err)
		return
	}
	writeOK(c, list)
}

// GetTrending 24 小时热门商品
// @Summary 热门商品
// @Tags 商品
// @Produce json
// @Success 200 {object} resp.Response[domain.ProductListResponse]
// @Router /api/v1/products/trending [get]
func (h *ProductHandler) GetTrending(c *gin.Context) {
	list, err := h.productService.GetTrending(c.Request.Context(), getCurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, "get trending", err)
		return
	}
	writeOK(c, list)
}

// GetProduct 商品详情，同时记录一次浏览
// @Summary 商品详情
// @Tags 商品
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} resp.Response[domain.ProductDetail]
// @Failure 404 {object} resp.Response[any]
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, valid := parseIDParam(c, "id")
	if !valid {
		return
	}

	detail, err := h.productService.GetProduct(c.Request.Context(), id, getCurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, "get product", err)
		return
	}
	writeOK(c, detail)
}

// RecordView 上报一次浏览
// @Summary 浏览上报
// @Tags 商品
// @Param id path int true "商品ID"
// @Success 200 {object} resp.Response[any]
// @Failure 404 {object} resp.Response[any]
// @Failure 429 {object} resp.Response[any]
// @Router /api/v1/products/{id}/views [post]
func (h *ProductHandler) RecordView(c *gin.Context) {
	id, valid := parseIDParam(c, "id")
	if !valid {
		return
	}

	if err := h.productService.RecordView(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "record view", err)
		return
	}
	writeOK[any](c, nil)
}

// CreateProduct 发布商品
// @Summary 发布商品
// @Tags 商品
// @Accept json
// @Produce json
// @Param request body domain.CreateProductRequest true "商品信息"
// @Success 201 {object} resp.Response[domain.Product]
// @Failure 400 {object} resp.Response[any]
// @Failure 401 {object} resp.Response[any]
// @Router /api/v1/products [post]
// @Security Bearer
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	sellerID, authed := requireUser(c)
	if !authed {
		return
	}

	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("bind create product request failed", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}
	if !req.TradeType.Valid() {
		badRequest(c, "invalid trade_type")
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), sellerID, &req)
	if err != nil {
		writeError(c, h.logger, "create product", err)
		return
	}

	h.logger.Info("product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("seller_id", sellerID),
		zap.String("request_id", getRequestID(c)),
	)
	resp.WriteJSON(c.Writer, http.StatusCreated, resp.CodeOK, "created", product, getRequestID(c), getTraceID(c))
}

// UpdateProduct 修改商品（仅卖家本人）
// @Summary 修改商品
// @Tags 商品
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param request body domain.UpdateProductRequest true "待修改字段"
// @Success 200 {object} resp.Response[domain.Product]
// @Failure 403 {object} resp.Response[any]
// @Failure 404 {object} resp.Response[any]
// @Router /api/v1/products/{id} [put]
// @Security Bearer
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	sellerID, authed := requireUser(c)
	if !authed {
		return
	}
	id, valid := parseIDParam(c, "id")
	if !valid {
		return
	}

	var req domain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), sellerID, id, &req)
	if err != nil {
		writeError(c, h.logger, "update product", err)
		return
	}
	writeOK(c, product)
}

// DeleteProduct 删除商品（仅卖家本人）
// @Summary 删除商品
// @Tags 商品
// @Param id path int true "商品ID"
// @Success 200 {object} resp.Response[any]
// @Failure 403 {object} resp.Response[any]
// @Failure 404 {object} resp.Response[any]
// @Router /api/v1/products/{id} [delete]
// @Security Bearer
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	sellerID, authed := requireUser(c)
	if !authed {
		return
	}
	id, valid := parseIDParam(c, "id")
	if !valid {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), sellerID, id); err != nil {
		writeError(c, h.logger, "delete product", err)
		return
	}

	h.logger.Info("product deleted",
		zap.Int64("product_id", id),
		zap.Int64("seller_id", sellerID),
		zap.String("request_id", getRequestID(c)),
	)
	writeOK[any](c, nil)
}

// parseListRequest 解析列表查询参数；空值视为未指定
func parseListRequest(c *gin.Context) (*domain.ListProductsRequest, error) {
	req := &domain.ListProductsRequest{
		Cursor: strings.TrimSpace(c.Query("cursor")),
	}
	f := &req.Filter
	f.Sort = domain.ParseSortMode(c.Query("sort"))

	if v := queryValue(c, "status"); v != "" {
		status := domain.ProductStatus(strings.ToUpper(v))
		if !status.Valid() {
			return nil, errInvalidParam("status")
		}
		f.Status = &status
	}
	if v := queryValue(c, "category"); v != "" {
		f.CategoryCode = &v
	}
	if v := queryValue(c, "trade_type"); v != "" {
		tt := domain.TradeType(strings.ToUpper(v))
		if !tt.Valid() {
			return nil, errInvalidParam("trade_type")
		}
		f.TradeType = &tt
	}

	var err error
	if f.MinPrice, err = queryInt64(c, "min_price"); err != nil {
		return nil, err
	}
	if f.MaxPrice, err = queryInt64(c, "max_price"); err != nil {
		return nil, err
	}
	if v := queryValue(c, "limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			return nil, errInvalidParam("limit")
		}
	}
	return req, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid " + string(e) }

func queryValue(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Query(name))
}

func queryInt64(c *gin.Context, name string) (*int64, error) {
	v := queryValue(c, name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil, errInvalidParam(name)
	}
	return &n, nil
}
