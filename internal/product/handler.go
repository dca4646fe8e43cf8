package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recogym/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      List products
// @Tags         productos
// @Security     BearerAuth
// @Produce      json
// @Param        todos  query  bool  false  "Include inactive products"
// @Success      200    {array}  product.Product
// @Router       /api/productos [get]
func (h *Handler) List(c *gin.Context) {
	products, err := h.service.List(c.Request.Context(), c.Query("todos") == "true")
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// @Summary      Get a product
// @Tags         productos
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  product.Product
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/productos/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Create a product
// @Tags         productos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      product.ProductRequest  true  "Product"
// @Success      201      {object}  product.Product
// @Failure      400      {object}  api.ErrorResponse
// @Router       /api/productos [post]
func (h *Handler) Create(c *gin.Context) {
	var req ProductRequest
	if !api.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary      Update a product
// @Tags         productos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "Product ID"
// @Param        request  body      product.ProductRequest  true  "Product"
// @Success      200      {object}  product.Product
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/productos/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !api.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
