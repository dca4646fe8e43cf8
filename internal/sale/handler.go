package sale

import (
	"fmt"
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

// @Summary      Register a sale
// @Description  Stores the sale, its items and one product_sale entry in the cash register.
// @Description  Invalid items are skipped; a sale with no valid item is rejected.
// @Tags         ventas
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      sale.RegisterRequest  true  "Sale"
// @Success      201      {object}  sale.RegisterResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /api/registrar_venta/ [post]
func (h *Handler) RegisterSale(c *gin.Context) {
	var req RegisterRequest
	if !api.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.RegisterSale(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RegisterResponse{Success: true, SaleID: receipt.Sale.ID})
}

// @Summary      Get a sale
// @Tags         ventas
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Sale ID"
// @Success      200  {object}  sale.Sale
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/ventas/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Sale ticket
// @Tags         ventas
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path  int  true  "Sale ID"
// @Success      200  {file}    file
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/ventas/{id}/ticket [get]
func (h *Handler) Ticket(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	pdf, err := h.service.Ticket(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="ticket-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
