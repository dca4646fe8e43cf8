package enrollment

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

// @Summary      Enroll a member in a class
// @Description  Takes a seat and records the class fee in the cash register.
// @Tags         inscripciones
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Class ID"
// @Param        request  body      enrollment.EnrollRequest  true  "Member and payment method"
// @Success      201      {object}  enrollment.Receipt
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /api/clases/{id}/inscripciones [post]
func (h *Handler) Enroll(c *gin.Context) {
	classID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req EnrollRequest
	if !api.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.Enroll(c.Request.Context(), classID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// @Summary      List class enrollments
// @Tags         inscripciones
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Class ID"
// @Success      200  {array}   enrollment.Detail
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/clases/{id}/inscripciones [get]
func (h *Handler) ListByClass(c *gin.Context) {
	classID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	details, err := h.service.ListByClass(c.Request.Context(), classID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// @Summary      Unenroll a member
// @Description  Deletes the enrollment and the class fee entry linked to it.
// @Tags         inscripciones
// @Security     BearerAuth
// @Param        id       path  int  true  "Class ID"
// @Param        socioID  path  int  true  "Member ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/clases/{id}/inscripciones/{socioID} [delete]
func (h *Handler) Unenroll(c *gin.Context) {
	classID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	memberID, ok := api.ParamID(c, "socioID")
	if !ok {
		return
	}
	if err := h.service.Unenroll(c.Request.Context(), classID, memberID); err != nil {
		api.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
