package trainer

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

// @Summary      List trainers
// @Tags         entrenadores
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  trainer.Trainer
// @Router       /api/entrenadores [get]
func (h *Handler) List(c *gin.Context) {
	trainers, err := h.service.List(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainers)
}

// @Summary      Get a trainer
// @Tags         entrenadores
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Trainer ID"
// @Success      200  {object}  trainer.Trainer
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/entrenadores/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Create a trainer
// @Tags         entrenadores
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      trainer.TrainerRequest  true  "Trainer"
// @Success      201      {object}  trainer.Trainer
// @Failure      400      {object}  api.ErrorResponse
// @Router       /api/entrenadores [post]
func (h *Handler) Create(c *gin.Context) {
	var req TrainerRequest
	if !api.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// @Summary      Update a trainer
// @Tags         entrenadores
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "Trainer ID"
// @Param        request  body      trainer.TrainerRequest  true  "Trainer"
// @Success      200      {object}  trainer.Trainer
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/entrenadores/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req TrainerRequest
	if !api.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Delete a trainer
// @Tags         entrenadores
// @Security     BearerAuth
// @Param        id   path  int  true  "Trainer ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/entrenadores/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
