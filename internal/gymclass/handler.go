package gymclass

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recogym/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      List classes
// @Tags         clases
// @Security     BearerAuth
// @Produce      json
// @Param        entrenador  query     int  false  "Trainer ID"
// @Success      200         {array}   gymclass.Class
// @Failure      400         {object}  api.ErrorResponse
// @Router       /api/clases [get]
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if raw := c.Query("entrenador"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid entrenador"})
			return
		}
		f.TrainerID = &id
	}

	classes, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

// @Summary      Get a class
// @Tags         clases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Class ID"
// @Success      200  {object}  gymclass.Class
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/clases/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	class, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// @Summary      Create a class
// @Tags         clases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      gymclass.ClassRequest  true  "Class"
// @Success      201      {object}  gymclass.Class
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/clases [post]
func (h *Handler) Create(c *gin.Context) {
	var req ClassRequest
	if !api.BindJSON(c, &req) {
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

// @Summary      Update a class
// @Tags         clases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                    true  "Class ID"
// @Param        request  body      gymclass.ClassRequest  true  "Class"
// @Success      200      {object}  gymclass.Class
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/clases/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req ClassRequest
	if !api.BindJSON(c, &req) {
		return
	}
	class, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// @Summary      Delete a class
// @Tags         clases
// @Security     BearerAuth
// @Param        id   path  int  true  "Class ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/clases/{id} [delete]
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
