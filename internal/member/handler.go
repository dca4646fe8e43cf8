package member

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recogym/internal/api"
	"recogym/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Register a member
// @Description  Creates a member. With create_account the member also gets a login
// @Description  account and the temporary password is returned once in the response.
// @Tags         socios
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateMemberRequest  true  "Member"
// @Success      201      {object}  Registration
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Router       /api/socios [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	reg, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// List godoc
// @Summary      List members
// @Tags         socios
// @Security     BearerAuth
// @Produce      json
// @Param        q     query     string  false  "Search by code or name"
// @Param        tipo  query     string  false  "internal or external"
// @Success      200   {array}   Member
// @Router       /api/socios [get]
func (h *Handler) List(c *gin.Context) {
	members, err := h.service.List(c.Request.Context(), Filter{
		Search: c.Query("q"),
		Type:   Type(c.Query("tipo")),
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Get godoc
// @Summary      Get a member
// @Tags         socios
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  Member
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/socios/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Update godoc
// @Summary      Update a member
// @Tags         socios
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Member ID"
// @Param        request  body      UpdateMemberRequest  true  "Member"
// @Success      200      {object}  Member
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/socios/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ChangeType godoc
// @Summary      Change member type
// @Tags         socios
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                true  "Member ID"
// @Param        request  body      ChangeTypeRequest  true  "New type"
// @Success      200      {object}  Member
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/socios/{id}/tipo [put]
func (h *Handler) ChangeType(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req ChangeTypeRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, err := h.service.ChangeType(c.Request.Context(), id, req.Type)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Delete godoc
// @Summary      Delete a member
// @Description  Deletes the login account and then the member. Cash register rows are kept.
// @Tags         socios
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  DeletionReport
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/socios/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	report, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Status godoc
// @Summary      Member status
// @Description  Derives the current status and class eligibility of a member.
// @Tags         socios
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  StatusReport
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/socios/{id}/estado [get]
func (h *Handler) Status(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	report, err := h.service.Status(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// MyStatus godoc
// @Summary      Own member status
// @Description  Status and class eligibility of the member behind the current login.
// @Tags         socios
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  StatusReport
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /me/estado [get]
func (h *Handler) MyStatus(c *gin.Context) {
	id, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	code, ok := id.MemberCode()
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Member login required"})
		return
	}

	report, err := h.service.OwnStatus(c.Request.Context(), id.UserID, code)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
