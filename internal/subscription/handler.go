package subscription

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

// @Summary      List plans
// @Tags         suscripciones
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  subscription.Terms
// @Router       /api/suscripciones/planes [get]
func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, Plans())
}

// @Summary      List subscriptions
// @Tags         suscripciones
// @Security     BearerAuth
// @Produce      json
// @Param        socio  query     int  false  "Member ID"
// @Success      200    {array}   subscription.Subscription
// @Failure      400    {object}  api.ErrorResponse
// @Router       /api/suscripciones [get]
func (h *Handler) List(c *gin.Context) {
	var memberID *int
	if raw := c.Query("socio"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid socio"})
			return
		}
		memberID = &id
	}

	subs, err := h.service.List(c.Request.Context(), memberID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// @Summary      Get a subscription
// @Tags         suscripciones
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  subscription.Subscription
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/suscripciones/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sub, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// @Summary      Create a paid subscription
// @Description  Creates the subscription and its membership payment in the cash register.
// @Tags         suscripciones
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      subscription.SubscribeRequest  true  "Subscription"
// @Success      201      {object}  subscription.Payment
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/suscripciones [post]
func (h *Handler) Create(c *gin.Context) {
	var req SubscribeRequest
	if !api.BindJSON(c, &req) {
		return
	}
	if req.MemberID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "socio_id is required"})
		return
	}
	h.subscribe(c, req.MemberID, req)
}

// @Summary      Subscribe a member
// @Tags         socios,suscripciones
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                            true  "Member ID"
// @Param        request  body      subscription.SubscribeRequest  true  "Plan and payment"
// @Success      201      {object}  subscription.Payment
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/socios/{id}/suscribir [post]
func (h *Handler) SubscribeMember(c *gin.Context) {
	memberID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req SubscribeRequest
	if !api.BindJSON(c, &req) {
		return
	}
	h.subscribe(c, memberID, req)
}

func (h *Handler) subscribe(c *gin.Context, memberID int, req SubscribeRequest) {
	payment, err := h.service.Subscribe(c.Request.Context(), memberID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// @Summary      Update a subscription
// @Description  Only the active flag can change; dates and amount are kept.
// @Tags         suscripciones
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                         true  "Subscription ID"
// @Param        request  body      subscription.UpdateRequest  true  "Active flag"
// @Success      200      {object}  subscription.Subscription
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/suscripciones/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdateRequest
	if !api.BindJSON(c, &req) {
		return
	}
	sub, err := h.service.Update(c.Request.Context(), id, *req.Active)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// @Summary      Change plan
// @Description  Recomputes end date and amount from the stored start date.
// @Tags         suscripciones
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                             true  "Subscription ID"
// @Param        request  body      subscription.ChangePlanRequest  true  "Plan"
// @Success      200      {object}  subscription.Subscription
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/suscripciones/{id}/plan [put]
func (h *Handler) ChangePlan(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req ChangePlanRequest
	if !api.BindJSON(c, &req) {
		return
	}
	sub, err := h.service.ChangePlan(c.Request.Context(), id, req.Plan)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// @Summary      Delete a subscription
// @Tags         suscripciones
// @Security     BearerAuth
// @Param        id   path  int  true  "Subscription ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/suscripciones/{id} [delete]
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
