package ledger

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recogym/internal/api"
	"recogym/internal/validate"
)

type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func (h *Handler) dateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return h.now(), true
	}
	d, err := validate.Date(key, raw)
	if err != nil {
		api.RespondError(c, err)
		return time.Time{}, false
	}
	return d, true
}

// GetDay godoc
// @Summary      Cash register day
// @Description  Lists the ledger entries of a day, most recent first, with the day total.
// @Tags         caja
// @Security     BearerAuth
// @Produce      json
// @Param        fecha  query     string  false  "Date (YYYY-MM-DD), defaults to today"
// @Success      200    {object}  Day
// @Failure      400    {object}  api.ErrorResponse
// @Router       /api/caja [get]
func (h *Handler) GetDay(c *gin.Context) {
	date, ok := h.dateQuery(c, "fecha")
	if !ok {
		return
	}

	day, err := h.service.Day(c.Request.Context(), date)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GetSummary godoc
// @Summary      Cash register closing
// @Description  Totals of a day per payment method and per entry type.
// @Tags         caja
// @Security     BearerAuth
// @Produce      json
// @Param        fecha  query     string  false  "Date (YYYY-MM-DD), defaults to today"
// @Success      200    {object}  Summary
// @Failure      400    {object}  api.ErrorResponse
// @Router       /api/caja/resumen [get]
func (h *Handler) GetSummary(c *gin.Context) {
	date, ok := h.dateQuery(c, "fecha")
	if !ok {
		return
	}

	summary, err := h.service.DailySummary(c.Request.Context(), date)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CreateEntry godoc
// @Summary      Record a manual cash movement
// @Tags         caja
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateManualEntryRequest  true  "Movement"
// @Success      201      {object}  Entry
// @Failure      400      {object}  api.ErrorResponse
// @Router       /api/caja [post]
func (h *Handler) CreateEntry(c *gin.Context) {
	var req CreateManualEntryRequest
	if !api.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.RecordManual(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Export godoc
// @Summary      Export cash register movements
// @Tags         caja
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        from    query  string  false  "First day (YYYY-MM-DD), defaults to today"
// @Param        to      query  string  false  "Last day (YYYY-MM-DD), defaults to today"
// @Param        format  query  string  false  "xlsx or csv"  default(xlsx)
// @Success      200
// @Failure      400  {object}  api.ErrorResponse
// @Router       /api/caja/export [get]
func (h *Handler) Export(c *gin.Context) {
	from, ok := h.dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.dateQuery(c, "to")
	if !ok {
		return
	}

	suffix := fmt.Sprintf("%s_%s", from.Format("20060102"), to.Format("20060102"))

	switch format := c.DefaultQuery("format", "xlsx"); format {
	case "csv":
		data, err := h.service.ExportCSV(c.Request.Context(), from, to)
		if err != nil {
			api.RespondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"caja_%s.csv\"", suffix))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	case "xlsx", "excel":
		data, err := h.service.ExportXLSX(c.Request.Context(), from, to)
		if err != nil {
			api.RespondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"caja_%s.xlsx\"", suffix))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid format (use csv or xlsx)"})
	}
}
