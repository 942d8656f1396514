// Package handler exposes the leads administration API over gin.
package handler

import (
	"context"
	"net/http"
	"time"

	"estate_admin_backend/internal/leads/domain"
	"estate_admin_backend/internal/leads/engine"
	"estate_admin_backend/internal/leads/pipeline"
	"estate_admin_backend/internal/leads/transport"
	"estate_admin_backend/platform/httpkit"
	"estate_admin_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	eng *engine.Engine
}

const msgInvalidRequest = "invalid request"

func New(eng *engine.Engine) *Handler {
	return &Handler{eng: eng}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/refresh", h.Refresh)
	rg.GET("/export", h.Export)
	rg.POST("/import", h.Import)
	rg.GET("/selection", h.Selection)
	rg.DELETE("/selection", h.Dismiss)
	rg.POST("/bulk/status", h.BulkStatus)
	rg.POST("/bulk/delete", h.BulkDelete)
	rg.GET("/:id", h.Open)
	rg.PUT("/:id", h.Update)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/check", h.ToggleChecked)
	rg.POST("/:id/tags", h.AddTag)
	rg.DELETE("/:id/tags/:tag", h.RemoveTag)
	rg.POST("/:id/notes", h.AddNote)
	rg.DELETE("/notes/:noteId", h.DeleteNote)
	rg.POST("/:id/reminders", h.AddReminder)
	rg.PATCH("/reminders/:reminderId", h.CompleteReminder)
	rg.DELETE("/reminders/:reminderId", h.DeleteReminder)
}

// List returns the filtered collection plus unfiltered stats. A selected=<id>
// query deep-links into the detail view once per session.
func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	leads := h.eng.List(pipeline.Filters{
		Search:   req.Search,
		Status:   req.Status,
		Priority: req.Priority,
		Source:   req.Source,
	})

	resp := transport.ListLeadsResponse{
		Items: make([]transport.LeadResponse, 0, len(leads)),
		Stats: h.eng.Stats(),
	}
	for _, lead := range leads {
		resp.Items = append(resp.Items, transport.ToLeadResponse(lead))
	}

	if req.Selected != "" {
		detail, opened, err := h.eng.OpenFromQuery(requestContext(c), req.Selected)
		if err == nil && opened {
			resp.Selected = &detail
		}
	}

	httpkit.OK(c, resp)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.eng.CreateLead(requestContext(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) Refresh(c *gin.Context) {
	if httpkit.HandleError(c, h.eng.Refresh(requestContext(c))) {
		return
	}
	httpkit.OK(c, gin.H{"stats": h.eng.Stats()})
}

func (h *Handler) Export(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	filename, payload := h.eng.ExportCSV(pipeline.Filters{
		Search:   req.Search,
		Status:   req.Status,
		Priority: req.Priority,
		Source:   req.Source,
	}, timeNow())

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(payload))
}

func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.eng.Import(requestContext(c), req.Text)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"batchId":  result.BatchID,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

func (h *Handler) Open(c *gin.Context) {
	detail, err := h.eng.Open(requestContext(c), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, detail)
}

func (h *Handler) Dismiss(c *gin.Context) {
	h.eng.Dismiss()
	c.Status(http.StatusNoContent)
}

func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.eng.UpdateLead(requestContext(c), c.Param("id"), req)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	err := h.eng.ChangeStatus(requestContext(c), c.Param("id"), domain.LeadStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleChecked(c *gin.Context) {
	h.eng.ToggleChecked(c.Param("id"))
	httpkit.OK(c, gin.H{"checked": h.eng.CheckedIDs()})
}

func (h *Handler) Selection(c *gin.Context) {
	httpkit.OK(c, gin.H{"checked": h.eng.CheckedIDs()})
}

func (h *Handler) BulkStatus(c *gin.Context) {
	var req transport.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.eng.BulkUpdateStatus(requestContext(c), domain.LeadStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BulkResultResponse{Requested: result.Requested, FailedIDs: result.FailedIDs})
}

func (h *Handler) BulkDelete(c *gin.Context) {
	result, err := h.eng.BulkDelete(requestContext(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BulkResultResponse{Requested: result.Requested, FailedIDs: result.FailedIDs})
}

func (h *Handler) AddTag(c *gin.Context) {
	var req transport.AddTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.eng.AddTag(requestContext(c), c.Param("id"), req.Tag)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveTag(c *gin.Context) {
	if httpkit.HandleError(c, h.eng.RemoveTag(requestContext(c), c.Param("id"), c.Param("tag"))) {
		return
	}
	c.Status(http.StatusNoContent)
}

// requestContext carries the authenticated user into the engine, where it
// tags audit notes.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if userID, ok := httpkit.GetUserID(c); ok {
		ctx = context.WithValue(ctx, logger.UserIDKey, userID.String())
	}
	return ctx
}

var timeNow = time.Now
