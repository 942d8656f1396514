package handler

import (
	"net/http"

	"estate_admin_backend/internal/leads/transport"
	"estate_admin_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AddNote(c *gin.Context) {
	var req transport.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	note, err := h.eng.AddNote(requestContext(c), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, note)
}

func (h *Handler) DeleteNote(c *gin.Context) {
	if httpkit.HandleError(c, h.eng.DeleteNote(requestContext(c), c.Param("noteId"))) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddReminder(c *gin.Context) {
	var req transport.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	reminder, err := h.eng.AddReminder(requestContext(c), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, reminder)
}

func (h *Handler) CompleteReminder(c *gin.Context) {
	var req transport.CompleteReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	err := h.eng.CompleteReminder(requestContext(c), c.Param("reminderId"), req.IsCompleted)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteReminder(c *gin.Context) {
	if httpkit.HandleError(c, h.eng.DeleteReminder(requestContext(c), c.Param("reminderId"))) {
		return
	}
	c.Status(http.StatusNoContent)
}
