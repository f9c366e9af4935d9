// Package handler serves the caller's notification inbox.
package handler

import (
	"net/http"

	"leadflow_backend/internal/notification/inapp"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type listQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type listResponse struct {
	Items []inapp.Notification `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
}

type unreadResponse struct {
	Count int `json:"count"`
}

type HTTPHandler struct {
	svc *inapp.Service
}

func NewHTTPHandler(svc *inapp.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread", h.CountUnread)
	rg.PATCH("/read-all", h.MarkAllRead)
	rg.PATCH("/:id/read", h.MarkRead)
	rg.DELETE("/:id", h.Delete)
}

// List pages through the caller's inbox, newest first. Paging bounds are
// enforced by the service.
func (h *HTTPHandler) List(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "page and limit must be numbers", nil)
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}

	items, total, err := h.svc.List(c.Request.Context(), userID, q.Page, q.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	if items == nil {
		items = []inapp.Notification{}
	}

	httpkit.OK(c, listResponse{Items: items, Total: total, Page: q.Page})
}

func (h *HTTPHandler) CountUnread(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}

	count, err := h.svc.CountUnread(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, unreadResponse{Count: count})
}

func (h *HTTPHandler) MarkRead(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), userID, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}

	if err := h.svc.MarkAllRead(c.Request.Context(), userID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) Delete(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func caller(c *gin.Context) (uuid.UUID, bool) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return uuid.Nil, false
	}
	return identity.UserID, true
}

func notificationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", map[string]string{"param": "id"})
		return uuid.Nil, false
	}
	return id, true
}
