package handler

import (
	"net/http"

	"fleetsched/internal/deliveries/events"
	"fleetsched/internal/deliveries/service"
	httputil "fleetsched/pkg/http"
	"fleetsched/pkg/logger"
	"fleetsched/pkg/middleware"
	"fleetsched/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type DeliveryHandler struct {
	service service.DeliveryService
	log     *logger.Logger
}

func NewDeliveryHandler(service service.DeliveryService, log *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
		log:     log,
	}
}

func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateDeliveryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	delivery, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, delivery); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *DeliveryHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	delivery, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, delivery); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DeliveryHandler) AssignDriver(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.AssignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AssignDriver", err)
		return
	}

	ctx := events.WithCorrelationID(r.Context(), middleware.RequestID(r.Context()))
	delivery, err := h.service.AssignDriver(ctx, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "AssignDriver", err)
		return
	}

	if err := httputil.WriteSuccess(w, delivery); err != nil {
		h.log.Error("failed to write success response", "handler", "AssignDriver", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DeliveryHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *DeliveryHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/deliveries", h.Create)
	router.GET("/api/v1/deliveries/:id", h.GetByID)
	router.POST("/api/v1/deliveries/:id/assign", h.AssignDriver)
}
