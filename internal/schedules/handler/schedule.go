package handler

import (
	"net/http"

	"fleetsched/internal/schedules/service"
	httputil "fleetsched/pkg/http"
	"fleetsched/pkg/logger"
	"fleetsched/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ValidateScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Validate", err)
		return
	}

	result, err := h.service.ValidateSchedule(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Validate", err)
		return
	}

	h.writeSuccess(w, "Validate", result)
}

func (h *ScheduleHandler) Alternatives(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AlternativesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Alternatives", err)
		return
	}

	resp, err := h.service.SuggestAlternatives(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Alternatives", err)
		return
	}

	h.writeSuccess(w, "Alternatives", resp)
}

func (h *ScheduleHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	availability, err := h.service.GetAvailability(r.Context(), ps.ByName("driverId"), ps.ByName("date"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	h.writeSuccess(w, "Availability", availability)
}

func (h *ScheduleHandler) Workload(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	workload, err := h.service.GetWorkload(r.Context(), ps.ByName("driverId"), ps.ByName("date"))
	if err != nil {
		h.writeError(w, "Workload", err)
		return
	}

	h.writeSuccess(w, "Workload", workload)
}

func (h *ScheduleHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/schedule/validate", h.Validate)
	router.POST("/api/v1/schedule/alternatives", h.Alternatives)
	router.GET("/api/v1/drivers/:driverId/availability/:date", h.Availability)
	router.GET("/api/v1/drivers/:driverId/workload/:date", h.Workload)
}
