package clanbattleapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HTTPHandlers serves the read-mostly admin API.
type HTTPHandlers struct {
	service   Service
	scheduler Scheduler
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewHTTPHandlers creates the API handlers. scheduler may be nil, in which
// case the job routes answer 503.
func NewHTTPHandlers(service Service, scheduler Scheduler, logger *slog.Logger, tracer trace.Tracer) *HTTPHandlers {
	return &HTTPHandlers{
		service:   service,
		scheduler: scheduler,
		logger:    logger,
		tracer:    tracer,
	}
}

// Routes registers the API under r. Callers mount it at /api/clanbattle.
func (h *HTTPHandlers) Routes(r chi.Router) {
	r.Get("/bosses", h.HandleListBosses)
	r.Post("/bosses", h.HandleSetupBoss)
	r.Get("/bosses/{slot}/panel", h.HandleBossPanel)
	r.Get("/daily", h.HandleDaily)
	r.Get("/daily/chart.png", h.HandleDailyChart)
	r.Post("/daily/emit", h.HandleTriggerDaily)
	r.Get("/jobs", h.HandleListJobs)
	r.Get("/exports/attacks.xlsx", h.HandleExportAttacks)
}

func (h *HTTPHandlers) HandleListBosses(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleListBosses")
	defer span.End()

	bosses, err := h.service.ListBosses(ctx, h.service.CurrentCycleKey())
	if err != nil {
		h.fail(w, r, "Failed to list bosses", err)
		return
	}
	writeJSON(w, http.StatusOK, bosses)
}

func (h *HTTPHandlers) HandleSetupBoss(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleSetupBoss")
	defer span.End()

	var req SetupBossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("slot", req.Slot))

	hp, err := h.service.TierTable().HPTableFromList(req.MaxHP)
	if err != nil {
		h.fail(w, r, "Rejected boss setup", err)
		return
	}
	boss, err := h.service.SetupBoss(ctx, h.service.CurrentCycleKey(), req.Slot, strings.TrimSpace(req.Name), hp)
	if err != nil {
		h.fail(w, r, "Failed to set up boss", err)
		return
	}

	if err := h.service.PostBossPanel(ctx, req.Slot); err != nil {
		h.logger.WarnContext(ctx, "Boss set up but panel post failed",
			slog.Int("slot", req.Slot),
			slog.Any("error", err),
		)
	}
	writeJSON(w, http.StatusCreated, boss)
}

func (h *HTTPHandlers) HandleBossPanel(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleBossPanel")
	defer span.End()

	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || slot < 1 {
		http.Error(w, "invalid slot", http.StatusBadRequest)
		return
	}

	model, err := h.service.BuildPanel(ctx, h.service.CurrentCycleKey(), slot)
	if err != nil {
		h.fail(w, r, "Failed to build boss panel", err)
		return
	}
	if model == nil {
		http.Error(w, clanbattledomain.ErrUnknownBoss.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (h *HTTPHandlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleDaily")
	defer span.End()

	cycle, day := h.service.CurrentCycleKey(), h.service.CurrentDayIndex()
	model, err := h.service.BuildDailyStatus(ctx, cycle, day)
	if err != nil {
		h.fail(w, r, "Failed to build daily status", err)
		return
	}
	counts, err := h.service.DailyCounts(ctx, cycle, day)
	if err != nil {
		h.fail(w, r, "Failed to count daily attacks", err)
		return
	}
	writeJSON(w, http.StatusOK, DailyResponse{
		CycleKey: cycle,
		DayIndex: day,
		Panel:    model,
		Counts:   counts,
	})
}

func (h *HTTPHandlers) HandleDailyChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleDailyChart")
	defer span.End()

	day := h.service.CurrentDayIndex()
	counts, err := h.service.DailyCounts(ctx, h.service.CurrentCycleKey(), day)
	if err != nil {
		h.fail(w, r, "Failed to count daily attacks", err)
		return
	}
	if len(counts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	png, err := RenderDamageChart(clanbattledomain.FormatDayIndex(day), counts)
	if err != nil {
		h.fail(w, r, "Failed to render damage chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *HTTPHandlers) HandleTriggerDaily(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleTriggerDaily")
	defer span.End()

	if h.scheduler == nil {
		http.Error(w, "scheduler unavailable", http.StatusServiceUnavailable)
		return
	}
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChannelID == "" {
		http.Error(w, "channel_id is required", http.StatusBadRequest)
		return
	}
	if err := h.scheduler.TriggerDailyStatus(ctx, req.ChannelID); err != nil {
		h.fail(w, r, "Failed to enqueue daily status", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "channel_id": req.ChannelID})
}

func (h *HTTPHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleListJobs")
	defer span.End()

	if h.scheduler == nil {
		http.Error(w, "scheduler unavailable", http.StatusServiceUnavailable)
		return
	}
	jobs, err := h.scheduler.GetScheduledJobs(ctx)
	if err != nil {
		h.fail(w, r, "Failed to list scheduled jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *HTTPHandlers) HandleExportAttacks(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleExportAttacks")
	defer span.End()

	cycle := h.service.CurrentCycleKey()
	attacks, err := h.service.ListCycleAttacks(ctx, cycle)
	if err != nil {
		h.fail(w, r, "Failed to list attacks", err)
		return
	}

	data, err := ExportAttacks(attacks)
	if err != nil {
		h.fail(w, r, "Failed to build attack export", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="attacks-`+cycle+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// fail logs err and answers with the status its kind maps to.
func (h *HTTPHandlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	} else {
		h.logger.InfoContext(r.Context(), msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch clanbattledomain.Classify(err) {
	case clanbattledomain.KindValidation:
		return http.StatusBadRequest
	case clanbattledomain.KindStateConflict:
		return http.StatusConflict
	case clanbattledomain.KindNotFound:
		return http.StatusNotFound
	case clanbattledomain.KindTransport:
		return http.StatusBadGateway
	}
	if errors.Is(err, errNoData) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
