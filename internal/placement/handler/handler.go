package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/metrics"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/middleware"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/httputil"
)

// Service defines the placement operations exposed over HTTP.
type Service interface {
	PlaceAgent(ctx context.Context, agentID id.AgentID, planID id.PlanID, sponsorID *id.AgentID) (*models.PlacementResult, error)
	ResolvePosition(ctx context.Context, sponsorID id.AgentID, planID id.PlanID) (*models.Slot, error)
	Tree(ctx context.Context, agentID id.AgentID, planID id.PlanID) (*models.TreeNode, error)
	Reconcile(ctx context.Context, planID id.PlanID) (*models.ReconcileResult, error)
}

// Handler serves the placement endpoints.
type Handler struct {
	service        Service
	logger         *slog.Logger
	metrics        *metrics.Metrics
	adminToken     string
	requestTimeout time.Duration
}

// New creates a placement Handler. Admin routes reject every request when
// adminToken is empty.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, adminToken string) *Handler {
	return &Handler{
		service:        service,
		logger:         logger,
		metrics:        m,
		adminToken:     adminToken,
		requestTimeout: 30 * time.Second,
	}
}

// Register registers the placement routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(h.requestTimeout))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.LatencyMiddleware(h.metrics))

		router.Post("/placements", h.handlePlace)
		router.Get("/placements/preview", h.handlePreview)
		router.Get("/trees/{agentID}", h.handleTree)
		router.With(middleware.RequireAdminToken(h.adminToken, h.logger)).
			Post("/admin/placements/reconcile", h.handleReconcile)
	})
}

func (h *Handler) handlePlace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeJSON[PlaceRequest](w, r, h.logger)
	if !ok {
		return
	}
	agentID, planID, sponsorID, err := req.Parse()
	if err != nil {
		h.logger.WarnContext(ctx, "invalid placement request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.PlaceAgent(ctx, agentID, planID, sponsorID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "placement failed")
		return
	}

	status := http.StatusCreated
	if result.AlreadyPlaced {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, toPlacementResponse(result))
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	sponsorID, err := id.ParseAgentID(query.Get("sponsor_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "sponsor_id must be a valid UUID"))
		return
	}
	planID, err := parsePlanQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	slot, err := h.service.ResolvePosition(ctx, sponsorID, planID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "preview failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSlotResponse(slot))
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	agentID, err := id.ParseAgentID(chi.URLParam(r, "agentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "agent id must be a valid UUID"))
		return
	}
	planID, err := parsePlanQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tree, err := h.service.Tree(ctx, agentID, planID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "tree lookup failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tree)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	planID, err := parsePlanQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Reconcile(ctx, planID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "reconciliation failed")
		return
	}
	h.logger.InfoContext(ctx, "reconciliation requested",
		"request_id", middleware.GetRequestID(ctx),
		"plan_id", planID.String(),
		"nodes_checked", result.NodesChecked,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// writeServiceError logs at a level matching the failure class and renders it.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"code", string(code),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"code", string(code),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func parsePlanQuery(r *http.Request) (id.PlanID, error) {
	planID, err := id.ParsePlanID(r.URL.Query().Get("plan_id"))
	if err != nil {
		return id.PlanID{}, dErrors.New(dErrors.CodeInvalidInput, "plan_id must be a valid UUID")
	}
	return planID, nil
}
