package api

import (
	"time"

	"Boardroom/internal/domain/repository"
	"Boardroom/internal/ledger"
	xhttp "Boardroom/pkg/http"
	xlogger "Boardroom/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OpsHandler exposes the read-only operational surface: health, recent gate
// decisions, open positions and the portfolio summary.
type OpsHandler struct {
	ledger *ledger.Ledger
	audit  repository.AuditLog
	logger *xlogger.Logger
}

func NewOpsHandler(led *ledger.Ledger, audit repository.AuditLog, logger *xlogger.Logger) *OpsHandler {
	return &OpsHandler{ledger: led, audit: audit, logger: logger.With("api")}
}

func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/api/decisions", h.Decisions)
	e.GET("/api/positions", h.Positions)
	e.GET("/api/summary", h.Summary)
}

func (h *OpsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

type decisionsRequest struct {
	Symbol string `query:"symbol"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

func (h *OpsHandler) Decisions(c echo.Context) error {
	var req decisionsRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	decisions, err := h.audit.RecentDecisions(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("decisions query failed", xlogger.Error(err))
		return xhttp.InternalErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, decisions)
}

func (h *OpsHandler) Positions(c echo.Context) error {
	positions, err := h.ledger.Positions(c.Request().Context())
	if err != nil {
		h.logger.Error("positions query failed", xlogger.Error(err))
		return xhttp.InternalErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, positions)
}

func (h *OpsHandler) Summary(c echo.Context) error {
	summary, err := h.ledger.Summary(c.Request().Context())
	if err != nil {
		h.logger.Error("summary query failed", xlogger.Error(err))
		return xhttp.InternalErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, summary)
}
