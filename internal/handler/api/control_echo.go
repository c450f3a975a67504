package api

import (
	models "TradeWolf/internal/domain/models"
	xhttp "TradeWolf/pkg/http"
	xlogger "TradeWolf/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Controller is the control surface the HTTP layer drives. Stop is terminal;
// a stopped loop is restarted by restarting the process.
type Controller interface {
	ForceScan()
	Stop()
	SetStrategyMode(mode models.StrategyMode)
}

// ControlEchoHandler exposes bot status and runtime controls over HTTP.
type ControlEchoHandler struct {
	logger *xlogger.Logger
	status *models.BotStatus
	ctrl   Controller
}

func NewControlEchoHandler(logger *xlogger.Logger, status *models.BotStatus, ctrl Controller) *ControlEchoHandler {
	return &ControlEchoHandler{logger: logger, status: status, ctrl: ctrl}
}

func (h *ControlEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/status", h.Status)
	g.POST("/scan", h.ForceScan)
	g.POST("/strategy", h.Strategy)
	g.POST("/stop", h.Stop)
}

func (h *ControlEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.status.Snapshot())
}

func (h *ControlEchoHandler) ForceScan(c echo.Context) error {
	h.ctrl.ForceScan()
	h.logger.Info("scan forced via api")
	return xhttp.AcceptedResponse(c, map[string]string{"result": "scan scheduled"})
}

func (h *ControlEchoHandler) Strategy(c echo.Context) error {
	req := &models.StrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	mode, _ := models.ParseStrategyMode(req.Mode)
	h.ctrl.SetStrategyMode(mode)
	h.logger.Info("strategy mode changed via api", xlogger.String("mode", string(mode)))
	return xhttp.SuccessResponse(c, map[string]string{"mode": string(mode)})
}

func (h *ControlEchoHandler) Stop(c echo.Context) error {
	h.ctrl.Stop()
	h.logger.Info("stop requested via api")
	return xhttp.AcceptedResponse(c, map[string]string{"result": "stopping"})
}
