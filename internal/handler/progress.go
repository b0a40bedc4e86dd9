package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/store"
	ws "github.com/dataprep/ingest/internal/websocket"
)

type ProgressHandler struct {
	store  store.Store
	hub    *ws.Hub
	logger *zap.Logger
}

func NewProgressHandler(st store.Store, hub *ws.Hub, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{store: st, hub: hub, logger: logger.Named("progress_handler")}
}

// Upgrade checks ownership and rejects plain HTTP requests on /ws routes.
func (h *ProgressHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	d, err := loadOwned(c, h.store)
	if err != nil {
		return storeError(c, h.logger, err)
	}
	c.Locals("snapshot", &ws.Message{
		Type:         ws.MessageTypeStatus,
		DatasetID:    d.ID,
		Status:       d.Status,
		Step:         d.Step,
		Progress:     d.Progress,
		ErrorMessage: d.ErrorMessage,
	})
	return c.Next()
}

// Stream handles GET /ws/datasets/:id
func (h *ProgressHandler) Stream() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		snapshot, _ := c.Locals("snapshot").(*ws.Message)
		h.hub.HandleConnection(c, c.Params("id"), snapshot)
	})
}
