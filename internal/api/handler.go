package api

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/trades-service/internal/metrics"
	"github.com/Checker-Finance/trades-service/pkg/model"
)

// TradeInserter defines the persistence operation needed by the handler.
type TradeInserter interface {
	Insert(ctx context.Context, trade model.Trade) (int64, error)
}

// TradeNotifier publishes the trade.created event after a successful insert.
type TradeNotifier interface {
	PublishTradeCreated(ctx context.Context, trade model.Trade) error
}

// TradeCache caches created trades for readers.
type TradeCache interface {
	CacheTrade(ctx context.Context, trade model.Trade) error
}

// TradeHandler handles HTTP API requests for trade creation.
type TradeHandler struct {
	logger   *zap.Logger
	repo     TradeInserter
	notifier TradeNotifier
	cache    TradeCache
}

// NewTradeHandler creates a new TradeHandler.
// notifier and cache are optional — if nil, those steps are skipped.
func NewTradeHandler(logger *zap.Logger, repo TradeInserter, notifier TradeNotifier, cache TradeCache) *TradeHandler {
	return &TradeHandler{
		logger:   logger,
		repo:     repo,
		notifier: notifier,
		cache:    cache,
	}
}

// CreateTradeHandler runs the create pipeline: body check, validation,
// transactional insert, then best-effort cache and publish. Only validation
// and persistence failures change the HTTP outcome.
func (h *TradeHandler) CreateTradeHandler(c *fiber.Ctx) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		metrics.IncTradeCreated("rejected")
		return errorJSON(c, fiber.StatusBadRequest, "El body no puede ser vacío")
	}

	var req TradeCreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		metrics.IncTradeCreated("rejected")
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		metrics.IncTradeCreated("rejected")
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	trade := toTrade(req)

	id, err := h.repo.Insert(c.Context(), trade)
	if err != nil {
		h.logger.Error("trades.create.failed",
			zap.Int64("id_cliente", trade.IDCliente),
			zap.Error(err))
		metrics.IncTradeCreated("error")
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	persisted := trade.WithID(id)

	if h.cache != nil {
		if err := h.cache.CacheTrade(c.Context(), persisted); err != nil {
			h.logger.Warn("trades.cache_failed",
				zap.Int64("id_trade", id),
				zap.Error(err))
		}
	}

	// Publish failure never changes the outcome: the trade is committed.
	if h.notifier != nil {
		if err := h.notifier.PublishTradeCreated(c.Context(), persisted); err != nil {
			h.logger.Warn("trades.publish_failed",
				zap.Int64("id_trade", id),
				zap.Error(err))
		}
	}

	metrics.IncTradeCreated("ok")
	return c.Status(fiber.StatusOK).JSON(TradeCreateResponse{
		Message: "Trade creado",
		IDTrade: id,
		Payload: persisted,
	})
}

// toTrade converts a validated API request to the canonical trade,
// defaulting fechaCreacion to the current date when absent.
func toTrade(req TradeCreateRequest) model.Trade {
	fecha := model.Today()
	if req.FechaCreacion != nil {
		fecha = *req.FechaCreacion
	}
	return model.Trade{
		Monto:         *req.Monto,
		Canal:         req.Canal,
		FechaCreacion: fecha,
		IDCliente:     *req.IDCliente,
	}
}
