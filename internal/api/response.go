package api

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Checker-Finance/trades-service/pkg/model"
)

// TradeCreateResponse is the success body for a created trade. Payload is the
// persisted trade, generated identifier included.
type TradeCreateResponse struct {
	Message string      `json:"message"`
	IDTrade int64       `json:"idTrade"`
	Payload model.Trade `json:"payload"`
}

// errorJSON writes {"error": msg} with the given status. If the error payload
// itself cannot be encoded, it falls back to a hand-built literal so the
// caller never receives a broken response.
func errorJSON(c *fiber.Ctx, status int, msg string) error {
	body, err := json.Marshal(fiber.Map{"error": msg})
	if err != nil {
		body = []byte(`{"error":"` + strings.ReplaceAll(msg, `"`, `'`) + `"}`)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}
