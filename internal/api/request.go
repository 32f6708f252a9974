package api

import (
	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/trades-service/pkg/model"
)

// TradeCreateRequest is the payload to create a trade. Required fields are
// pointers so presence can be told apart from a zero value.
type TradeCreateRequest struct {
	Monto         *decimal.Decimal `json:"monto" example:"150.50"`
	Canal         string           `json:"canal,omitempty" example:"web"`
	FechaCreacion *model.Date      `json:"fechaCreacion,omitempty" example:"2026-08-28"`
	IDCliente     *int64           `json:"idCliente" example:"42"`
}
