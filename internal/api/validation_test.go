package api

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/trades-service/pkg/model"
)

func dec(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func i64(v int64) *int64 {
	return &v
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     TradeCreateRequest
		wantErr string
	}{
		{
			name: "valid request",
			req:  TradeCreateRequest{Monto: dec(150.5), IDCliente: i64(42)},
		},
		{
			name: "zero monto is allowed",
			req:  TradeCreateRequest{Monto: dec(0), IDCliente: i64(1)},
		},
		{
			name:    "missing monto",
			req:     TradeCreateRequest{IDCliente: i64(1)},
			wantErr: "monto es obligatorio y debe ser >= 0",
		},
		{
			name:    "negative monto",
			req:     TradeCreateRequest{Monto: dec(-5), IDCliente: i64(1)},
			wantErr: "monto es obligatorio y debe ser >= 0",
		},
		{
			name:    "missing idCliente",
			req:     TradeCreateRequest{Monto: dec(10)},
			wantErr: "idCliente es obligatorio",
		},
		{
			name:    "both missing reports monto first",
			req:     TradeCreateRequest{},
			wantErr: "monto es obligatorio y debe ser >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
			}
		})
	}
}

func TestToTrade_DefaultsFechaCreacion(t *testing.T) {
	trade := toTrade(TradeCreateRequest{Monto: dec(10), IDCliente: i64(1)})
	assert.Equal(t, model.Today().String(), trade.FechaCreacion.String())
	assert.Zero(t, trade.IDTrade)
}

func TestToTrade_KeepsExplicitFechaCreacion(t *testing.T) {
	fecha := model.DateOf(model.Today().AddDate(-1, 0, 0))
	trade := toTrade(TradeCreateRequest{Monto: dec(10), IDCliente: i64(1), FechaCreacion: &fecha})
	assert.Equal(t, fecha.String(), trade.FechaCreacion.String())
}
