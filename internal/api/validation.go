package api

import "fmt"

// Validate checks required fields. monto is checked before idCliente; the
// first violation wins. fechaCreacion is optional and defaulted in toTrade.
func (r TradeCreateRequest) Validate() error {
	if r.Monto == nil || r.Monto.IsNegative() {
		return fmt.Errorf("monto es obligatorio y debe ser >= 0")
	}
	if r.IDCliente == nil {
		return fmt.Errorf("idCliente es obligatorio")
	}
	return nil
}
