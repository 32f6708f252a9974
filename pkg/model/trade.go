package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates (ISO date, no time part).
const DateLayout = "2006-01-02"

func init() {
	// monto goes over the wire as a JSON number, not a quoted string
	decimal.MarshalJSONWithoutQuotes = true
}

// Date is a calendar date marshalled as "YYYY-MM-DD". Only the date portion
// is meaningful; the time-of-day is always midnight UTC.
type Date struct {
	time.Time
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Trade is the persisted record representing a single transaction request.
// IDTrade is zero until the storage engine assigns it.
type Trade struct {
	IDTrade       int64           `json:"idTrade,omitempty"`
	Monto         decimal.Decimal `json:"monto"`
	Canal         string          `json:"canal,omitempty"`
	FechaCreacion Date            `json:"fechaCreacion"`
	IDCliente     int64           `json:"idCliente"`
}

// WithID returns a copy of the trade carrying the generated identifier.
// The receiver is left untouched; no shared mutable instance crosses the
// persist/notify boundary.
func (t Trade) WithID(id int64) Trade {
	t.IDTrade = id
	return t
}
