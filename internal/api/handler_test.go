package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/trades-service/pkg/model"
)

// --- Mocks ---

type mockRepo struct {
	insertFn func(ctx context.Context, trade model.Trade) (int64, error)
	calls    int
}

func (m *mockRepo) Insert(ctx context.Context, trade model.Trade) (int64, error) {
	m.calls++
	if m.insertFn != nil {
		return m.insertFn(ctx, trade)
	}
	return 0, fmt.Errorf("not implemented")
}

type mockNotifier struct {
	publishFn func(ctx context.Context, trade model.Trade) error
	calls     int
	last      model.Trade
}

func (m *mockNotifier) PublishTradeCreated(ctx context.Context, trade model.Trade) error {
	m.calls++
	m.last = trade
	if m.publishFn != nil {
		return m.publishFn(ctx, trade)
	}
	return nil
}

type mockCache struct {
	cacheFn func(ctx context.Context, trade model.Trade) error
	calls   int
}

func (m *mockCache) CacheTrade(ctx context.Context, trade model.Trade) error {
	m.calls++
	if m.cacheFn != nil {
		return m.cacheFn(ctx, trade)
	}
	return nil
}

// --- Test Helpers ---

func newTestApp(repo TradeInserter, notifier TradeNotifier, cache TradeCache) *fiber.App {
	app := fiber.New()
	handler := NewTradeHandler(zap.NewNop(), repo, notifier, cache)
	app.Post("/trades", handler.CreateTradeHandler)
	return app
}

func postTrade(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, "/trades", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var result map[string]string
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))
	return result
}

// --- CreateTradeHandler Tests ---

func TestCreateTradeHandler_Success(t *testing.T) {
	repo := &mockRepo{
		insertFn: func(ctx context.Context, trade model.Trade) (int64, error) {
			assert.Equal(t, int64(42), trade.IDCliente)
			assert.True(t, trade.Monto.Equal(decimal.NewFromFloat(150.5)))
			return 7, nil
		},
	}
	notifier := &mockNotifier{}
	app := newTestApp(repo, notifier, nil)

	resp := postTrade(t, app, `{"monto":150.5,"idCliente":42}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get("Content-Type"))

	var result TradeCreateResponse
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.Equal(t, "Trade creado", result.Message)
	assert.Equal(t, int64(7), result.IDTrade)
	assert.Equal(t, int64(7), result.Payload.IDTrade)
	assert.True(t, result.Payload.Monto.Equal(decimal.NewFromFloat(150.5)))
	assert.Equal(t, int64(42), result.Payload.IDCliente)
	assert.Equal(t, model.Today().String(), result.Payload.FechaCreacion.String())

	require.Equal(t, 1, notifier.calls)
	assert.Equal(t, int64(7), notifier.last.IDTrade)
}

func TestCreateTradeHandler_EmptyBody(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{}
	app := newTestApp(repo, notifier, nil)

	resp := postTrade(t, app, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "El body no puede ser vacío", decodeError(t, resp)["error"])
	assert.Zero(t, repo.calls)
	assert.Zero(t, notifier.calls)
}

func TestCreateTradeHandler_BlankBody(t *testing.T) {
	repo := &mockRepo{}
	app := newTestApp(repo, nil, nil)

	resp := postTrade(t, app, "   \n\t ")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "El body no puede ser vacío", decodeError(t, resp)["error"])
	assert.Zero(t, repo.calls)
}

func TestCreateTradeHandler_InvalidJSON(t *testing.T) {
	repo := &mockRepo{}
	app := newTestApp(repo, nil, nil)

	resp := postTrade(t, app, "{invalid")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, repo.calls)
}

func TestCreateTradeHandler_EmptyObject_MontoCheckedFirst(t *testing.T) {
	repo := &mockRepo{}
	app := newTestApp(repo, nil, nil)

	// Both monto and idCliente are missing; monto is reported first.
	resp := postTrade(t, app, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "monto es obligatorio y debe ser >= 0", decodeError(t, resp)["error"])
	assert.Zero(t, repo.calls)
}

func TestCreateTradeHandler_NegativeMonto(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{}
	app := newTestApp(repo, notifier, nil)

	resp := postTrade(t, app, `{"monto":-5,"idCliente":1}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "monto es obligatorio y debe ser >= 0", decodeError(t, resp)["error"])
	assert.Zero(t, repo.calls)
	assert.Zero(t, notifier.calls)
}

func TestCreateTradeHandler_MissingIDCliente(t *testing.T) {
	repo := &mockRepo{}
	app := newTestApp(repo, nil, nil)

	resp := postTrade(t, app, `{"monto":10}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "idCliente es obligatorio", decodeError(t, resp)["error"])
	assert.Zero(t, repo.calls)
}

func TestCreateTradeHandler_DefaultFechaCreacion(t *testing.T) {
	var inserted model.Trade
	repo := &mockRepo{
		insertFn: func(ctx context.Context, trade model.Trade) (int64, error) {
			inserted = trade
			return 1, nil
		},
	}
	app := newTestApp(repo, nil, nil)

	resp := postTrade(t, app, `{"monto":1,"idCliente":2}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, model.Today().String(), inserted.FechaCreacion.String())
}

func TestCreateTradeHandler_ExplicitFechaCreacion(t *testing.T) {
	var inserted model.Trade
	repo := &mockRepo{
		insertFn: func(ctx context.Context, trade model.Trade) (int64, error) {
			inserted = trade
			return 1, nil
		},
	}
	app := newTestApp(repo, nil, nil)

	resp := postTrade(t, app, `{"monto":1,"idCliente":2,"fechaCreacion":"2025-12-31"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2025-12-31", inserted.FechaCreacion.String())
}

func TestCreateTradeHandler_CanalPassedThrough(t *testing.T) {
	var inserted model.Trade
	repo := &mockRepo{
		insertFn: func(ctx context.Context, trade model.Trade) (int64, error) {
			inserted = trade
			return 1, nil
		},
	}
	app := newTestApp(repo, nil, nil)

	resp := postTrade(t, app, `{"monto":1,"idCliente":2,"canal":"sucursal"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "sucursal", inserted.Canal)
}

func TestCreateTradeHandler_RepoError(t *testing.T) {
	repo := &mockRepo{
		insertFn: func(ctx context.Context, trade model.Trade) (int64, error) {
			return 0, fmt.Errorf("No se insertó el trade")
		},
	}
	notifier := &mockNotifier{}
	app := newTestApp(repo, notifier, nil)

	resp := postTrade(t, app, `{"monto":10,"idCliente":1}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "No se insertó el trade", decodeError(t, resp)["error"])
	assert.Zero(t, notifier.calls)
}

func TestCreateTradeHandler_NotifyFailure_Still200(t *testing.T) {
	repo := &mockRepo{
		insertFn: func(ctx context.Context, trade model.Trade) (int64, error) {
			return 9, nil
		},
	}
	notifier := &mockNotifier{
		publishFn: func(ctx context.Context, trade model.Trade) error {
			return fmt.Errorf("nats unavailable")
		},
	}
	app := newTestApp(repo, notifier, nil)

	resp := postTrade(t, app, `{"monto":10,"idCliente":1}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result TradeCreateResponse
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))
	assert.Equal(t, int64(9), result.IDTrade)
	assert.Equal(t, 1, notifier.calls)
}

func TestCreateTradeHandler_CacheFailure_Still200(t *testing.T) {
	repo := &mockRepo{
		insertFn: func(ctx context.Context, trade model.Trade) (int64, error) {
			return 3, nil
		},
	}
	cache := &mockCache{
		cacheFn: func(ctx context.Context, trade model.Trade) error {
			return fmt.Errorf("redis down")
		},
	}
	app := newTestApp(repo, nil, cache)

	resp := postTrade(t, app, `{"monto":10,"idCliente":1}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, cache.calls)
}
