package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbase/backend/internal/auth"
	"github.com/splitbase/backend/internal/chain"
	"github.com/splitbase/backend/internal/events"
	"github.com/splitbase/backend/internal/insights"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/models"
	"github.com/splitbase/backend/internal/storage/sqlite"
)

const (
	alice   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bob     = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	charlie = "0xcccccccccccccccccccccccccccccccccccccccc"
)

// fakeGateway stands in for the chain RPC.
type fakeGateway struct {
	verifyErr error
	verified  []chain.Transfer
}

func (f *fakeGateway) NativeBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromFloat(1.5), nil
}

func (f *fakeGateway) TokenBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(25), nil
}

func (f *fakeGateway) VerifyTransfer(_ context.Context, t chain.Transfer) error {
	f.verified = append(f.verified, t)
	return f.verifyErr
}

type testEnv struct {
	router  chi.Router
	store   *sqlite.SQLiteStore
	gateway *fakeGateway
	tokens  map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gateway := &fakeGateway{}
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewAuthenticator(store, auth.NewNonceStore(time.Minute), tokens, logger)
	advisor := insights.NewAdvisor(nil, logger)

	svc := New(store, authenticator, tokens, gateway, events.NoopEmitter{}, advisor, logger)

	router := chi.NewRouter()
	router.Route("/api/v1", svc.Routes)

	env := &testEnv{
		router:  router,
		store:   store,
		gateway: gateway,
		tokens:  make(map[string]string),
	}

	for _, wallet := range []string{alice, bob, charlie} {
		user := &models.User{WalletAddress: wallet, DefaultCurrency: "USD"}
		require.NoError(t, store.CreateUser(context.Background(), user))

		token, err := tokens.Generate(user.ID, wallet)
		require.NoError(t, err)
		env.tokens[wallet] = token
	}

	return env
}

func (env *testEnv) do(t *testing.T, method, path, wallet string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	} else if method == http.MethodPost || method == http.MethodPatch {
		buf.WriteString("{}")
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if wallet != "" {
		req.Header.Set("Authorization", "Bearer "+env.tokens[wallet])
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func (env *testEnv) createGroup(t *testing.T, members ...string) *models.Group {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/groups", alice, map[string]any{
		"name":    "Trip",
		"members": members,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[*models.Group](t, rec)
}

func (env *testEnv) addDinner(t *testing.T, groupID string) createExpenseResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/groups/"+groupID+"/expenses", alice, map[string]any{
		"description": "Dinner",
		"amount":      90,
		"currency":    "USD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[createExpenseResponse](t, rec)
}

func (env *testEnv) balances(t *testing.T, wallet string) balancesResponse {
	t.Helper()
	rec := env.do(t, http.MethodGet, "/api/v1/balances", wallet, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[balancesResponse](t, rec)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGroupAccess(t *testing.T) {
	env := newTestEnv(t)
	group := env.createGroup(t, bob)

	t.Run("member sees the group", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/groups/"+group.ID, bob, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/groups/"+group.ID, charlie, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/groups/nope", alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateExpense(t *testing.T) {
	env := newTestEnv(t)
	group := env.createGroup(t, bob, charlie)

	t.Run("equal split across all members", func(t *testing.T) {
		created := env.addDinner(t, group.ID)
		require.Len(t, created.Expense.SplitBetween, 3)
		for _, share := range created.Expense.SplitBetween {
			assert.InDelta(t, 30, share.Amount, 1e-9)
		}
		assert.Equal(t, created.Expense.ID, created.Transaction.ExpenseID)
	})

	t.Run("free-form category is stored as submitted", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/groups/"+group.ID+"/expenses", alice, map[string]any{
			"description": "Weekly shop",
			"amount":      55,
			"category":    "Groceries",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decodeBody[createExpenseResponse](t, rec)
		assert.Equal(t, "Groceries", created.Expense.Category)
	})

	t.Run("exact split that does not reconcile is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/groups/"+group.ID+"/expenses", alice, map[string]any{
			"description":   "Hotel",
			"amount":        100,
			"splitStrategy": "exact",
			"participants":  []string{alice, bob, charlie},
			"splits":        map[string]string{alice: "40", bob: "35", charlie: "26"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		resp := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "validation", resp.Error.Code)
	})

	t.Run("non-member participant is rejected", func(t *testing.T) {
		outsider := "0xdddddddddddddddddddddddddddddddddddddddd"
		rec := env.do(t, http.MethodPost, "/api/v1/groups/"+group.ID+"/expenses", alice, map[string]any{
			"description":  "Taxi",
			"amount":       20,
			"participants": []string{alice, outsider},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported currency is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/groups/"+group.ID+"/expenses", alice, map[string]any{
			"description": "Snacks",
			"amount":      10,
			"currency":    "JPY",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSettlementFlow(t *testing.T) {
	env := newTestEnv(t)
	group := env.createGroup(t, bob, charlie)
	created := env.addDinner(t, group.ID)
	txID := created.Transaction.ID

	t.Run("participants owe the payer", func(t *testing.T) {
		resp := env.balances(t, bob)
		assert.InDelta(t, -30, resp.Balances[alice]["USD"], 1e-9)

		resp = env.balances(t, alice)
		assert.InDelta(t, 30, resp.Balances[bob]["USD"], 1e-9)
		assert.InDelta(t, 30, resp.Balances[charlie]["USD"], 1e-9)
	})

	t.Run("intent creates a pending settlement", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+txID+"/settlements", bob, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		settlement := decodeBody[models.Settlement](t, rec)
		assert.Equal(t, models.SettlementPending, settlement.Status)
		assert.Equal(t, alice, settlement.ReceiverID)
		assert.InDelta(t, 30, settlement.Amount, 1e-9)

		// Pending settlements do not move balances.
		resp := env.balances(t, bob)
		assert.InDelta(t, -30, resp.Balances[alice]["USD"], 1e-9)
	})

	t.Run("payer cannot settle", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+txID+"/settlements", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("declined transfer leaves no completed record", func(t *testing.T) {
		env.gateway.verifyErr = chain.ErrTransferMismatch
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+txID+"/settlements/confirm", bob, map[string]any{
			"transactionHash": "0x1111111111",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		resp := env.balances(t, bob)
		assert.InDelta(t, -30, resp.Balances[alice]["USD"], 1e-9)
	})

	t.Run("unmined transfer is retryable", func(t *testing.T) {
		env.gateway.verifyErr = chain.ErrTxNotFound
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+txID+"/settlements/confirm", bob, map[string]any{
			"transactionHash": "0x1111111111",
		})
		require.Equal(t, http.StatusBadGateway, rec.Code)
		resp := decodeBody[errorResponse](t, rec)
		assert.True(t, resp.Error.Retryable)
	})

	t.Run("verified transfer completes the settlement", func(t *testing.T) {
		env.gateway.verifyErr = nil
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+txID+"/settlements/confirm", bob, map[string]any{
			"transactionHash": "0xABC4567890",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		settlement := decodeBody[models.Settlement](t, rec)
		assert.Equal(t, models.SettlementCompleted, settlement.Status)

		// The verified transfer was the viewer's share converted to ether.
		last := env.gateway.verified[len(env.gateway.verified)-1]
		assert.Equal(t, bob, last.From)
		assert.Equal(t, alice, last.To)
		expectedEth := 30.0 / 2243.52
		got, _ := last.Amount.Float64()
		assert.InDelta(t, expectedEth, got, 1e-9)

		// Both sides now read zero for this pair.
		resp := env.balances(t, bob)
		assert.True(t, math.Abs(resp.Balances[alice]["USD"]) < 1e-9, "bob still owes: %v", resp.Balances)

		resp = env.balances(t, alice)
		assert.True(t, math.Abs(resp.Balances[bob]["USD"]) < 1e-9, "alice still owed: %v", resp.Balances)
		assert.InDelta(t, 30, resp.Balances[charlie]["USD"], 1e-9, "charlie's debt must be untouched")
	})

	t.Run("same hash is idempotent", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+txID+"/settlements/confirm", bob, map[string]any{
			"transactionHash": "0xABC4567890",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("different hash conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+txID+"/settlements/confirm", bob, map[string]any{
			"transactionHash": "0xDEF4567890",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("hash reuse for another obligation conflicts", func(t *testing.T) {
		second := env.addDinner(t, group.ID)
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+second.Transaction.ID+"/settlements/confirm", bob, map[string]any{
			"transactionHash": "0xABC4567890",
		})
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	})

	t.Run("non-participant cannot settle", func(t *testing.T) {
		env2 := newTestEnv(t)
		g := env2.createGroup(t, bob)
		exp := env2.addDinner(t, g.ID)
		rec := env2.do(t, http.MethodPost, "/api/v1/transactions/"+exp.Transaction.ID+"/settlements", charlie, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

// hangingGateway blocks until the request context expires, then fails the way
// the real client does when the RPC dies under it.
type hangingGateway struct {
	fakeGateway
}

func (h *hangingGateway) VerifyTransfer(ctx context.Context, _ chain.Transfer) error {
	<-ctx.Done()
	return fmt.Errorf("%w: %v", chain.ErrUnavailable, ctx.Err())
}

func TestHungChainCallIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	group := env.createGroup(t, bob)
	created := env.addDinner(t, group.ID)

	// Rebuild the router with a tight request budget and a gateway that never
	// answers.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewAuthenticator(env.store, auth.NewNonceStore(time.Minute), tokens, logger)
	svc := New(env.store, authenticator, tokens, &hangingGateway{}, events.NoopEmitter{}, insights.NewAdvisor(nil, logger), logger)

	router := chi.NewRouter()
	router.Use(middleware.Timeout(20 * time.Millisecond))
	router.Route("/api/v1", svc.Routes)
	env.router = router

	rec := env.do(t, http.MethodPost, "/api/v1/transactions/"+created.Transaction.ID+"/settlements/confirm", bob, map[string]any{
		"transactionHash": "0x1111111111",
	})
	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	resp := decodeBody[errorResponse](t, rec)
	assert.True(t, resp.Error.Retryable)
}

func TestBalancesConvertedTotal(t *testing.T) {
	env := newTestEnv(t)
	group := env.createGroup(t, bob)
	env.addDinner(t, group.ID)

	rec := env.do(t, http.MethodGet, "/api/v1/balances?currency=USD", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[balancesResponse](t, rec)
	assert.InDelta(t, 45, resp.Totals[bob], 1e-9)

	rec = env.do(t, http.MethodGet, "/api/v1/balances?currency=JPY", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroupLedger(t *testing.T) {
	env := newTestEnv(t)
	group := env.createGroup(t, bob, charlie)
	env.addDinner(t, group.ID)

	rec := env.do(t, http.MethodGet, "/api/v1/groups/"+group.ID+"/ledger", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entries []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Dinner", entries[0]["description"])
	assert.Contains(t, entries[0]["summary"], "$90.00")
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)

	t.Run("patch display name and currency", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/api/v1/me", alice, map[string]any{
			"displayName":     "Alice",
			"defaultCurrency": "EUR",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		user := decodeBody[models.User](t, rec)
		assert.Equal(t, "Alice", user.DisplayName)
		assert.Equal(t, "EUR", user.DefaultCurrency)
	})

	t.Run("unsupported currency rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/api/v1/me", alice, map[string]any{
			"defaultCurrency": "JPY",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWalletBalances(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/wallet/balances", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[walletBalancesResponse](t, rec)
	assert.Equal(t, alice, resp.Address)
	assert.Equal(t, "1.5", resp.ETH)
	assert.Equal(t, "25", resp.USDC)
}

func TestInsights(t *testing.T) {
	env := newTestEnv(t)
	group := env.createGroup(t, bob)
	env.addDinner(t, group.ID)

	t.Run("budget summary always present", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/insights/budget", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeBody[budgetResponse](t, rec)
		assert.NotEmpty(t, resp.Summary)
		assert.Equal(t, "USD", resp.Currency)
		assert.InDelta(t, 45, resp.CurrentMonth, 1e-9)
	})

	t.Run("category suggestion defaults without model", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/insights/category", bob, map[string]any{
			"description": "Uber to airport",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[categoryResponse](t, rec)
		assert.Equal(t, models.DefaultCategory, resp.Category)
	})
}
