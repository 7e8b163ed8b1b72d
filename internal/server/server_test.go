package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/USA-RedDragon/contract-relay/internal/contract"
	"github.com/USA-RedDragon/contract-relay/internal/db"
	"github.com/USA-RedDragon/contract-relay/internal/db/models"
	"github.com/USA-RedDragon/contract-relay/internal/events"
	"github.com/USA-RedDragon/contract-relay/internal/metrics"
	"github.com/USA-RedDragon/contract-relay/internal/privy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

type stubSigner struct {
	mu    sync.Mutex
	calls []privy.SendTransactionRequest
	hash  string
	err   error
}

func (s *stubSigner) SendTransaction(_ context.Context, req privy.SendTransactionRequest) (privy.SendTransactionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return privy.SendTransactionResponse{}, s.err
	}
	return privy.SendTransactionResponse{Hash: s.hash, CAIP2: req.CAIP2}, nil
}

func (s *stubSigner) Calls() []privy.SendTransactionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]privy.SendTransactionRequest(nil), s.calls...)
}

type stubReader struct {
	value *big.Int
	err   error
}

func (r *stubReader) Retrieve(_ context.Context) (*big.Int, error) {
	return r.value, r.err
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Privy: config.Privy{
			AppID:    "app",
			ClientID: "client",
			SignerID: "signer",
		},
		Chain: config.Chain{
			ID:          84532,
			RPCURL:      "https://sepolia.base.org",
			ExplorerURL: "https://sepolia.basescan.org",
		},
		Contract: config.Contract{
			Address: testContractAddress,
		},
	}
}

func testDependencies(signer *stubSigner) Dependencies {
	return Dependencies{
		Signer:  signer,
		Reader:  &stubReader{value: big.NewInt(7)},
		Metrics: metrics.NewMetrics(prometheus.NewRegistry()),
	}
}

func makeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.MakeDB(&config.Config{
		Persistence: config.Persistence{
			Database: config.Database{
				Driver:   config.DatabaseDriverSQLite,
				Database: filepath.Join(t.TempDir(), "test.db"),
			},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := database.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestWriteSuccess(t *testing.T) {
	t.Parallel()
	signer := &stubSigner{hash: "0xabc"}
	router := newRouter(testConfig(), testDependencies(signer))

	w := doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 42, "walletId": "w1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hash": "0xabc"}`, w.Body.String())

	calls := signer.Calls()
	require.Len(t, calls, 1)
	expectedData, err := contract.EncodeStore(big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, "w1", calls[0].WalletID)
	assert.Equal(t, "eip155:84532", calls[0].CAIP2)
	assert.Equal(t, common.HexToAddress(testContractAddress), calls[0].Transaction.To)
	assert.Equal(t, uint64(84532), calls[0].Transaction.ChainID)
	assert.Equal(t, expectedData, calls[0].Transaction.Data)
}

func TestWriteIntegralNotation(t *testing.T) {
	t.Parallel()
	bodies := map[string]int64{
		`{"inputValue": 1e3, "walletId": "w1"}`:  1000,
		`{"inputValue": 42.0, "walletId": "w1"}`: 42,
		`{"inputValue": "42", "walletId": "w1"}`: 42,
	}
	for body, want := range bodies {
		t.Run(body, func(t *testing.T) {
			t.Parallel()
			signer := &stubSigner{hash: "0xabc"}
			router := newRouter(testConfig(), testDependencies(signer))

			w := doRequest(t, router, http.MethodPost, "/api/privy", body, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"hash": "0xabc"}`, w.Body.String())

			calls := signer.Calls()
			require.Len(t, calls, 1)
			expectedData, err := contract.EncodeStore(big.NewInt(want))
			require.NoError(t, err)
			assert.Equal(t, expectedData, calls[0].Transaction.Data)
		})
	}
}

func TestWriteSignerFailure(t *testing.T) {
	t.Parallel()
	signer := &stubSigner{err: errors.New("insufficient funds")}
	router := newRouter(testConfig(), testDependencies(signer))

	w := doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 42, "walletId": "w1"}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "Transaction failed", "details": "insufficient funds"}`, w.Body.String())
	assert.Len(t, signer.Calls(), 1)
}

type panickingSigner struct{}

func (panickingSigner) SendTransaction(context.Context, privy.SendTransactionRequest) (privy.SendTransactionResponse, error) {
	panic("wallet API client crashed")
}

func TestWriteSignerPanicReleasesInFlight(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	deps := testDependencies(nil)
	deps.Signer = panickingSigner{}
	deps.Metrics = metrics.NewMetrics(registry)
	router := newRouter(testConfig(), deps)

	w := doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 42, "walletId": "w1"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	expected := `
# HELP contract_writes_in_flight The number of write requests waiting on the wallet API
# TYPE contract_writes_in_flight gauge
contract_writes_in_flight 0
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "contract_writes_in_flight"))
	count, err := testutil.GatherAndCount(registry, "privy_send_transaction_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWriteMalformedBody(t *testing.T) {
	t.Parallel()
	bodies := map[string]string{
		"not json":        `not json`,
		"empty":           ``,
		"truncated":       `{"inputValue": 42,`,
		"array":           `[42, "w1"]`,
		"string value":    `{"inputValue": "forty-two", "walletId": "w1"}`,
		"fractional":      `{"inputValue": 1.5, "walletId": "w1"}`,
		"negative":        `{"inputValue": -1, "walletId": "w1"}`,
		"missing value":   `{"walletId": "w1"}`,
		"too large value": `{"inputValue": 115792089237316195423570985008687907853269984665640564039457584007913129639936, "walletId": "w1"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			signer := &stubSigner{hash: "0xabc"}
			router := newRouter(testConfig(), testDependencies(signer))

			w := doRequest(t, router, http.MethodPost, "/api/privy", body, map[string]string{"Content-Type": "application/json"})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error": "Invalid JSON body"}`, w.Body.String())
			assert.Empty(t, signer.Calls())
		})
	}
}

func TestWriteForwardsWalletIDAsGiven(t *testing.T) {
	t.Parallel()
	signer := &stubSigner{err: privy.ErrWalletIDRequired}
	router := newRouter(testConfig(), testDependencies(signer))

	w := doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 1}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	calls := signer.Calls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].WalletID)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Transaction failed", resp["error"])
	assert.Equal(t, privy.ErrWalletIDRequired.Error(), resp["details"])
}

func TestWriteForwardsNonStringWalletID(t *testing.T) {
	t.Parallel()
	signer := &stubSigner{err: errors.New("invalid wallet id")}
	router := newRouter(testConfig(), testDependencies(signer))

	w := doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 42, "walletId": 7}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "Transaction failed", "details": "invalid wallet id"}`, w.Body.String())
	calls := signer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "7", calls[0].WalletID)
}

func TestWriteJournalAndEvents(t *testing.T) {
	t.Parallel()
	database := makeTestDB(t)
	bus := events.NewEventBus()
	signer := &stubSigner{hash: "0xabc"}
	deps := testDependencies(signer)
	deps.DB = database
	deps.Events = bus
	router := newRouter(testConfig(), deps)

	w := doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 42, "walletId": "w1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	tx, err := models.FindTransactionByHash(database, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSent, tx.Status)
	assert.Equal(t, "w1", tx.WalletID)
	assert.Equal(t, "42", tx.InputValue)

	select {
	case event := <-bus.GetChannel():
		sent, ok := event.(events.TransactionSentEvent)
		require.True(t, ok)
		assert.Equal(t, tx.ID.String(), sent.ID)
		assert.Equal(t, "0xabc", sent.Hash)
	case <-time.After(time.Second):
		t.Fatal("expected a transaction event")
	}

	signer.mu.Lock()
	signer.err = errors.New("insufficient funds")
	signer.mu.Unlock()
	w = doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 7, "walletId": "w1"}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	txs, err := models.ListTransactions(database, "w1", 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	var failed *models.Transaction
	for i := range txs {
		if txs[i].Status == models.TransactionStatusFailed {
			failed = &txs[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "insufficient funds", failed.Error)
	assert.Equal(t, "7", failed.InputValue)

	event := <-bus.GetChannel()
	assert.Equal(t, events.EventTypeTransactionFailed, event.GetType())
}

func TestWriteJournalFailureKeepsResponse(t *testing.T) {
	t.Parallel()
	database := makeTestDB(t)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	signer := &stubSigner{hash: "0xabc"}
	deps := testDependencies(signer)
	deps.DB = database
	router := newRouter(testConfig(), deps)

	w := doRequest(t, router, http.MethodPost, "/api/privy", `{"inputValue": 42, "walletId": "w1"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hash": "0xabc"}`, w.Body.String())
}

func TestContractRead(t *testing.T) {
	t.Parallel()
	deps := testDependencies(&stubSigner{})
	router := newRouter(testConfig(), deps)

	w := doRequest(t, router, http.MethodGet, "/api/contract", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value": "7"}`, w.Body.String())

	deps.Reader = &stubReader{err: errors.New("connection refused")}
	router = newRouter(testConfig(), deps)
	w = doRequest(t, router, http.MethodGet, "/api/contract", "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error": "Failed to read contract"}`, w.Body.String())
}

func TestPublicConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Privy.AppSecret = "secret"
	cfg.Privy.SignerPrivateKey = "wallet-auth:secret"
	router := newRouter(cfg, testDependencies(&stubSigner{}))

	w := doRequest(t, router, http.MethodGet, "/api/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"appId": "app",
		"clientId": "client",
		"signerId": "signer",
		"chainId": 84532,
		"caip2": "eip155:84532",
		"contractAddress": "`+testContractAddress+`",
		"explorerUrl": "https://sepolia.basescan.org"
	}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestListTransactionsEndpoint(t *testing.T) {
	t.Parallel()
	database := makeTestDB(t)
	deps := testDependencies(&stubSigner{hash: "0xabc"})
	deps.DB = database
	router := newRouter(testConfig(), deps)

	for _, body := range []string{
		`{"inputValue": 1, "walletId": "w1"}`,
		`{"inputValue": 2, "walletId": "w2"}`,
	} {
		w := doRequest(t, router, http.MethodPost, "/api/privy", body, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(t, router, http.MethodGet, "/api/transactions?wallet_id=w2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txs []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "w2", txs[0]["walletId"])
	assert.Equal(t, "2", txs[0]["inputValue"])
	assert.Equal(t, "sent", txs[0]["status"])
	assert.Equal(t, "0xabc", txs[0]["hash"])

	w = doRequest(t, router, http.MethodGet, "/api/transactions?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthGate(t *testing.T) {
	t.Parallel()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	verifier, err := privy.NewTokenVerifier("app", string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})))
	require.NoError(t, err)

	signer := &stubSigner{hash: "0xabc"}
	deps := testDependencies(signer)
	deps.Verifier = verifier
	router := newRouter(testConfig(), deps)

	body := `{"inputValue": 42, "walletId": "w1"}`
	w := doRequest(t, router, http.MethodPost, "/api/privy", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error": "Unauthorized"}`, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/api/privy", body, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, signer.Calls())

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    "privy.io",
		Subject:   "did:privy:abc123",
		Audience:  jwt.ClaimStrings{"app"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(key)
	require.NoError(t, err)

	w = doRequest(t, router, http.MethodPost, "/api/privy", body, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, signer.Calls(), 1)

	// Reads stay public
	w = doRequest(t, router, http.MethodGet, "/api/contract", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndNotFound(t *testing.T) {
	t.Parallel()
	router := newRouter(testConfig(), testDependencies(&stubSigner{}))

	w := doRequest(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerStartStop(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.HTTPListener = config.HTTPListener{IPV4Host: "127.0.0.1", IPV6Host: "::1", Port: 8095}
	cfg.HTTP.Metrics = config.Metrics{
		HTTPListener: config.HTTPListener{IPV4Host: "127.0.0.1", IPV6Host: "::1", Port: 8096},
		Enabled:      true,
	}
	srv := NewServer(cfg, testDependencies(&stubSigner{hash: "0xabc"}))
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })
	require.NoError(t, srv.Start())

	httpClient := &http.Client{Timeout: time.Second}
	for _, url := range []string{"http://127.0.0.1:8095/health", "http://127.0.0.1:8096/metrics"} {
		resp, err := httpClient.Get(url)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, url)
	}

	require.NoError(t, srv.Stop())
	resp, err := httpClient.Get("http://127.0.0.1:8095/health")
	if err == nil {
		_ = resp.Body.Close()
	}
	assert.Error(t, err)
}
