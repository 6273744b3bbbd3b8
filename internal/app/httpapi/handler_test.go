package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/services/oracle"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/services/settlement"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage/memory"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/ledger"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/pkg/logger"
)

const testWriter = "verifier-account"

type fixture struct {
	handler http.Handler
	ledger  *ledger.MemoryLedger
	oracle  *settlement.ScriptedOracle
	store   *memory.Store
}

func newFixture(t *testing.T, raw float64) *fixture {
	t.Helper()

	led := ledger.NewMemoryLedger()
	led.AddVerifier(testWriter)
	orc := settlement.NewScriptedOracle(raw, oracle.ScaleUnit)
	store := memory.New()

	svc, err := settlement.New(orc, led, store, settlement.Config{
		Threshold: 5000,
		Price:     100,
		Writer:    testWriter,
	}, logger.NewDefault("httpapi-test"))
	require.NoError(t, err)

	return &fixture{
		handler: NewHandler(svc, store),
		ledger:  led,
		oracle:  orc,
		store:   store,
	}
}

func verifyRequest(t *testing.T, image []byte, ledgerWrite bool) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"image_base64":         base64.StdEncoding.EncodeToString(image),
		"require_ledger_write": ledgerWrite,
	})
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(body))
}

func TestVerifyEndpoint(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		f := newFixture(t, 0.30)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, verifyRequest(t, bytes.Repeat([]byte{0x80}, 256), true))

		require.Equal(t, http.StatusOK, rec.Code)
		var result verification.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, verification.Score(3000), result.Score)
		assert.True(t, result.Verdict)
		assert.True(t, result.Fingerprint.Valid())
		require.NotNil(t, result.Receipt)
		assert.False(t, result.Receipt.Degraded)
	})

	t.Run("EmptyImage", func(t *testing.T) {
		f := newFixture(t, 0.30)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, verifyRequest(t, nil, false))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid_input", body["error"])
		assert.Equal(t, false, body["retryable"])
	})

	t.Run("MalformedBase64", func(t *testing.T) {
		f := newFixture(t, 0.30)
		body := []byte(`{"image_base64": "not base64!!"}`)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("OracleFault", func(t *testing.T) {
		f := newFixture(t, 0.30)
		f.oracle.FailWith(fmt.Errorf("model timeout"))
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, verifyRequest(t, []byte("img"), false))

		require.Equal(t, http.StatusBadGateway, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "oracle_fault", body["error"])
		assert.Equal(t, true, body["retryable"])
	})

	t.Run("PaymentRequired", func(t *testing.T) {
		f := newFixture(t, 0.30)
		payload, err := json.Marshal(map[string]any{
			"image_base64":         base64.StdEncoding.EncodeToString([]byte("img")),
			"require_ledger_write": true,
			"payer":                "broke-payer",
		})
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(payload)))

		require.Equal(t, http.StatusPaymentRequired, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "payment_precondition", body["error"])
		assert.Equal(t, float64(100), body["required"])
		assert.Equal(t, float64(0), body["balance"])
	})

	t.Run("NotAuthorized", func(t *testing.T) {
		led := ledger.NewMemoryLedger() // writer not allowlisted
		orc := settlement.NewScriptedOracle(0.30, oracle.ScaleUnit)
		svc, err := settlement.New(orc, led, nil, settlement.Config{
			Threshold: 5000, Price: 100, Writer: testWriter,
		}, logger.NewDefault("httpapi-test"))
		require.NoError(t, err)
		h := NewHandler(svc, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, verifyRequest(t, []byte("img"), true))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		f := newFixture(t, 0.30)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestVerificationByFingerprint(t *testing.T) {
	f := newFixture(t, 0.30)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, verifyRequest(t, []byte("lookup-me"), true))
	require.Equal(t, http.StatusOK, rec.Code)
	var result verification.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	t.Run("Found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verifications/"+string(result.Fingerprint), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var record verification.Record
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
		assert.Equal(t, result.Fingerprint, record.Fingerprint)
		assert.Equal(t, result.Score, record.Score)
	})

	t.Run("Missing", func(t *testing.T) {
		missing, err := verification.FingerprintBytes([]byte("never-submitted"))
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verifications/"+string(missing), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("MalformedFingerprint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verifications/not-a-fingerprint", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListVerifications(t *testing.T) {
	f := newFixture(t, 0.30)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, verifyRequest(t, []byte(fmt.Sprintf("image-%d", i)), true))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	t.Run("All", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verifications", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []verification.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 3)
	})

	t.Run("Limited", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verifications?limit=2", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []verification.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 2)
	})

	t.Run("NilStore", func(t *testing.T) {
		led := ledger.NewMemoryLedger()
		orc := settlement.NewScriptedOracle(0.30, oracle.ScaleUnit)
		svc, err := settlement.New(orc, led, nil, settlement.Config{Threshold: 5000, Price: 100}, nil)
		require.NoError(t, err)
		h := NewHandler(svc, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verifications", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestHealthz(t *testing.T) {
	t.Run("LedgerUp", func(t *testing.T) {
		f := newFixture(t, 0.30)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, true, body["ledger"])
	})

	t.Run("LedgerDown", func(t *testing.T) {
		orc := settlement.NewScriptedOracle(0.30, oracle.ScaleUnit)
		svc, err := settlement.New(orc, settlement.UnreachableGateway{}, nil, settlement.Config{Threshold: 5000, Price: 100}, nil)
		require.NoError(t, err)
		h := NewHandler(svc, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["ledger"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, 0.30)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "verifier_")
}
