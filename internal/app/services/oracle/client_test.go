package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
)

func newTestClient(t *testing.T, ts *httptest.Server, scale Scale) *Client {
	t.Helper()
	c, err := NewClient(ts.Client(), Config{
		Endpoint: ts.URL,
		APIKey:   "test-key",
		Model:    "detector-v2",
		Prompt:   "Rate the likelihood this image is AI generated.",
		Scale:    scale,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientScore(t *testing.T) {
	t.Run("UnitScale", func(t *testing.T) {
		var calls int64
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&calls, 1)
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Authorization = %q", got)
			}
			var req scoreRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if req.Model != "detector-v2" {
				t.Errorf("model = %q", req.Model)
			}
			if req.ImageBase64 == "" {
				t.Error("image payload missing")
			}
			json.NewEncoder(w).Encode(map[string]any{"score": 0.82})
		}))
		defer ts.Close()

		c := newTestClient(t, ts, ScaleUnit)
		raw, err := c.Score(context.Background(), []byte("image-bytes"))
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if raw != 0.82 {
			t.Errorf("raw = %v, want 0.82", raw)
		}
		if calls != 1 {
			t.Errorf("scoring calls = %d, want exactly 1", calls)
		}
	})

	t.Run("NonNumericScore", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"score": "probably fake"}`))
		}))
		defer ts.Close()

		c := newTestClient(t, ts, ScaleUnit)
		_, err := c.Score(context.Background(), []byte("image-bytes"))
		if !errors.Is(err, verification.ErrOracleFault) {
			t.Fatalf("err = %v, want oracle fault", err)
		}
		var fault *verification.Fault
		if !errors.As(err, &fault) || !strings.Contains(fault.RawValue, "probably fake") {
			t.Errorf("fault raw value = %q, want the literal oracle output", fault.RawValue)
		}
	})

	t.Run("ServiceErrorField", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "model overloaded"}`))
		}))
		defer ts.Close()

		c := newTestClient(t, ts, ScaleUnit)
		if _, err := c.Score(context.Background(), []byte("image-bytes")); !errors.Is(err, verification.ErrOracleFault) {
			t.Fatalf("err = %v, want oracle fault", err)
		}
	})

	t.Run("NonOKStatus", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer ts.Close()

		c := newTestClient(t, ts, ScaleUnit)
		if _, err := c.Score(context.Background(), []byte("image-bytes")); !errors.Is(err, verification.ErrOracleFault) {
			t.Fatalf("err = %v, want oracle fault", err)
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		ts.Close()

		c := newTestClient(t, ts, ScaleUnit)
		if _, err := c.Score(context.Background(), []byte("image-bytes")); !errors.Is(err, verification.ErrOracleFault) {
			t.Fatalf("err = %v, want oracle fault", err)
		}
	})
}

func TestClientExplain(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Detailed {
			t.Error("explanation request should be marked detailed")
		}
		json.NewEncoder(w).Encode(map[string]any{"explanation": "smooth gradients typical of diffusion output"})
	}))
	defer ts.Close()

	c := newTestClient(t, ts, ScaleUnit)
	text, err := c.Explain(context.Background(), []byte("image-bytes"), 8200, false)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if text == "" {
		t.Error("expected non-empty explanation")
	}
}

func TestClientConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"MissingEndpoint", Config{Model: "m", Scale: ScaleUnit}},
		{"MissingModel", Config{Endpoint: "http://oracle", Scale: ScaleUnit}},
		{"UnknownScale", Config{Endpoint: "http://oracle", Model: "m", Scale: "logit"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(nil, tc.cfg, nil); err == nil {
				t.Error("expected a construction error")
			}
		})
	}
}

func TestScaleContains(t *testing.T) {
	cases := []struct {
		scale Scale
		raw   float64
		want  bool
	}{
		{ScaleUnit, 0, true},
		{ScaleUnit, 1, true},
		{ScaleUnit, 0.5, true},
		{ScaleUnit, -0.01, false},
		{ScaleUnit, 1.01, false},
		{ScalePercent, 0, true},
		{ScalePercent, 100, true},
		{ScalePercent, 100.5, false},
		{ScaleUnit, math.NaN(), false},
		{ScaleUnit, math.Inf(1), false},
		{ScalePercent, math.Inf(-1), false},
	}
	for _, tc := range cases {
		if got := tc.scale.Contains(tc.raw); got != tc.want {
			t.Errorf("%s.Contains(%v) = %v, want %v", tc.scale, tc.raw, got, tc.want)
		}
	}
}

func TestScaleNormalize(t *testing.T) {
	cases := []struct {
		scale Scale
		raw   float64
		want  verification.Score
	}{
		{ScaleUnit, 0.82, 8200},
		{ScalePercent, 82, 8200},
		{ScaleUnit, 0, 0},
		{ScaleUnit, 1, 10000},
		{ScalePercent, 100, 10000},
		{ScaleUnit, 0.33335, 3334},
		{ScalePercent, 0.004, 0},
	}
	for _, tc := range cases {
		if got := tc.scale.Normalize(tc.raw); got != tc.want {
			t.Errorf("%s.Normalize(%v) = %d, want %d", tc.scale, tc.raw, got, tc.want)
		}
	}
}

func TestParseScale(t *testing.T) {
	for _, raw := range []string{"unit", "percent"} {
		if _, err := ParseScale(raw); err != nil {
			t.Errorf("ParseScale(%q): %v", raw, err)
		}
	}
	for _, raw := range []string{"", "logit", "UNIT"} {
		if _, err := ParseScale(raw); err == nil {
			t.Errorf("ParseScale(%q) should fail", raw)
		}
	}
}
