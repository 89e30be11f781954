package docai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/common"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)
}

func TestHealthy(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	assert.True(t, c.Healthy(context.Background()))
}

func TestHealthy_Unreachable(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, nil)
	assert.False(t, c.Healthy(context.Background()))
}

func TestClassify_ValidResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/documents/classify", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"document_type": "sales_register",
			"confidence": 0.91,
			"reasoning": "headers match a sales register",
			"key_indicators": ["customer", "invoice"]
		}`))
	}))

	res, err := c.Classify(context.Background(), ClassifyRequest{Filename: "sales.xlsx", Headers: []string{"Customer"}})
	require.NoError(t, err)
	assert.Equal(t, constants.SalesRegister, res.DocumentType)
	assert.InDelta(t, 0.91, res.Confidence, 1e-9)
	assert.False(t, res.PotentialMisclassification)
}

func TestClassify_LowConfidenceIsFlagged(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"document_type": "invoice", "confidence": 0.4}`))
	}))

	res, err := c.Classify(context.Background(), ClassifyRequest{Filename: "x.pdf"})
	require.NoError(t, err)
	assert.True(t, res.PotentialMisclassification)
}

func TestClassify_SchemaViolationIsError(t *testing.T) {
	cases := map[string]string{
		"missing required fields": `{"reasoning": "no type or confidence"}`,
		"bad confidence range":    `{"document_type": "invoice", "confidence": 1.7}`,
		"unknown type enum":       `{"document_type": "payroll", "confidence": 0.8}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			_, err := c.Classify(context.Background(), ClassifyRequest{Filename: "x.csv"})
			assert.Error(t, err)
		})
	}
}

func TestClassify_Non2xxIsError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.Classify(context.Background(), ClassifyRequest{Filename: "x.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInternal)
}
