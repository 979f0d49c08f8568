package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
)

func TestDeliver_SignsBody(t *testing.T) {
	var body []byte
	var signature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		signature = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	payload := models.WebhookPayload{Event: "process.completed", JobID: "job-1", Timestamp: time.Now().UTC()}
	require.NoError(t, New("s3cret").Deliver(context.Background(), srv.URL, payload))

	assert.Equal(t, SignPayload(body, "s3cret"), signature)

	var got models.WebhookPayload
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "job-1", got.JobID)
}

func TestDeliver_Unsigned(t *testing.T) {
	var hasSignature bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSignature = r.Header[SignatureHeader]
	}))
	defer srv.Close()

	require.NoError(t, New("").Deliver(context.Background(), srv.URL, models.WebhookPayload{}))
	assert.False(t, hasSignature)
}

func TestDeliver_SingleAttemptOnFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New("x").Deliver(context.Background(), srv.URL, models.WebhookPayload{Event: "process.failed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, 1, calls)
}

func TestSignPayload(t *testing.T) {
	// echo -n '{"a":1}' | openssl dgst -sha256 -hmac key
	assert.Equal(t,
		"88a67f24bbcdaed0e6c997404bb79a743baf44c6bab2f4c27328e3009d22e342",
		SignPayload([]byte(`{"a":1}`), "key"))
}
