package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
)

const testKey accesskey.AccessKey = "35240312345678000195550010000001231123456789"

func TestConfig_URL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default template", Config{BaseURL: "https://api.example"}, "https://api.example/nfe/" + string(testKey)},
		{"trailing slashes trimmed", Config{BaseURL: "https://api.example/v1///"}, "https://api.example/v1/nfe/" + string(testKey)},
		{"colon placeholder", Config{BaseURL: "https://api.example", PathTemplate: "consulta/nfe/:chave/completa"}, "https://api.example/consulta/nfe/" + string(testKey) + "/completa"},
		{"brace placeholder", Config{BaseURL: "https://api.example", PathTemplate: "/nfe?chave={chave}"}, "https://api.example/nfe?chave=" + string(testKey)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.URL(testKey))
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	var gotAuth, gotAccept, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"numero":"456"}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	resp, err := client.Fetch(context.Background(), Config{BaseURL: srv.URL + "/", Token: "secret"}, testKey)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"numero":"456"}`, string(resp.Body))
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "/nfe/"+string(testKey), gotPath)
}

func TestClient_FetchNon2xx(t *testing.T) {
	body := strings.Repeat("x", 600)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := NewClient(5*time.Second).Fetch(context.Background(), Config{BaseURL: srv.URL, Token: "t"}, testKey)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUpstream))
	assert.Equal(t, 1, calls, "no retries")

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusForbidden, de.StatusCode)
	assert.Contains(t, de.Message, "403")
	assert.Contains(t, de.Message, strings.Repeat("x", 250))
	assert.NotContains(t, de.Message, strings.Repeat("x", 251))
}

func TestClient_FetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(time.Second).Fetch(context.Background(), Config{BaseURL: url, Token: "t"}, testKey)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUpstream))
}
