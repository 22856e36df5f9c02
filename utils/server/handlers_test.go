package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/difygen/difygen/utils/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return &Server{
		mux:       http.NewServeMux(),
		config:    &config.ServerConfig{Port: 8080},
		envConfig: &config.EnvConfig{},
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)

	s.handleHealth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHandleCompile(t *testing.T) {
	s := newTestServer(t)

	body := `{"blueprint": {
		"name": "Echo",
		"nodes": [
			{"id": "start", "type": "start", "next_step": "end",
			 "variables": [{"name": "query", "type": "string"}]},
			{"id": "end", "type": "end",
			 "outputs": [{"var": "answer", "value": "@{start.query}"}]}
		]
	}}`

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
	s.handleCompile(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp CompileResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Errors)
	assert.Contains(t, resp.YAML, "kind: app")
	assert.Contains(t, resp.YAML, "name: Echo")
}

func TestHandleCompileInvalidBlueprint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(`{"blueprint": {"nodes": []}}`))
	s.handleCompile(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp CompileResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "invalid blueprint")
}

func TestHandleCompileMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/compile", nil)
	s.handleCompile(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleValidate(t *testing.T) {
	s := newTestServer(t)

	doc := "version: 0.5.0\nkind: app\nworkflow:\n  graph:\n    nodes:\n      - id: start\n        data:\n          type: start\n    edges: []\n"
	body, err := json.Marshal(ValidateRequest{YAML: doc})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(string(body)))
	s.handleValidate(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ValidateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Valid)
}

func TestHandleValidateBrokenDocument(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(ValidateRequest{YAML: "kind: app"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(string(body)))
	s.handleValidate(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ValidateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Errors)
}

func TestHandleGenerateRequiresText(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"request": "  "}`))
	s.handleGenerate(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "request text is required")
}

func TestHandleGenerateUnknownModel(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"request": "build a bot", "model": "mystery-model"}`))
	s.handleGenerate(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "no provider supports model")
}

func TestHandleHistoryWithoutStore(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/history", nil)
	s.handleHistory(w, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckAuth(t *testing.T) {
	t.Run("no token configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		assert.True(t, checkAuth(&config.ServerConfig{}, w, r))
	})

	tokenConfig := &config.ServerConfig{BearerToken: "secret-token"}

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		assert.False(t, checkAuth(tokenConfig, w, r))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("Authorization", "secret-token")
		assert.False(t, checkAuth(tokenConfig, w, r))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("Authorization", "Bearer wrong")
		assert.False(t, checkAuth(tokenConfig, w, r))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("Authorization", "Bearer secret-token")
		assert.True(t, checkAuth(tokenConfig, w, r))
	})
}

func TestNewRequiresServerConfig(t *testing.T) {
	_, err := New(&config.EnvConfig{})
	assert.Error(t, err)

	srv, err := New(&config.EnvConfig{Server: &config.ServerConfig{}})
	require.NoError(t, err)
	assert.Equal(t, ":8080", srv.Addr)
}
