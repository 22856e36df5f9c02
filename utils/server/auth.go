package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/difygen/difygen/utils/config"
)

func checkAuth(serverConfig *config.ServerConfig, w http.ResponseWriter, r *http.Request) bool {
	if serverConfig.BearerToken == "" {
		config.DebugLog("Auth check skipped: no bearer token configured")
		return true
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		config.DebugLog("Auth failed: no Authorization header present in request")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{
			Success: false,
			Error:   "Authorization header required",
		})
		return false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		config.DebugLog("Auth failed: malformed Authorization header: %s", maskToken(authHeader))
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{
			Success: false,
			Error:   "Invalid authorization header format",
		})
		return false
	}

	if parts[1] != serverConfig.BearerToken {
		config.DebugLog("Auth failed: invalid bearer token provided")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{
			Success: false,
			Error:   "Invalid bearer token",
		})
		return false
	}

	config.DebugLog("Auth successful: valid bearer token")
	return true
}
