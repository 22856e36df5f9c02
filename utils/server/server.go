package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/difygen/difygen/utils/config"
	"github.com/difygen/difygen/utils/history"
)

// Server represents the HTTP server
type Server struct {
	mux       *http.ServeMux
	config    *config.ServerConfig
	envConfig *config.EnvConfig
	history   *history.Store
}

// New creates a new HTTP server with the given configuration
func New(envConfig *config.EnvConfig) (*http.Server, error) {
	serverConfig := envConfig.GetServerConfig()
	if serverConfig == nil {
		return nil, fmt.Errorf("server configuration not found")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    serverConfig,
		envConfig: envConfig,
	}

	// History persistence is optional; the server runs without it.
	if dbConfig, err := envConfig.GetDatabaseConfig(); err == nil {
		store := history.NewStore(dbConfig)
		if err := store.Init(); err != nil {
			config.VerboseLog("history persistence disabled: %v", err)
		} else {
			s.history = store
		}
	}

	s.mux.HandleFunc("/health", logRequest(s.handleHealth))
	s.mux.HandleFunc("/compile", logRequest(s.handleCompile))
	s.mux.HandleFunc("/validate", logRequest(s.handleValidate))
	s.mux.HandleFunc("/generate", logRequest(s.handleGenerate))
	s.mux.HandleFunc("/history", logRequest(s.handleHistory))

	port := serverConfig.Port
	if port == 0 {
		port = 8080
	}

	return &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: s.corsMiddleware(s.mux),
		// Generation runs several model calls back to back.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}, nil
}

// corsMiddleware applies the configured CORS policy
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.CORS.Enabled {
			origins := s.config.CORS.AllowedOrigins
			if len(origins) == 0 {
				origins = []string{"*"}
			}
			w.Header().Set("Access-Control-Allow-Origin", strings.Join(origins, ", "))

			methods := s.config.CORS.AllowedMethods
			if len(methods) == 0 {
				methods = []string{"GET", "POST", "OPTIONS"}
			}
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))

			headers := s.config.CORS.AllowedHeaders
			if len(headers) == 0 {
				headers = []string{"Authorization", "Content-Type"}
			}
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))

			if s.config.CORS.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(s.config.CORS.MaxAge))
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the server and blocks until it stops
func Run(envConfig *config.EnvConfig) error {
	srv, err := New(envConfig)
	if err != nil {
		return err
	}

	fmt.Printf("Starting difygen server on %s\n", srv.Addr)
	return srv.ListenAndServe()
}
