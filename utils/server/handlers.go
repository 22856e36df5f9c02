package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/difygen/difygen/utils/blueprint"
	"github.com/difygen/difygen/utils/builder"
	"github.com/difygen/difygen/utils/config"
	"github.com/difygen/difygen/utils/history"
	"github.com/difygen/difygen/utils/models"
	"github.com/difygen/difygen/utils/pipeline"
	"github.com/difygen/difygen/utils/scraper"
	"github.com/difygen/difygen/utils/validator"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handleHealth responds to health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCompile compiles a blueprint JSON body into a DSL document
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(s.config, w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CompileResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	bp, err := blueprint.Parse(req.Blueprint)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CompileResponse{Error: "invalid blueprint: " + err.Error()})
		return
	}

	yamlText, err := builder.NewBuilder(req.Strict).Build(bp)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, CompileResponse{Error: err.Error()})
		return
	}

	v := validator.NewValidator(req.Strict)
	if err := v.LoadFromString(yamlText); err != nil {
		writeJSON(w, http.StatusInternalServerError, CompileResponse{Error: err.Error()})
		return
	}
	_, errors := v.Validate()

	writeJSON(w, http.StatusOK, CompileResponse{
		Success: len(errors) == 0,
		YAML:    yamlText,
		Errors:  errors,
	})
}

// handleValidate validates a DSL document posted as YAML text
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(s.config, w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ValidateResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	v := validator.NewValidator(req.Strict)
	if err := v.LoadFromString(req.YAML); err != nil {
		writeJSON(w, http.StatusOK, ValidateResponse{Success: true, Valid: false, Errors: []string{err.Error()}})
		return
	}

	valid, errors := v.Validate()
	writeJSON(w, http.StatusOK, ValidateResponse{Success: true, Valid: valid, Errors: errors})
}

// handleGenerate runs the full generation pipeline for a request
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(s.config, w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, GenerateResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		writeJSON(w, http.StatusBadRequest, GenerateResponse{Error: "request text is required"})
		return
	}

	model := req.Model
	if model == "" {
		model = "gpt-4o"
	}

	provider := models.DetectProvider(model)
	if provider == nil {
		writeJSON(w, http.StatusBadRequest, GenerateResponse{Error: "no provider supports model " + model})
		return
	}
	providerConfig, err := s.envConfig.GetProviderConfig(provider.Name())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, GenerateResponse{Error: err.Error()})
		return
	}
	if err := provider.Configure(providerConfig.APIKey); err != nil {
		writeJSON(w, http.StatusInternalServerError, GenerateResponse{Error: err.Error()})
		return
	}
	provider.SetVerbose(config.Verbose)

	context := req.Context
	if req.ContextURL != "" {
		if page, err := scraper.NewScraper().Fetch(req.ContextURL); err != nil {
			config.VerboseLog("context fetch failed for %s: %v", req.ContextURL, err)
		} else {
			context = strings.TrimSpace(context + "\n\n" + page.ContextText())
		}
	}

	result, err := pipeline.NewPipeline(provider, model).Generate(req.Request, context)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, GenerateResponse{Error: err.Error()})
		return
	}

	s.saveHistory(req, model, result)

	writeJSON(w, http.StatusOK, GenerateResponse{
		Success:  len(result.Errors) == 0,
		YAML:     result.YAML,
		Errors:   result.Errors,
		Attempts: result.Attempts,
	})
}

// saveHistory records the run if a history store is configured. Persistence
// problems never fail the request.
func (s *Server) saveHistory(req GenerateRequest, model string, result *pipeline.Result) {
	if s.history == nil {
		return
	}

	status := "success"
	if len(result.Errors) > 0 {
		status = "failed"
	}
	record := &history.Record{
		UserRequest: req.Request,
		Context:     req.Context,
		FinalYAML:   result.YAML,
		ModelName:   model,
		Status:      status,
		ErrorMsg:    strings.Join(result.Errors, "\n"),
	}
	if err := s.history.Save(record); err != nil {
		config.VerboseLog("failed to save history record: %v", err)
	}
}

// handleHistory lists recent generation runs
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(s.config, w, r) {
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, HistoryResponse{Error: "history persistence is not configured"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	records, err := s.history.List(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, HistoryResponse{Error: err.Error()})
		return
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, HistoryEntry{
			ID:          r.ID,
			UserRequest: r.UserRequest,
			ModelName:   r.ModelName,
			Status:      r.Status,
			ErrorMsg:    r.ErrorMsg,
			CreatedAt:   r.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Success: true, Entries: entries})
}
