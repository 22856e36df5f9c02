package server

import (
	"encoding/json"
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// CompileRequest carries a blueprint to compile
type CompileRequest struct {
	Blueprint json.RawMessage `json:"blueprint"`
	Strict    bool            `json:"strict,omitempty"`
}

// CompileResponse returns the compiled document or the compilation error
type CompileResponse struct {
	Success bool     `json:"success"`
	YAML    string   `json:"yaml,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ValidateRequest carries a DSL document to validate
type ValidateRequest struct {
	YAML   string `json:"yaml"`
	Strict bool   `json:"strict,omitempty"`
}

// ValidateResponse reports the validation outcome
type ValidateResponse struct {
	Success bool     `json:"success"`
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// GenerateRequest carries a natural-language workflow request
type GenerateRequest struct {
	Request    string `json:"request"`
	Context    string `json:"context,omitempty"`
	ContextURL string `json:"context_url,omitempty"`
	Model      string `json:"model,omitempty"`
}

// GenerateResponse returns the generated document and any residual errors
type GenerateResponse struct {
	Success  bool     `json:"success"`
	YAML     string   `json:"yaml,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Attempts int      `json:"attempts,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// HistoryEntry is one generation run in the history listing
type HistoryEntry struct {
	ID          int64     `json:"id"`
	UserRequest string    `json:"userRequest"`
	ModelName   string    `json:"modelName"`
	Status      string    `json:"status"`
	ErrorMsg    string    `json:"errorMsg,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryResponse returns the recent generation runs
type HistoryResponse struct {
	Success bool           `json:"success"`
	Entries []HistoryEntry `json:"entries"`
	Error   string         `json:"error,omitempty"`
}

// ErrorResponse is the generic failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
