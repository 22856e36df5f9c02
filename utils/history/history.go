package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/difygen/difygen/utils/config"
)

// Record is one generation run kept for later inspection
type Record struct {
	ID          int64
	UserRequest string
	Context     string
	FinalYAML   string
	ModelName   string
	Status      string
	ErrorMsg    string
	CreatedAt   time.Time
}

// Store persists generation history in PostgreSQL. The connection is
// opened lazily and reused while it stays healthy.
type Store struct {
	dbConfig *config.DatabaseConfig
	db       *sql.DB
}

// NewStore creates a history store for the given database configuration
func NewStore(dbConfig *config.DatabaseConfig) *Store {
	return &Store{dbConfig: dbConfig}
}

// getConnection gets or creates the database connection
func (s *Store) getConnection() (*sql.DB, error) {
	if s.db != nil {
		if err := s.db.Ping(); err == nil {
			return s.db, nil
		}
		// Connection is stale, drop it
		s.db.Close()
		s.db = nil
	}

	db, err := sql.Open("postgres", s.dbConfig.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return db, nil
}

// Init creates the history table if it does not exist
func (s *Store) Init() error {
	db, err := s.getConnection()
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS workflow_history (
		id SERIAL PRIMARY KEY,
		user_request TEXT NOT NULL,
		context TEXT,
		final_yaml TEXT,
		model_name TEXT,
		status TEXT,
		error_msg TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}

// Save stores one generation record
func (s *Store) Save(record *Record) error {
	db, err := s.getConnection()
	if err != nil {
		return err
	}

	err = db.QueryRow(
		`INSERT INTO workflow_history (user_request, context, final_yaml, model_name, status, error_msg)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		record.UserRequest, record.Context, record.FinalYAML,
		record.ModelName, record.Status, record.ErrorMsg,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}

	config.DebugLog("saved history record %d (status: %s)", record.ID, record.Status)
	return nil
}

// List returns the most recent records, newest first
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	db, err := s.getConnection()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT id, user_request, context, final_yaml, model_name, status, error_msg, created_at
		 FROM workflow_history ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var context, finalYAML, modelName, status, errorMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.UserRequest, &context, &finalYAML,
			&modelName, &status, &errorMsg, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Context = context.String
		r.FinalYAML = finalYAML.String
		r.ModelName = modelName.String
		r.Status = status.String
		r.ErrorMsg = errorMsg.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
