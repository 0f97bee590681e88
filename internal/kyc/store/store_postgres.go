package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"dsakyc/internal/kyc/models"
	id "dsakyc/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists applications as JSONB documents in kyc_applications.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	app.Version = 1
	doc, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	query := `
		INSERT INTO kyc_applications (id, entity_type, document, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		app.ID.String(),
		string(app.EntityType),
		doc,
		app.Version,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT document, version FROM kyc_applications WHERE id = $1`
	var (
		doc     []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, query, appID.String()).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	var app models.Application
	if err := json.Unmarshal(doc, &app); err != nil {
		return nil, fmt.Errorf("decode application: %w", err)
	}
	app.Version = version
	return &app, nil
}

func (s *PostgresStore) Save(ctx context.Context, app *models.Application) error {
	expected := app.Version
	app.Version = expected + 1
	app.UpdatedAt = time.Now()

	doc, err := json.Marshal(app)
	if err != nil {
		app.Version = expected
		return fmt.Errorf("marshal application: %w", err)
	}
	query := `
		UPDATE kyc_applications
		SET document = $2, entity_type = $3, version = $4, updated_at = $5
		WHERE id = $1 AND version = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		app.ID.String(),
		doc,
		string(app.EntityType),
		app.Version,
		app.UpdatedAt,
		expected,
	)
	if err != nil {
		app.Version = expected
		return fmt.Errorf("update application: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		app.Version = expected
		return fmt.Errorf("update application: %w", err)
	}
	if rows == 0 {
		app.Version = expected
		if _, findErr := s.Find(ctx, app.ID); errors.Is(findErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}
