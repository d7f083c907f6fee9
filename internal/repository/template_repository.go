package repository

import (
	"context"
	"errors"
	"fmt"

	"project_outreach/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const templateColumns = `id, account_id, name, COALESCE(segment, ''), body, is_default, created_at`

type TemplateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) List(ctx context.Context, accountID string) ([]entities.Template, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+templateColumns+` FROM templates
		WHERE account_id = $1 OR (account_id IS NULL AND is_default)
		ORDER BY is_default DESC, created_at DESC, id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []entities.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) Get(ctx context.Context, id string) (*entities.Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *TemplateRepository) Create(ctx context.Context, t *entities.Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO templates (id, account_id, name, segment, body, is_default)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING created_at
	`, t.ID, t.AccountID, t.Name, t.Segment, t.Body, t.IsDefault).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func scanTemplate(row pgx.Row) (*entities.Template, error) {
	var t entities.Template
	if err := row.Scan(&t.ID, &t.AccountID, &t.Name, &t.Segment, &t.Body, &t.IsDefault, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
