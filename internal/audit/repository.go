package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso à tabela de auditoria. A tabela é append-only:
// a aplicação nunca atualiza nem remove linhas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert grava uma linha da trilha.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	const query = `
        INSERT INTO audit_logs (user_id, action, resource, resource_id, old_data, new_data)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.pool.Exec(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.OldData,
		entry.NewData,
	)
	return err
}

// List lista a trilha do mais recente para o mais antigo.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	base := `
        SELECT id, user_id, action, resource, resource_id, old_data, new_data, created_at
        FROM audit_logs`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.UserID != nil {
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", idx))
		args = append(args, *filter.UserID)
		idx++
	}

	if action := strings.ToLower(strings.TrimSpace(filter.Action)); action != "" {
		clauses = append(clauses, fmt.Sprintf("action = $%d", idx))
		args = append(args, action)
		idx++
	}

	if resource := strings.ToLower(strings.TrimSpace(filter.Resource)); resource != "" {
		clauses = append(clauses, fmt.Sprintf("resource = $%d", idx))
		args = append(args, resource)
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &e.OldData, &e.NewData, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}
