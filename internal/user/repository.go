package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/organizagabinete/gabinete/internal/db"
)

const uniqueViolation = "23505"

// Repository provê acesso à tabela de usuários.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere um novo usuário.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*User, error) {
	const query = `
        INSERT INTO usuarios (name, email, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, email, password_hash, role, active, created_at
    `

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(input.Name),
		strings.ToLower(strings.TrimSpace(input.Email)),
		input.PasswordHash,
		string(input.Role),
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// GetByID busca um usuário pelo id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, created_at
        FROM usuarios
        WHERE id = $1
    `
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail busca um usuário pelo email normalizado.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, created_at
        FROM usuarios
        WHERE email = $1
    `
	return scanUser(r.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

// List lista usuários aplicando filtros simples.
func (r *Repository) List(ctx context.Context, filter Filter) ([]User, error) {
	base := `
        SELECT id, name, email, password_hash, role, active, created_at
        FROM usuarios`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if name := strings.TrimSpace(filter.Name); name != "" {
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", idx))
		args = append(args, "%"+name+"%")
		idx++
	}

	if email := strings.TrimSpace(filter.Email); email != "" {
		clauses = append(clauses, fmt.Sprintf("email ILIKE $%d", idx))
		args = append(args, "%"+strings.ToLower(email)+"%")
		idx++
	}

	if filter.Role != nil {
		clauses = append(clauses, fmt.Sprintf("role = $%d", idx))
		args = append(args, string(*filter.Role))
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

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return users, nil
}

// Update atualiza campos presentes no input.
func (r *Repository) Update(ctx context.Context, input UpdateInput) (*User, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if input.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", idx))
		args = append(args, strings.TrimSpace(*input.Name))
		idx++
	}
	if input.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*input.Email)))
		idx++
	}
	if input.PasswordHash != nil {
		setParts = append(setParts, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *input.PasswordHash)
		idx++
	}
	if input.Role != nil {
		setParts = append(setParts, fmt.Sprintf("role = $%d", idx))
		args = append(args, string(*input.Role))
		idx++
	}
	if input.Active != nil {
		setParts = append(setParts, fmt.Sprintf("active = $%d", idx))
		args = append(args, *input.Active)
		idx++
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, input.ID)
	}

	args = append(args, input.ID)
	query := fmt.Sprintf(`
        UPDATE usuarios
        SET %s
        WHERE id = $%d
        RETURNING id, name, email, password_hash, role, active, created_at
    `, strings.Join(setParts, ", "), idx)

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Delete remove um usuário definitivamente, junto com as sessões e as
// visitas dele, em uma única transação.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE subject = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM visitas WHERE user_id = $1`, id); err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Active, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
