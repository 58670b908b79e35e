package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries agrupa o acesso às tabelas de sessão.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o conjunto de queries sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// InsertRefreshToken persiste um novo refresh token (hash, nunca o valor cru).
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (RefreshToken, error) {
	const query = `
        INSERT INTO refresh_tokens (id, subject, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, subject, token_hash, expires_at, created_at, revoked
    `
	row := q.pool.QueryRow(ctx, query, arg.ID, arg.Subject, arg.TokenHash, arg.ExpiresAt, arg.CreatedAt)
	return scanRefreshToken(row)
}

// GetRefreshTokenByHash busca um refresh token pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	const query = `
        SELECT id, subject, token_hash, expires_at, created_at, revoked
        FROM refresh_tokens
        WHERE token_hash = $1
    `
	return scanRefreshToken(q.pool.QueryRow(ctx, query, tokenHash))
}

// RevokeRefreshToken marca o token como revogado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InvalidateOtherRefreshTokens revoga os demais tokens do mesmo usuário,
// mantendo apenas o hash recém-emitido.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	_, err := q.pool.Exec(ctx, `
        UPDATE refresh_tokens
        SET revoked = TRUE
        WHERE subject = $1 AND token_hash <> $2 AND NOT revoked
    `, subject, keepHash)
	return err
}

func scanRefreshToken(row pgx.Row) (RefreshToken, error) {
	var t RefreshToken
	if err := row.Scan(&t.ID, &t.Subject, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.Revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshToken{}, ErrNotFound
		}
		return RefreshToken{}, err
	}
	return t, nil
}
