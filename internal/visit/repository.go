package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	ticketRetryAttempts = 3

	visitColumns = `id, visit_date, visit_time, user_id, status, notes, purpose, ticket_code,
        visitor_name, visitor_email, visitor_phone, visitor_cpf, version, created_at`
)

// Repository provê acesso à tabela de visitas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere uma nova visita. Colisão de ticket_code gera novo código
// e repete a inserção.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Visit, error) {
	query := fmt.Sprintf(`
        INSERT INTO visitas (visit_date, visit_time, user_id, status, notes, purpose, ticket_code,
            visitor_name, visitor_email, visitor_phone, visitor_cpf)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING %s
    `, visitColumns)

	ticket := input.TicketCode
	for attempt := 0; attempt < ticketRetryAttempts; attempt++ {
		row := r.pool.QueryRow(ctx, query,
			input.VisitDate,
			input.VisitTime,
			input.UserID,
			strings.ToLower(input.Status),
			strings.TrimSpace(input.Notes),
			strings.TrimSpace(input.Purpose),
			ticket,
			strings.TrimSpace(input.VisitorName),
			strings.ToLower(strings.TrimSpace(input.VisitorEmail)),
			strings.TrimSpace(input.VisitorPhone),
			input.VisitorCPF,
		)

		v, err := scanVisit(row)
		if err == nil {
			return v, nil
		}
		if !isTicketCollision(err) {
			return nil, err
		}
		ticket = NewTicketCode()
	}

	return nil, errors.New("não foi possível gerar ticket único")
}

// GetByID busca uma visita pelo id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitas WHERE id = $1`, visitColumns)
	return scanVisit(r.pool.QueryRow(ctx, query, id))
}

// List lista visitas aplicando filtros simples.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Visit, error) {
	base := fmt.Sprintf(`SELECT %s FROM visitas`, visitColumns)

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

	if len(filter.Status) > 0 {
		normalized := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			normalized[i] = strings.ToLower(strings.TrimSpace(status))
		}
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, normalized)
		idx++
	}

	if filter.Date != nil {
		clauses = append(clauses, fmt.Sprintf("visit_date = $%d", idx))
		args = append(args, *filter.Date)
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

	query += fmt.Sprintf(" ORDER BY visit_date DESC, visit_time DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, *v)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return visits, nil
}

// Update altera campos da visita. O ticket_code nunca muda. Quando
// ExpectedVersion é informado, versão divergente retorna ErrVersionConflict.
func (r *Repository) Update(ctx context.Context, input UpdateInput) (*Visit, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if input.VisitDate != nil {
		setParts = append(setParts, fmt.Sprintf("visit_date = $%d", idx))
		args = append(args, *input.VisitDate)
		idx++
	}
	if input.VisitTime != nil {
		setParts = append(setParts, fmt.Sprintf("visit_time = $%d", idx))
		args = append(args, *input.VisitTime)
		idx++
	}
	if input.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*input.Status)))
		idx++
	}
	if input.Notes != nil {
		setParts = append(setParts, fmt.Sprintf("notes = $%d", idx))
		args = append(args, strings.TrimSpace(*input.Notes))
		idx++
	}
	if input.Purpose != nil {
		setParts = append(setParts, fmt.Sprintf("purpose = $%d", idx))
		args = append(args, strings.TrimSpace(*input.Purpose))
		idx++
	}
	if input.VisitorName != nil {
		setParts = append(setParts, fmt.Sprintf("visitor_name = $%d", idx))
		args = append(args, strings.TrimSpace(*input.VisitorName))
		idx++
	}
	if input.VisitorEmail != nil {
		setParts = append(setParts, fmt.Sprintf("visitor_email = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*input.VisitorEmail)))
		idx++
	}
	if input.VisitorPhone != nil {
		setParts = append(setParts, fmt.Sprintf("visitor_phone = $%d", idx))
		args = append(args, strings.TrimSpace(*input.VisitorPhone))
		idx++
	}
	if input.VisitorCPF != nil {
		setParts = append(setParts, fmt.Sprintf("visitor_cpf = $%d", idx))
		args = append(args, *input.VisitorCPF)
		idx++
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, input.ID)
	}

	setParts = append(setParts, "version = version + 1")

	args = append(args, input.ID)
	where := fmt.Sprintf("WHERE id = $%d", idx)
	idx++

	if input.ExpectedVersion != nil {
		where += fmt.Sprintf(" AND version = $%d", idx)
		args = append(args, *input.ExpectedVersion)
		idx++
	}

	query := fmt.Sprintf(`
        UPDATE visitas
        SET %s
        %s
        RETURNING %s
    `, strings.Join(setParts, ", "), where, visitColumns)

	v, err := scanVisit(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) && input.ExpectedVersion != nil {
			// distingue "não existe" de "versão divergente"
			if _, getErr := r.GetByID(ctx, input.ID); getErr == nil {
				return nil, ErrVersionConflict
			}
		}
		return nil, err
	}
	return v, nil
}

// Delete remove uma visita.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM visitas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	if err := row.Scan(
		&v.ID, &v.VisitDate, &v.VisitTime, &v.UserID, &v.Status, &v.Notes, &v.Purpose, &v.TicketCode,
		&v.VisitorName, &v.VisitorEmail, &v.VisitorPhone, &v.VisitorCPF, &v.Version, &v.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func isTicketCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation &&
		strings.Contains(pgErr.ConstraintName, "ticket_code")
}
