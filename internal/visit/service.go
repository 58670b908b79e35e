package visit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/organizagabinete/gabinete/internal/user"
	"github.com/organizagabinete/gabinete/internal/util"
)

type repository interface {
	Create(ctx context.Context, input CreateInput) (*Visit, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	List(ctx context.Context, filter Filter) ([]Visit, error)
	Update(ctx context.Context, input UpdateInput) (*Visit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type visitorLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service reúne regras de negócio de visitas.
type Service struct {
	repo     repository
	visitors visitorLookup
}

// NewService cria uma nova instância do serviço.
func NewService(repo repository, visitors visitorLookup) *Service {
	return &Service{repo: repo, visitors: visitors}
}

// CreateParams são os campos crus vindos do handler.
type CreateParams struct {
	VisitDate    string
	VisitTime    string
	UserID       uuid.UUID
	Status       string
	Notes        string
	Purpose      string
	VisitorName  string
	VisitorEmail string
	VisitorPhone string
	VisitorCPF   string
}

// Create valida, resolve o visitante e agenda a visita com ticket gerado
// no servidor. Campos visitor_* vazios herdam o cadastro do visitante.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Visit, error) {
	visitDate, err := util.ParseISODate(params.VisitDate)
	if err != nil {
		return nil, err
	}
	if err := util.ValidateTimeOfDay(params.VisitTime); err != nil {
		return nil, err
	}
	if err := util.RequireString(params.Purpose, "purpose"); err != nil {
		return nil, err
	}

	status := NormalizeStatus(params.Status)
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	visitor, err := s.visitors.GetByID(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, err
	}
	if visitor.Role != user.RoleVisitante {
		return nil, ErrVisitorRole
	}

	cpf, err := util.NormalizeCPF(params.VisitorCPF)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.VisitorName)
	if name == "" {
		name = visitor.Name
	}
	email := strings.TrimSpace(params.VisitorEmail)
	if email == "" {
		email = visitor.Email
	}

	return s.repo.Create(ctx, CreateInput{
		VisitDate:    visitDate,
		VisitTime:    strings.TrimSpace(params.VisitTime),
		UserID:       visitor.ID,
		Status:       status,
		Notes:        params.Notes,
		Purpose:      params.Purpose,
		TicketCode:   NewTicketCode(),
		VisitorName:  name,
		VisitorEmail: email,
		VisitorPhone: params.VisitorPhone,
		VisitorCPF:   cpf,
	})
}

// UpdateParams permite atualização parcial de campos da visita.
type UpdateParams struct {
	ID              uuid.UUID
	VisitDate       *string
	VisitTime       *string
	Status          *string
	Notes           *string
	Purpose         *string
	VisitorName     *string
	VisitorEmail    *string
	VisitorPhone    *string
	VisitorCPF      *string
	ExpectedVersion *int64
}

// Update aplica somente os campos presentes. O status aceita qualquer
// valor do enum independente do estado atual.
func (s *Service) Update(ctx context.Context, params UpdateParams) (*Visit, error) {
	input := UpdateInput{
		ID:              params.ID,
		Notes:           params.Notes,
		Purpose:         params.Purpose,
		VisitorName:     params.VisitorName,
		VisitorEmail:    params.VisitorEmail,
		VisitorPhone:    params.VisitorPhone,
		ExpectedVersion: params.ExpectedVersion,
	}

	if params.VisitDate != nil {
		date, err := util.ParseISODate(*params.VisitDate)
		if err != nil {
			return nil, err
		}
		input.VisitDate = &date
	}

	if params.VisitTime != nil {
		if err := util.ValidateTimeOfDay(*params.VisitTime); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(*params.VisitTime)
		input.VisitTime = &trimmed
	}

	if params.Status != nil {
		status := NormalizeStatus(*params.Status)
		if !IsValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		input.Status = &status
	}

	if params.VisitorCPF != nil {
		cpf, err := util.NormalizeCPF(*params.VisitorCPF)
		if err != nil {
			return nil, err
		}
		input.VisitorCPF = &cpf
	}

	return s.repo.Update(ctx, input)
}

// Get recupera uma visita pelo id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// List lista visitas dentro do filtro informado.
func (s *Service) List(ctx context.Context, filter Filter) ([]Visit, error) {
	if len(filter.Status) > 0 {
		normalized := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			status = NormalizeStatus(status)
			if IsValidStatus(status) {
				normalized = append(normalized, status)
			}
		}
		filter.Status = normalized
	}
	return s.repo.List(ctx, filter)
}

// ListForUser restringe a listagem às visitas do próprio visitante.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, filter Filter) ([]Visit, error) {
	filter.UserID = &userID
	return s.List(ctx, filter)
}

// Delete remove uma visita.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ParseVisitDate expõe o parse de data usado nos filtros de listagem.
func ParseVisitDate(value string) (time.Time, error) {
	return util.ParseISODate(value)
}
