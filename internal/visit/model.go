package visit

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("visita não encontrada")
	ErrInvalidStatus   = errors.New("status inválido")
	ErrVisitorNotFound = errors.New("visitante não encontrado")
	ErrVisitorRole     = errors.New("usuário informado não tem papel de visitante")
	ErrVersionConflict = errors.New("visita alterada por outra sessão")
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]struct{}{
	StatusPending:   {},
	StatusApproved:  {},
	StatusCompleted: {},
	StatusRejected:  {},
	StatusCancelled: {},
}

// NormalizeStatus padroniza o status em minúsculas, com default pendente.
func NormalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return StatusPending
	}
	return status
}

// IsValidStatus indica se o status pertence ao enum. Não há grafo de
// transição: qualquer valor do enum é aceito a qualquer momento.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// Visit representa um agendamento de visita ao gabinete. Os campos
// visitor_* são um snapshot do visitante no momento do cadastro.
type Visit struct {
	ID           uuid.UUID `json:"id"`
	VisitDate    time.Time `json:"visitDate"`
	VisitTime    string    `json:"visitTime"`
	UserID       uuid.UUID `json:"userId"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes"`
	Purpose      string    `json:"purpose"`
	TicketCode   string    `json:"ticketCode"`
	VisitorName  string    `json:"visitorName"`
	VisitorEmail string    `json:"visitorEmail"`
	VisitorPhone string    `json:"visitorPhone"`
	VisitorCPF   string    `json:"visitorCpf"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateInput encapsula campos para criação de visita.
type CreateInput struct {
	VisitDate    time.Time
	VisitTime    string
	UserID       uuid.UUID
	Status       string
	Notes        string
	Purpose      string
	TicketCode   string
	VisitorName  string
	VisitorEmail string
	VisitorPhone string
	VisitorCPF   string
}

// UpdateInput permite atualização parcial; ExpectedVersion nil mantém
// last-write-wins, como o comportamento original.
type UpdateInput struct {
	ID              uuid.UUID
	VisitDate       *time.Time
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

// Filter restringe a listagem de visitas.
type Filter struct {
	UserID *uuid.UUID
	Status []string
	Date   *time.Time
	Limit  int
	Offset int
}
