package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Ações registradas na trilha.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Recursos auditados.
const (
	ResourceUser  = "user"
	ResourceVisit = "visit"
)

// Entry é uma linha append-only da trilha de auditoria: quem fez o quê,
// em qual recurso, com o estado antes e depois.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Action     string          `json:"action"`
	Resource   string          `json:"resource"`
	ResourceID uuid.UUID       `json:"resourceId"`
	OldData    json.RawMessage `json:"oldData,omitempty"`
	NewData    json.RawMessage `json:"newData,omitempty"`
	CreatedAt  time.Time       `json:"timestamp"`
}

// Filter restringe a listagem da trilha.
type Filter struct {
	UserID   *uuid.UUID
	Action   string
	Resource string
	Limit    int
	Offset   int
}
