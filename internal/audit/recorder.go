package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type inserter interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Recorder grava a trilha em modo best-effort: a escrita acontece depois
// da mutação primária e falhas são apenas logadas, nunca propagadas.
type Recorder struct {
	repo   inserter
	logger zerolog.Logger
}

// NewRecorder cria o gravador da trilha.
func NewRecorder(repo inserter, logger zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record serializa os estados antes/depois e insere a linha. oldData e
// newData podem ser nil (create e delete, respectivamente).
func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, resource string, resourceID uuid.UUID, oldData, newData any) {
	entry := Entry{
		UserID:     actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
	}

	if oldData != nil {
		raw, err := json.Marshal(oldData)
		if err != nil {
			r.logger.Warn().Err(err).Str("resource", resource).Msg("auditoria: serialização de old_data falhou")
		} else {
			entry.OldData = raw
		}
	}

	if newData != nil {
		raw, err := json.Marshal(newData)
		if err != nil {
			r.logger.Warn().Err(err).Str("resource", resource).Msg("auditoria: serialização de new_data falhou")
		} else {
			entry.NewData = raw
		}
	}

	if err := r.repo.Insert(ctx, entry); err != nil {
		r.logger.Error().Err(err).
			Str("action", action).
			Str("resource", resource).
			Str("resource_id", resourceID.String()).
			Msg("auditoria: escrita falhou")
	}
}

// List expõe a trilha para o endpoint de consulta.
func (r *Recorder) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return r.repo.List(ctx, filter)
}
