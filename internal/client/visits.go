package client

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/organizagabinete/gabinete/internal/visit"
)

// VisitCache mantém uma cópia local das visitas carregadas da API,
// atualizada a cada operação de escrita, com seletores síncronos.
type VisitCache struct {
	api *Client

	mu     sync.RWMutex
	visits map[uuid.UUID]visit.Visit
}

// NewVisitCache cria um cache de visitas sobre um cliente da API.
func NewVisitCache(api *Client) *VisitCache {
	return &VisitCache{
		api:    api,
		visits: make(map[uuid.UUID]visit.Visit),
	}
}

// VisitParams são os campos enviados ao criar ou atualizar uma visita.
type VisitParams struct {
	VisitDate    string `json:"visitDate,omitempty"`
	VisitTime    string `json:"visitTime,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Status       string `json:"status,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
	VisitorName  string `json:"visitorName,omitempty"`
	VisitorEmail string `json:"visitorEmail,omitempty"`
	VisitorPhone string `json:"visitorPhone,omitempty"`
	VisitorCPF   string `json:"visitorCpf,omitempty"`
	Version      *int64 `json:"version,omitempty"`
}

// FetchVisits recarrega o cache a partir da listagem da API.
// Filtros opcionais de status e data são repassados na query.
func (vc *VisitCache) FetchVisits(ctx context.Context, status, date string) ([]visit.Visit, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if date != "" {
		query.Set("date", date)
	}
	path := "/api/visits"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list []visit.Visit
	if err := vc.api.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	vc.mu.Lock()
	vc.visits = make(map[uuid.UUID]visit.Visit, len(list))
	for _, v := range list {
		vc.visits[v.ID] = v
	}
	vc.mu.Unlock()

	return list, nil
}

// AddVisit cria uma visita na API e insere o resultado no cache.
func (vc *VisitCache) AddVisit(ctx context.Context, params VisitParams) (*visit.Visit, error) {
	var created visit.Visit
	if err := vc.api.doJSON(ctx, http.MethodPost, "/api/visits", params, &created); err != nil {
		return nil, err
	}

	vc.mu.Lock()
	vc.visits[created.ID] = created
	vc.mu.Unlock()

	return &created, nil
}

// UpdateVisit atualiza uma visita na API e substitui a cópia do cache.
func (vc *VisitCache) UpdateVisit(ctx context.Context, id uuid.UUID, params VisitParams) (*visit.Visit, error) {
	var updated visit.Visit
	if err := vc.api.doJSON(ctx, http.MethodPut, "/api/visits/"+id.String(), params, &updated); err != nil {
		return nil, err
	}

	vc.mu.Lock()
	vc.visits[updated.ID] = updated
	vc.mu.Unlock()

	return &updated, nil
}

// DeleteVisit remove uma visita na API e a descarta do cache.
func (vc *VisitCache) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	if err := vc.api.doJSON(ctx, http.MethodDelete, "/api/visits/"+id.String(), nil, nil); err != nil {
		return err
	}

	vc.mu.Lock()
	delete(vc.visits, id)
	vc.mu.Unlock()

	return nil
}

// VisitByID retorna a visita do cache, se presente.
func (vc *VisitCache) VisitByID(id uuid.UUID) (visit.Visit, bool) {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	v, ok := vc.visits[id]
	return v, ok
}

// VisitsByStatus retorna as visitas do cache com o status dado.
func (vc *VisitCache) VisitsByStatus(status string) []visit.Visit {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	var result []visit.Visit
	for _, v := range vc.visits {
		if v.Status == status {
			result = append(result, v)
		}
	}
	sortVisits(result)
	return result
}

// VisitsByDate retorna as visitas do cache na data dada (YYYY-MM-DD).
func (vc *VisitCache) VisitsByDate(date string) []visit.Visit {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	var result []visit.Visit
	for _, v := range vc.visits {
		if v.VisitDate.Format("2006-01-02") == date {
			result = append(result, v)
		}
	}
	sortVisits(result)
	return result
}

// Len retorna o total de visitas no cache.
func (vc *VisitCache) Len() int {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return len(vc.visits)
}

// sortVisits ordena por data e horário, mais recentes primeiro.
func sortVisits(list []visit.Visit) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].VisitDate.Equal(list[j].VisitDate) {
			return list[i].VisitDate.After(list[j].VisitDate)
		}
		return list[i].VisitTime > list[j].VisitTime
	})
}
