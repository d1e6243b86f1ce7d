package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/doctorportal/internal/domain/service"
)

type ServicesRepo struct {
	mu    sync.RWMutex
	items []service.Service // catalog order
}

func NewServicesRepo(seed ...service.Service) *ServicesRepo {
	r := &ServicesRepo{}
	for _, s := range seed {
		r.items = append(r.items, s.Clone())
	}
	return r
}

func (r *ServicesRepo) List(ctx context.Context) ([]service.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]service.Service, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (r *ServicesRepo) ReplaceAll(ctx context.Context, services []service.Service) error {
	items := make([]service.Service, 0, len(services))
	for _, s := range services {
		items = append(items, s.Clone())
	}

	r.mu.Lock()
	r.items = items
	r.mu.Unlock()

	return nil
}
