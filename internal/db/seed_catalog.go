package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/go-playground/validator/v10"
)

type CatalogWriter interface {
	ReplaceAll(ctx context.Context, services []service.Service) error
}

var catalogValidate = validator.New(validator.WithRequiredStructEnabled())

// LoadCatalog reads a JSON array of services:
//
//	[{"name": "Teeth Cleaning", "slots": ["08.00 AM - 08.30 AM"]}]
func LoadCatalog(path string) ([]service.Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var services []service.Service
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(services))
	for i, s := range services {
		if err := catalogValidate.Var(s.Name, "required"); err != nil {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate service %q", i, s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	return services, nil
}

func SeedCatalog(ctx context.Context, w CatalogWriter, path string) (int, error) {
	services, err := LoadCatalog(path)
	if err != nil {
		return 0, err
	}

	if err := w.ReplaceAll(ctx, services); err != nil {
		return 0, err
	}
	return len(services), nil
}
