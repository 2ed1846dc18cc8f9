package service

import (
	"context"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
)

// ComponentResolver caches pay components, insurance base types and
// personnel categories for one import run. Lookups that find nothing leave
// the key absent so callers can report the miss per row.
type ComponentResolver struct {
	store ComponentStore

	components map[string]domain.PayComponent
	missing    map[string]bool
	insurance  map[string]domain.InsuranceBaseType
	categories map[string]domain.PersonnelCategory

	insuranceLoaded  bool
	categoriesLoaded map[string]bool
}

// NewComponentResolver creates a resolver with empty caches.
func NewComponentResolver(store ComponentStore) *ComponentResolver {
	return &ComponentResolver{
		store:            store,
		components:       make(map[string]domain.PayComponent),
		missing:          make(map[string]bool),
		insurance:        make(map[string]domain.InsuranceBaseType),
		categories:       make(map[string]domain.PersonnelCategory),
		categoriesLoaded: make(map[string]bool),
	}
}

// Components resolves component names to components. Unknown names are
// simply absent from the returned map.
func (r *ComponentResolver) Components(ctx context.Context, names []string) (map[string]domain.PayComponent, error) {
	var fetch []string
	for _, name := range names {
		if _, ok := r.components[name]; !ok && !r.missing[name] {
			fetch = append(fetch, name)
		}
	}

	if len(fetch) > 0 {
		found, err := r.store.FindComponentsByNames(ctx, fetch)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			r.components[c.Name] = c
		}
		for _, name := range fetch {
			if _, ok := r.components[name]; !ok {
				r.missing[name] = true
			}
		}
	}

	result := make(map[string]domain.PayComponent, len(names))
	for _, name := range names {
		if c, ok := r.components[name]; ok {
			result[name] = c
		}
	}

	return result, nil
}

// InsuranceType resolves an insurance base type by its system key
// (e.g. "pension", "medical").
func (r *ComponentResolver) InsuranceType(ctx context.Context, systemKey string) (*domain.InsuranceBaseType, error) {
	if !r.insuranceLoaded {
		types, err := r.store.ListInsuranceTypes(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range types {
			r.insurance[t.SystemKey] = t
		}
		r.insuranceLoaded = true
	}

	t, ok := r.insurance[systemKey]
	if !ok {
		return nil, nil
	}

	return &t, nil
}

// Category resolves a personnel category by its Chinese name.
func (r *ComponentResolver) Category(ctx context.Context, name string) (*domain.PersonnelCategory, error) {
	if !r.categoriesLoaded[name] {
		found, err := r.store.FindCategoriesByNames(ctx, []string{name})
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			r.categories[c.Name] = c
		}
		r.categoriesLoaded[name] = true
	}

	c, ok := r.categories[name]
	if !ok {
		return nil, nil
	}

	return &c, nil
}
