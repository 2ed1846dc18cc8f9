package service

import (
	"context"
	"strings"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
)

// Resolution is the outcome of matching one identifier to an employee.
// Err is nil on a match, domain.ErrEmployeeNotFound or
// domain.ErrAmbiguousEmployee otherwise.
type Resolution struct {
	Employee *domain.Employee
	Err      error
}

// EmployeeResolver matches row identifiers to employees. A present ID
// number is matched exclusively, the exact full name is used only when no
// ID is given, and the employee code never resolves on its own (it only
// breaks ties between same-named employees). Lookups are
// cached for the lifetime of the resolver, which callers scope to a single
// import run.
type EmployeeResolver struct {
	store EmployeeStore

	byIDNumber map[string][]domain.Employee
	byName     map[string][]domain.Employee
}

// NewEmployeeResolver creates a resolver with empty caches.
func NewEmployeeResolver(store EmployeeStore) *EmployeeResolver {
	return &EmployeeResolver{
		store:      store,
		byIDNumber: make(map[string][]domain.Employee),
		byName:     make(map[string][]domain.Employee),
	}
}

// ResolveMany resolves identifiers in order, one Resolution per input. All
// uncached ID numbers and names are fetched in two batch queries before any
// matching happens.
func (r *EmployeeResolver) ResolveMany(ctx context.Context, identifiers []domain.EmployeeIdentifier) ([]Resolution, error) {
	if err := r.prefetch(ctx, identifiers); err != nil {
		return nil, err
	}

	results := make([]Resolution, len(identifiers))
	for i, id := range identifiers {
		results[i] = r.resolveCached(id)
	}

	return results, nil
}

// Resolve matches a single identifier.
func (r *EmployeeResolver) Resolve(ctx context.Context, id domain.EmployeeIdentifier) (Resolution, error) {
	results, err := r.ResolveMany(ctx, []domain.EmployeeIdentifier{id})
	if err != nil {
		return Resolution{}, err
	}

	return results[0], nil
}

func (r *EmployeeResolver) prefetch(ctx context.Context, identifiers []domain.EmployeeIdentifier) error {
	var idNumbers, names []string
	for _, id := range identifiers {
		if v := strings.TrimSpace(id.IDNumber); v != "" {
			if _, ok := r.byIDNumber[v]; !ok {
				r.byIDNumber[v] = nil
				idNumbers = append(idNumbers, v)
			}
		}
		if v := strings.TrimSpace(id.FullName); v != "" {
			if _, ok := r.byName[v]; !ok {
				r.byName[v] = nil
				names = append(names, v)
			}
		}
	}

	if len(idNumbers) > 0 {
		employees, err := r.store.FindByIDNumbers(ctx, idNumbers)
		if err != nil {
			return err
		}
		for _, e := range employees {
			if e.IDNumber == nil {
				continue
			}
			r.byIDNumber[*e.IDNumber] = append(r.byIDNumber[*e.IDNumber], e)
		}
	}

	if len(names) > 0 {
		employees, err := r.store.FindByNames(ctx, names)
		if err != nil {
			return err
		}
		for _, e := range employees {
			r.byName[e.FullName] = append(r.byName[e.FullName], e)
		}
	}

	return nil
}

func (r *EmployeeResolver) resolveCached(id domain.EmployeeIdentifier) Resolution {
	// An ID number, when present, is the sole match key. A miss never
	// falls back to the name: a mistyped ID plus a common name must not
	// silently resolve to a different person.
	if v := strings.TrimSpace(id.IDNumber); v != "" {
		matches := r.byIDNumber[v]
		switch len(matches) {
		case 0:
			return Resolution{Err: domain.ErrEmployeeNotFound}
		case 1:
			return Resolution{Employee: &matches[0]}
		default:
			return Resolution{Err: domain.ErrAmbiguousEmployee}
		}
	}

	v := strings.TrimSpace(id.FullName)
	if v == "" {
		return Resolution{Err: domain.ErrEmployeeNotFound}
	}

	matches := r.byName[v]
	switch len(matches) {
	case 0:
		return Resolution{Err: domain.ErrEmployeeNotFound}
	case 1:
		return Resolution{Employee: &matches[0]}
	}

	// Same name appears more than once: the employee code may break the tie.
	if code := strings.TrimSpace(id.Code); code != "" {
		var hit *domain.Employee
		for i := range matches {
			if matches[i].EmployeeCode != nil && *matches[i].EmployeeCode == code {
				if hit != nil {
					return Resolution{Err: domain.ErrAmbiguousEmployee}
				}
				hit = &matches[i]
			}
		}
		if hit != nil {
			return Resolution{Employee: hit}
		}
	}

	return Resolution{Err: domain.ErrAmbiguousEmployee}
}
