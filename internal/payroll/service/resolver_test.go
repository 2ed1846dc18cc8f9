package service_test

import (
	"context"
	"testing"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/internal/payroll/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmployeeStore serves lookups from slices and counts queries so the
// tests can verify the run-scoped cache.
type fakeEmployeeStore struct {
	employees []domain.Employee

	idQueries   int
	nameQueries int
}

func (s *fakeEmployeeStore) FindByIDNumbers(_ context.Context, idNumbers []string) ([]domain.Employee, error) {
	s.idQueries++
	var out []domain.Employee
	for _, e := range s.employees {
		if e.IDNumber == nil {
			continue
		}
		for _, id := range idNumbers {
			if *e.IDNumber == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (s *fakeEmployeeStore) FindByNames(_ context.Context, names []string) ([]domain.Employee, error) {
	s.nameQueries++
	var out []domain.Employee
	for _, e := range s.employees {
		for _, name := range names {
			if e.FullName == name {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func strPtr(s string) *string {
	return &s
}

func testEmployees() []domain.Employee {
	return []domain.Employee{
		{ID: "e1", EmployeeCode: strPtr("A001"), FullName: "张伟", IDNumber: strPtr("110101199001010001")},
		{ID: "e2", EmployeeCode: strPtr("A002"), FullName: "李娜", IDNumber: strPtr("110101199202020002")},
		{ID: "e3", EmployeeCode: strPtr("A003"), FullName: "王芳", IDNumber: strPtr("110101199303030003")},
		{ID: "e4", EmployeeCode: strPtr("A004"), FullName: "王芳", IDNumber: strPtr("110101199404040004")},
	}
}

func TestResolver_IDNumberWinsOverName(t *testing.T) {
	store := &fakeEmployeeStore{employees: testEmployees()}
	resolver := service.NewEmployeeResolver(store)

	// The name matches e2 but the ID number matches e1; ID must win.
	res, err := resolver.Resolve(context.Background(), domain.EmployeeIdentifier{
		FullName: "李娜",
		IDNumber: "110101199001010001",
	})
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, "e1", res.Employee.ID)
}

func TestResolver_UnknownIDDoesNotFallBackToName(t *testing.T) {
	store := &fakeEmployeeStore{employees: testEmployees()}
	resolver := service.NewEmployeeResolver(store)

	// The name alone would match e2, but the mistyped ID is terminal.
	res, err := resolver.Resolve(context.Background(), domain.EmployeeIdentifier{
		FullName: "李娜",
		IDNumber: "999999999999999999",
	})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrEmployeeNotFound)
}

func TestResolver_DistinguishesNotFoundFromAmbiguous(t *testing.T) {
	store := &fakeEmployeeStore{employees: testEmployees()}
	resolver := service.NewEmployeeResolver(store)
	ctx := context.Background()

	notFound, err := resolver.Resolve(ctx, domain.EmployeeIdentifier{FullName: "不存在"})
	require.NoError(t, err)
	assert.ErrorIs(t, notFound.Err, domain.ErrEmployeeNotFound)

	ambiguous, err := resolver.Resolve(ctx, domain.EmployeeIdentifier{FullName: "王芳"})
	require.NoError(t, err)
	assert.ErrorIs(t, ambiguous.Err, domain.ErrAmbiguousEmployee)
}

func TestResolver_CodeBreaksNameTie(t *testing.T) {
	store := &fakeEmployeeStore{employees: testEmployees()}
	resolver := service.NewEmployeeResolver(store)

	res, err := resolver.Resolve(context.Background(), domain.EmployeeIdentifier{
		Code:     "A004",
		FullName: "王芳",
	})
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, "e4", res.Employee.ID)
}

func TestResolver_CodeAloneDoesNotResolve(t *testing.T) {
	store := &fakeEmployeeStore{employees: testEmployees()}
	resolver := service.NewEmployeeResolver(store)

	res, err := resolver.Resolve(context.Background(), domain.EmployeeIdentifier{Code: "A001"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrEmployeeNotFound)
}

func TestResolver_ResolveManyPreservesOrderAndCardinality(t *testing.T) {
	store := &fakeEmployeeStore{employees: testEmployees()}
	resolver := service.NewEmployeeResolver(store)

	input := []domain.EmployeeIdentifier{
		{FullName: "李娜"},
		{FullName: "没有此人"},
		{IDNumber: "110101199303030003"},
		{FullName: "王芳"},
	}

	results, err := resolver.ResolveMany(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, results, len(input))

	assert.Equal(t, "e2", results[0].Employee.ID)
	assert.ErrorIs(t, results[1].Err, domain.ErrEmployeeNotFound)
	assert.Equal(t, "e3", results[2].Employee.ID)
	assert.ErrorIs(t, results[3].Err, domain.ErrAmbiguousEmployee)
}

func TestResolver_CachesLookupsAcrossCalls(t *testing.T) {
	store := &fakeEmployeeStore{employees: testEmployees()}
	resolver := service.NewEmployeeResolver(store)
	ctx := context.Background()

	_, err := resolver.ResolveMany(ctx, []domain.EmployeeIdentifier{
		{FullName: "李娜"},
		{FullName: "张伟"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.nameQueries, "one batch query for both names")

	// Same names again: served from the cache.
	_, err = resolver.ResolveMany(ctx, []domain.EmployeeIdentifier{{FullName: "李娜"}})
	require.NoError(t, err)
	assert.Equal(t, 1, store.nameQueries)
	assert.Equal(t, 0, store.idQueries, "no ID query when no ID numbers were given")
}
