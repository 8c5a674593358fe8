package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/modules/org/domain/position"
	"github.com/peopledesk/peopledesk/modules/org/services"
	"github.com/peopledesk/peopledesk/modules/org/testutil"
)

type fixture struct {
	ctx         context.Context
	departments *testutil.DepartmentRepository
	positions   *testutil.PositionRepository
	deptSvc     *services.DepartmentService
	posSvc      *services.PositionService
	treeSvc     *services.TreeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	departments := testutil.NewDepartmentRepository()
	positions := testutil.NewPositionRepository()
	return &fixture{
		ctx:         testutil.TxContext(),
		departments: departments,
		positions:   positions,
		deptSvc:     services.NewDepartmentService(departments, positions),
		posSvc:      services.NewPositionService(positions, departments),
		treeSvc:     services.NewTreeService(positions, departments),
	}
}

func (f *fixture) mustDepartment(t *testing.T, code, name string) *department.Department {
	t.Helper()
	d, err := f.deptSvc.CreateDepartment(f.ctx, services.CreateDepartmentInput{Code: code, Name: name})
	require.NoError(t, err)
	return d
}

func (f *fixture) mustPosition(t *testing.T, code, title string, departmentID uuid.UUID, reportsTo *uuid.UUID) *position.Position {
	t.Helper()
	p, err := f.posSvc.CreatePosition(f.ctx, services.CreatePositionInput{
		Code:                code,
		Title:               title,
		DepartmentID:        departmentID,
		ReportsToPositionID: reportsTo,
	})
	require.NoError(t, err)
	return p
}

func requireServiceError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var svcErr *services.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, status, svcErr.Status)
	require.Equal(t, code, svcErr.Code)
}
