package services_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/peopledesk/modules/org/services"
)

func TestCreatePositionValidatesReferences(t *testing.T) {
	f := newFixture(t)

	_, err := f.posSvc.CreatePosition(f.ctx, services.CreatePositionInput{
		Code: "ENG-1", Title: "Engineer", DepartmentID: uuid.New(),
	})
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_REF")

	eng := f.mustDepartment(t, "ENG", "Engineering")
	missing := uuid.New()
	_, err = f.posSvc.CreatePosition(f.ctx, services.CreatePositionInput{
		Code: "ENG-1", Title: "Engineer", DepartmentID: eng.ID, ReportsToPositionID: &missing,
	})
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_REF")
}

func TestAssignReportingPositionRejectsSelf(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	p := f.mustPosition(t, "ENG-1", "Engineer", eng.ID, nil)

	_, err := f.posSvc.AssignReportingPosition(f.ctx, p.ID, &p.ID)
	requireServiceError(t, err, http.StatusBadRequest, "ORG_SELF_REPORT")
}

func TestAssignReportingPositionRejectsCycle(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	a := f.mustPosition(t, "A", "A", eng.ID, nil)
	b := f.mustPosition(t, "B", "B", eng.ID, &a.ID)
	c := f.mustPosition(t, "C", "C", eng.ID, &b.ID)

	// a -> c would close a <- b <- c into a loop.
	_, err := f.posSvc.AssignReportingPosition(f.ctx, a.ID, &c.ID)
	requireServiceError(t, err, http.StatusBadRequest, "ORG_CYCLE")

	// The failed assignment leaves the graph untouched.
	got, err := f.posSvc.GetPosition(f.ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, got.ReportsToPositionID)
}

func TestAssignReportingPositionSurvivesCorruptedGraph(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	a := f.mustPosition(t, "A", "A", eng.ID, nil)
	b := f.mustPosition(t, "B", "B", eng.ID, &a.ID)
	fresh := f.mustPosition(t, "D", "D", eng.ID, nil)

	// Corrupt the stored graph into a loop the validator did not create.
	f.positions.SetReportsTo(a.ID, &b.ID)

	// The walk terminates instead of hanging, and the edge is accepted since
	// the new position is not part of the loop.
	got, err := f.posSvc.AssignReportingPosition(f.ctx, fresh.ID, &a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReportsToPositionID)
	require.Equal(t, a.ID, *got.ReportsToPositionID)
}

func TestAssignReportingPositionClearsWithNil(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	a := f.mustPosition(t, "A", "A", eng.ID, nil)
	b := f.mustPosition(t, "B", "B", eng.ID, &a.ID)

	got, err := f.posSvc.AssignReportingPosition(f.ctx, b.ID, nil)
	require.NoError(t, err)
	require.Nil(t, got.ReportsToPositionID)
}

func TestRemovePositionGuardsActiveSubordinates(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	lead := f.mustPosition(t, "LEAD", "Lead", eng.ID, nil)
	sub := f.mustPosition(t, "ENG-1", "Engineer", eng.ID, &lead.ID)

	_, err := f.posSvc.RemovePosition(f.ctx, lead.ID)
	requireServiceError(t, err, http.StatusBadRequest, "ORG_HAS_SUBORDINATES")

	// After re-parenting, removal succeeds and is soft.
	_, err = f.posSvc.AssignReportingPosition(f.ctx, sub.ID, nil)
	require.NoError(t, err)
	removed, err := f.posSvc.RemovePosition(f.ctx, lead.ID)
	require.NoError(t, err)
	require.False(t, removed.IsActive)

	got, err := f.posSvc.GetPosition(f.ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, "LEAD", got.Code)
}

func TestRemovePositionIgnoresInactiveSubordinates(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	lead := f.mustPosition(t, "LEAD", "Lead", eng.ID, nil)
	sub := f.mustPosition(t, "ENG-1", "Engineer", eng.ID, &lead.ID)

	_, err := f.posSvc.RemovePosition(f.ctx, sub.ID)
	require.NoError(t, err)

	_, err = f.posSvc.RemovePosition(f.ctx, lead.ID)
	require.NoError(t, err)
}

func TestAssignDepartmentToPositionRejectsNoOp(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	ops := f.mustDepartment(t, "OPS", "Operations")
	p := f.mustPosition(t, "ENG-1", "Engineer", eng.ID, nil)

	_, err := f.posSvc.AssignDepartmentToPosition(f.ctx, p.ID, eng.ID)
	requireServiceError(t, err, http.StatusBadRequest, "ORG_SAME_DEPARTMENT")

	moved, err := f.posSvc.AssignDepartmentToPosition(f.ctx, p.ID, ops.ID)
	require.NoError(t, err)
	require.Equal(t, ops.ID, moved.DepartmentID)
}

func TestAssignDepartmentToPositionRejectsInactiveDepartment(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	ops := f.mustDepartment(t, "OPS", "Operations")
	p := f.mustPosition(t, "ENG-1", "Engineer", eng.ID, nil)

	_, err := f.deptSvc.RemoveDepartment(f.ctx, ops.ID)
	require.NoError(t, err)

	_, err = f.posSvc.AssignDepartmentToPosition(f.ctx, p.ID, ops.ID)
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INACTIVE_REF")
}

func TestCreatePositionDuplicateCodeConflicts(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	f.mustPosition(t, "ENG-1", "Engineer", eng.ID, nil)

	_, err := f.posSvc.CreatePosition(f.ctx, services.CreatePositionInput{
		Code: "eng-1", Title: "Engineer Two", DepartmentID: eng.ID,
	})
	requireServiceError(t, err, http.StatusConflict, "ORG_CODE_CONFLICT")
}
