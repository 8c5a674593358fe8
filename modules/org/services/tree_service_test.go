package services_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGetReportingChainOrder(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	ceo := f.mustPosition(t, "CEO", "Chief Executive", eng.ID, nil)
	vp := f.mustPosition(t, "VP", "VP Engineering", eng.ID, &ceo.ID)
	lead := f.mustPosition(t, "LEAD", "Team Lead", eng.ID, &vp.ID)
	ic := f.mustPosition(t, "ENG-1", "Engineer", eng.ID, &lead.ID)

	chain, err := f.treeSvc.GetReportingChain(f.ctx, ic.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	// Immediate supervisor first, root last.
	require.Equal(t, lead.ID, chain[0].ID)
	require.Equal(t, vp.ID, chain[1].ID)
	require.Equal(t, ceo.ID, chain[2].ID)
}

func TestGetReportingChainRootIsEmpty(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	ceo := f.mustPosition(t, "CEO", "Chief Executive", eng.ID, nil)

	chain, err := f.treeSvc.GetReportingChain(f.ctx, ceo.ID)
	require.NoError(t, err)
	require.Empty(t, chain)
}

func TestGetReportingChainMissingTarget(t *testing.T) {
	f := newFixture(t)
	_, err := f.treeSvc.GetReportingChain(f.ctx, uuid.New())
	requireServiceError(t, err, http.StatusNotFound, "ORG_NOT_FOUND")
}

func TestGetReportingChainStopsOnCorruptedGraph(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	a := f.mustPosition(t, "A", "A", eng.ID, nil)
	b := f.mustPosition(t, "B", "B", eng.ID, &a.ID)
	c := f.mustPosition(t, "C", "C", eng.ID, &b.ID)

	// a <- b <- c with a looping back to b.
	f.positions.SetReportsTo(a.ID, &b.ID)

	chain, err := f.treeSvc.GetReportingChain(f.ctx, c.ID)
	require.NoError(t, err)
	// b, then a; the walk stops when b would repeat.
	require.Len(t, chain, 2)
	require.Equal(t, b.ID, chain[0].ID)
	require.Equal(t, a.ID, chain[1].ID)
}

func TestGetPositionHierarchyIsDeterministic(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	root := f.mustPosition(t, "CEO", "Chief Executive", eng.ID, nil)
	f.mustPosition(t, "Z", "Zeta Lead", eng.ID, &root.ID)
	f.mustPosition(t, "A", "Alpha Lead", eng.ID, &root.ID)
	f.mustPosition(t, "M", "Middle Lead", eng.ID, &root.ID)

	first, err := f.treeSvc.GetPositionHierarchy(f.ctx, nil)
	require.NoError(t, err)
	second, err := f.treeSvc.GetPositionHierarchy(f.ctx, nil)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, first[0].Children, 3)
	// Siblings ordered by title.
	require.Equal(t, "Alpha Lead", first[0].Children[0].Title)
	require.Equal(t, "Middle Lead", first[0].Children[1].Title)
	require.Equal(t, "Zeta Lead", first[0].Children[2].Title)
	require.Equal(t, first, second)
}

func TestGetPositionHierarchySubtree(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	root := f.mustPosition(t, "CEO", "Chief Executive", eng.ID, nil)
	vp := f.mustPosition(t, "VP", "VP Engineering", eng.ID, &root.ID)
	f.mustPosition(t, "LEAD", "Team Lead", eng.ID, &vp.ID)

	tree, err := f.treeSvc.GetPositionHierarchy(f.ctx, &vp.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, vp.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, "Team Lead", tree[0].Children[0].Title)
}

func TestGetPositionHierarchyExcludesInactive(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	root := f.mustPosition(t, "CEO", "Chief Executive", eng.ID, nil)
	gone := f.mustPosition(t, "OLD", "Old Lead", eng.ID, &root.ID)
	orphan := f.mustPosition(t, "ENG-1", "Engineer", eng.ID, &gone.ID)

	_, err := f.posSvc.AssignReportingPosition(f.ctx, orphan.ID, nil)
	require.NoError(t, err)
	_, err = f.posSvc.RemovePosition(f.ctx, gone.ID)
	require.NoError(t, err)

	tree, err := f.treeSvc.GetPositionHierarchy(f.ctx, nil)
	require.NoError(t, err)
	// The removed position no longer appears; the re-parented engineer is a
	// root of its own.
	require.Len(t, tree, 2)
	for _, node := range tree {
		require.NotEqual(t, gone.ID, node.ID)
	}
}

func TestGenerateOrgChartPerDepartment(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	ops := f.mustDepartment(t, "OPS", "Operations")
	ceo := f.mustPosition(t, "CEO", "Chief Executive", eng.ID, nil)
	f.mustPosition(t, "ENG-1", "Engineer", eng.ID, &ceo.ID)
	// Reports across departments: root of the OPS tree even with a parent.
	f.mustPosition(t, "OPS-1", "Operator", ops.ID, &ceo.ID)

	charts, err := f.treeSvc.GenerateOrgChart(f.ctx, nil)
	require.NoError(t, err)
	require.Len(t, charts, 2)

	require.Equal(t, "ENG", charts[0].Code)
	require.Equal(t, 2, charts[0].PositionCount)
	require.Len(t, charts[0].Tree, 1)
	require.Equal(t, ceo.ID, charts[0].Tree[0].ID)

	require.Equal(t, "OPS", charts[1].Code)
	require.Equal(t, 1, charts[1].PositionCount)
	require.Len(t, charts[1].Tree, 1)
	require.Equal(t, "Operator", charts[1].Tree[0].Title)
}

func TestGenerateOrgChartSingleDepartment(t *testing.T) {
	f := newFixture(t)
	eng := f.mustDepartment(t, "ENG", "Engineering")
	f.mustDepartment(t, "OPS", "Operations")
	f.mustPosition(t, "ENG-1", "Engineer", eng.ID, nil)

	charts, err := f.treeSvc.GenerateOrgChart(f.ctx, &eng.ID)
	require.NoError(t, err)
	require.Len(t, charts, 1)
	require.Equal(t, eng.ID, charts[0].DepartmentID)
	require.Equal(t, 1, charts[0].PositionCount)
}
