package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/modules/org/domain/position"
)

// TreeService derives read-only nested views from the flat entity set. It
// never mutates anything.
type TreeService struct {
	positions   position.Repository
	departments department.Repository
}

func NewTreeService(positions position.Repository, departments department.Repository) *TreeService {
	return &TreeService{positions: positions, departments: departments}
}

// PositionNode is one node of the reporting tree.
type PositionNode struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Children    []*PositionNode `json:"children"`
}

// DepartmentChart is the org-chart view of one department.
type DepartmentChart struct {
	DepartmentID   uuid.UUID       `json:"department_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	PositionCount  int             `json:"position_count"`
	FilledCount    int             `json:"filled_count"`
	VacantCount    int             `json:"vacant_count"`
	HeadPositionID *uuid.UUID      `json:"head_position_id,omitempty"`
	Tree           []*PositionNode `json:"tree"`
}

// GetReportingChain walks upward from a position, immediate supervisor first,
// until a position with no parent. A re-encountered ancestor means the stored
// graph is corrupted; the walk stops there instead of looping forever.
func (s *TreeService) GetReportingChain(ctx context.Context, positionID uuid.UUID) ([]*position.Position, error) {
	if positionID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "position id is required")
	}

	target, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		return nil, mapPgError(err)
	}

	chain := make([]*position.Position, 0)
	visited := map[uuid.UUID]struct{}{target.ID: {}}
	next := target.ReportsToPositionID
	for next != nil {
		if _, seen := visited[*next]; seen {
			break
		}
		ancestor, err := s.positions.GetByID(ctx, *next)
		if err != nil {
			mapped := mapPgError(err)
			if isNotFound(mapped) {
				break
			}
			return nil, mapped
		}
		if !ancestor.IsActive {
			break
		}
		visited[ancestor.ID] = struct{}{}
		chain = append(chain, ancestor)
		next = ancestor.ReportsToPositionID
	}
	return chain, nil
}

// GetPositionHierarchy builds the reporting tree over all active positions.
// With a nil root it returns the full forest; with a root it returns that
// position's subtree. Children are pre-indexed by parent id before recursion,
// so the build is linear in the number of positions.
func (s *TreeService) GetPositionHierarchy(ctx context.Context, rootID *uuid.UUID) ([]*PositionNode, error) {
	all, err := s.positions.ListActive(ctx)
	if err != nil {
		return nil, mapPgError(err)
	}

	if rootID != nil {
		root, err := s.positions.GetByID(ctx, *rootID)
		if err != nil {
			return nil, mapPgError(err)
		}
		if !root.IsActive {
			return nil, notFound("position not found")
		}
		forest := buildPositionForest(all, func(p *position.Position) bool {
			return p.ID == root.ID
		})
		return forest, nil
	}

	byID := make(map[uuid.UUID]struct{}, len(all))
	for _, p := range all {
		byID[p.ID] = struct{}{}
	}
	return buildPositionForest(all, func(p *position.Position) bool {
		if p.ReportsToPositionID == nil {
			return true
		}
		// A parent outside the active set makes this node a root of the view.
		_, ok := byID[*p.ReportsToPositionID]
		return !ok
	}), nil
}

// GenerateOrgChart produces a per-department chart. With a nil departmentID
// every active department is included. Each department's tree is restricted
// to its own positions; a position whose supervisor sits in another
// department becomes a root of that department's tree. Filled/vacant counts
// stay zeroed until assignment data is wired in.
func (s *TreeService) GenerateOrgChart(ctx context.Context, departmentID *uuid.UUID) ([]*DepartmentChart, error) {
	var departments []*department.Department
	if departmentID != nil {
		d, err := s.departments.GetByID(ctx, *departmentID)
		if err != nil {
			return nil, mapPgError(err)
		}
		if !d.IsActive {
			return nil, notFound("department not found")
		}
		departments = []*department.Department{d}
	} else {
		var err error
		departments, err = s.departments.List(ctx, true)
		if err != nil {
			return nil, mapPgError(err)
		}
	}

	charts := make([]*DepartmentChart, 0, len(departments))
	for _, d := range departments {
		positions, err := s.positions.ListActiveByDepartment(ctx, d.ID)
		if err != nil {
			return nil, mapPgError(err)
		}

		inDept := make(map[uuid.UUID]struct{}, len(positions))
		for _, p := range positions {
			inDept[p.ID] = struct{}{}
		}
		tree := buildPositionForest(positions, func(p *position.Position) bool {
			if p.ReportsToPositionID == nil {
				return true
			}
			_, ok := inDept[*p.ReportsToPositionID]
			return !ok
		})

		charts = append(charts, &DepartmentChart{
			DepartmentID:   d.ID,
			Code:           d.Code,
			Name:           d.Name,
			PositionCount:  len(positions),
			HeadPositionID: d.HeadPositionID,
			Tree:           tree,
		})
	}
	return charts, nil
}

// buildPositionForest indexes children by parent id once, then recurses from
// the roots selected by isRoot. Siblings are ordered by (title, id) so the
// same data always renders the same tree. A visited set keeps a corrupted
// parent chain from recursing forever.
func buildPositionForest(all []*position.Position, isRoot func(*position.Position) bool) []*PositionNode {
	children := make(map[uuid.UUID][]*position.Position, len(all))
	roots := make([]*position.Position, 0)
	for _, p := range all {
		if isRoot(p) {
			roots = append(roots, p)
			continue
		}
		if p.ReportsToPositionID != nil {
			children[*p.ReportsToPositionID] = append(children[*p.ReportsToPositionID], p)
		}
	}

	sortPositions(roots)
	for _, group := range children {
		sortPositions(group)
	}

	visited := make(map[uuid.UUID]struct{}, len(all))
	nodes := make([]*PositionNode, 0, len(roots))
	for _, root := range roots {
		if node := buildPositionNode(root, children, visited); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func buildPositionNode(p *position.Position, children map[uuid.UUID][]*position.Position, visited map[uuid.UUID]struct{}) *PositionNode {
	if _, seen := visited[p.ID]; seen {
		return nil
	}
	visited[p.ID] = struct{}{}

	node := &PositionNode{
		ID:          p.ID,
		Code:        p.Code,
		Title:       p.Title,
		Description: p.Description,
		Children:    make([]*PositionNode, 0, len(children[p.ID])),
	}
	for _, child := range children[p.ID] {
		if childNode := buildPositionNode(child, children, visited); childNode != nil {
			node.Children = append(node.Children, childNode)
		}
	}
	return node
}

func sortPositions(list []*position.Position) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Title != list[j].Title {
			return list[i].Title < list[j].Title
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
