package services_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
	"github.com/peopledesk/peopledesk/modules/org/domain/events"
	"github.com/peopledesk/peopledesk/modules/org/services"
	"github.com/peopledesk/peopledesk/modules/org/testutil"
	"github.com/peopledesk/peopledesk/pkg/eventbus"
)

type workflowFixture struct {
	*fixture
	requests  *testutil.ChangeRequestRepository
	approvals *testutil.ApprovalRepository
	recorder  *services.ApprovalRecorder
	workflow  *services.ChangeRequestService
	bus       eventbus.EventBus
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	f := newFixture(t)
	requests := testutil.NewChangeRequestRepository()
	approvals := testutil.NewApprovalRepository()
	recorder := services.NewApprovalRecorder(approvals)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bus := eventbus.NewEventPublisher(logger)
	return &workflowFixture{
		fixture:   f,
		requests:  requests,
		approvals: approvals,
		recorder:  recorder,
		workflow:  services.NewChangeRequestService(requests, recorder, f.departments, f.positions, bus),
		bus:       bus,
	}
}

func (f *workflowFixture) mustDraft(t *testing.T) *changerequest.ChangeRequest {
	t.Helper()
	eng := f.mustDepartment(t, "D-"+uuid.NewString()[:8], "Dept")
	cr, err := f.workflow.CreateChangeRequest(f.ctx, services.CreateChangeRequestInput{
		RequestedByEmployeeID: uuid.New(),
		RequestType:           changerequest.TypeNewPosition,
		TargetDepartmentID:    &eng.ID,
		Reason:                "headcount growth",
	})
	require.NoError(t, err)
	return cr
}

func TestCreateChangeRequestAllocatesSequentialNumbers(t *testing.T) {
	f := newWorkflowFixture(t)
	year := time.Now().UTC().Year()

	first := f.mustDraft(t)
	second := f.mustDraft(t)

	require.Equal(t, fmt.Sprintf("ORG-%d-0001", year), first.RequestNumber)
	require.Equal(t, fmt.Sprintf("ORG-%d-0002", year), second.RequestNumber)
	require.Equal(t, changerequest.StatusDraft, first.Status)
}

func TestCreateChangeRequestRequiresTargetAndReason(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.workflow.CreateChangeRequest(f.ctx, services.CreateChangeRequestInput{
		RequestedByEmployeeID: uuid.New(),
		RequestType:           changerequest.TypeNewPosition,
		Reason:                "no target",
	})
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_BODY")

	eng := f.mustDepartment(t, "ENG", "Engineering")
	_, err = f.workflow.CreateChangeRequest(f.ctx, services.CreateChangeRequestInput{
		RequestedByEmployeeID: uuid.New(),
		RequestType:           changerequest.TypeNewPosition,
		TargetDepartmentID:    &eng.ID,
		Reason:                "   ",
	})
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_BODY")
}

func TestCreateChangeRequestValidatesTargets(t *testing.T) {
	f := newWorkflowFixture(t)

	missing := uuid.New()
	_, err := f.workflow.CreateChangeRequest(f.ctx, services.CreateChangeRequestInput{
		RequestedByEmployeeID: uuid.New(),
		RequestType:           changerequest.TypeReassignHead,
		TargetDepartmentID:    &missing,
		Reason:                "restructure",
	})
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_REF")
}

func TestUpdateChangeRequestOnlyInDraft(t *testing.T) {
	f := newWorkflowFixture(t)
	cr := f.mustDraft(t)

	reason := "updated reason"
	updated, err := f.workflow.UpdateChangeRequest(f.ctx, cr.ID, services.UpdateChangeRequestInput{Reason: &reason})
	require.NoError(t, err)
	require.Equal(t, "updated reason", updated.Reason)

	_, err = f.workflow.SubmitChangeRequest(f.ctx, cr.ID, uuid.New())
	require.NoError(t, err)

	_, err = f.workflow.UpdateChangeRequest(f.ctx, cr.ID, services.UpdateChangeRequestInput{Reason: &reason})
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_STATE")
}

func TestSubmitStampsSubmitter(t *testing.T) {
	f := newWorkflowFixture(t)
	cr := f.mustDraft(t)
	submitter := uuid.New()

	submitted, err := f.workflow.SubmitChangeRequest(f.ctx, cr.ID, submitter)
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedByEmployeeID)
	require.Equal(t, submitter, *submitted.SubmittedByEmployeeID)
	require.NotNil(t, submitted.SubmittedAt)

	// A second submission violates the transition table.
	_, err = f.workflow.SubmitChangeRequest(f.ctx, cr.ID, submitter)
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_STATE")
}

func TestApproveAppendsExactlyOneApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	cr := f.mustDraft(t)
	_, err := f.workflow.SubmitChangeRequest(f.ctx, cr.ID, uuid.New())
	require.NoError(t, err)

	approver := uuid.New()
	comments := "looks right"
	approved, err := f.workflow.ApproveChangeRequest(f.ctx, cr.ID, approver, &comments)
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusApproved, approved.Status)

	trail, err := f.workflow.ListApprovals(f.ctx, cr.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, changerequest.DecisionApproved, trail[0].Decision)
	require.Equal(t, approver, trail[0].ApproverEmployeeID)
	require.NotNil(t, trail[0].Comments)
	require.Equal(t, "looks right", *trail[0].Comments)
}

func TestRejectIsTerminal(t *testing.T) {
	f := newWorkflowFixture(t)
	cr := f.mustDraft(t)
	_, err := f.workflow.SubmitChangeRequest(f.ctx, cr.ID, uuid.New())
	require.NoError(t, err)

	rejected, err := f.workflow.RejectChangeRequest(f.ctx, cr.ID, uuid.New(), nil)
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusRejected, rejected.Status)

	_, err = f.workflow.ApproveChangeRequest(f.ctx, cr.ID, uuid.New(), nil)
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_STATE")
	_, err = f.workflow.CancelChangeRequest(f.ctx, cr.ID, uuid.New())
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_STATE")
}

func TestCancelWindows(t *testing.T) {
	f := newWorkflowFixture(t)

	// Draft may be cancelled.
	draft := f.mustDraft(t)
	cancelled, err := f.workflow.CancelChangeRequest(f.ctx, draft.ID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusCancelled, cancelled.Status)

	// Submitted may be cancelled, and no approval record is written for it.
	submitted := f.mustDraft(t)
	_, err = f.workflow.SubmitChangeRequest(f.ctx, submitted.ID, uuid.New())
	require.NoError(t, err)
	_, err = f.workflow.CancelChangeRequest(f.ctx, submitted.ID, uuid.New())
	require.NoError(t, err)

	trail, err := f.workflow.ListApprovals(f.ctx, submitted.ID)
	require.NoError(t, err)
	require.Empty(t, trail)

	// Cancelled is terminal.
	_, err = f.workflow.SubmitChangeRequest(f.ctx, cancelled.ID, uuid.New())
	requireServiceError(t, err, http.StatusBadRequest, "ORG_INVALID_STATE")
}

func TestApprovalTrailKeepsEveryDecision(t *testing.T) {
	f := newWorkflowFixture(t)
	cr := f.mustDraft(t)

	// Record decisions directly; the trail is append-only regardless of the
	// request's own state.
	first, err := f.recorder.Record(f.ctx, cr.ID, uuid.New(), changerequest.DecisionRejected, nil)
	require.NoError(t, err)
	second, err := f.recorder.Record(f.ctx, cr.ID, uuid.New(), changerequest.DecisionApproved, nil)
	require.NoError(t, err)

	trail, err := f.recorder.ListFor(f.ctx, cr.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	require.Equal(t, first.ID, trail[0].ID)
	require.Equal(t, second.ID, trail[1].ID)
}

func TestTransitionPublishesEvent(t *testing.T) {
	f := newWorkflowFixture(t)
	cr := f.mustDraft(t)

	var mu sync.Mutex
	var got []events.ChangeRequestTransitioned
	f.bus.Subscribe(func(e events.ChangeRequestTransitioned) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})

	_, err := f.workflow.SubmitChangeRequest(f.ctx, cr.ID, uuid.New())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Equal(t, cr.ID, got[0].RequestID)
	require.Equal(t, changerequest.StatusSubmitted, got[0].Status)
	require.Equal(t, cr.RequestNumber, got[0].RequestNumber)
}

func TestListChangeRequestsFiltersByStatus(t *testing.T) {
	f := newWorkflowFixture(t)
	draft := f.mustDraft(t)
	other := f.mustDraft(t)
	_, err := f.workflow.SubmitChangeRequest(f.ctx, other.ID, uuid.New())
	require.NoError(t, err)

	drafts, err := f.workflow.ListChangeRequests(f.ctx, changerequest.StatusDraft, 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	require.Equal(t, draft.ID, drafts[0].ID)

	all, err := f.workflow.ListChangeRequests(f.ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
