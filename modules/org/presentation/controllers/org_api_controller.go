package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
	"github.com/peopledesk/peopledesk/modules/org/services"
	"github.com/peopledesk/peopledesk/pkg/application"
	"github.com/peopledesk/peopledesk/pkg/composables"
)

type OrgAPIController struct {
	app            application.Application
	departments    *services.DepartmentService
	positions      *services.PositionService
	trees          *services.TreeService
	changeRequests *services.ChangeRequestService
	apiPrefix      string
}

func NewOrgAPIController(app application.Application) application.Controller {
	return &OrgAPIController{
		app:            app,
		departments:    app.Service(services.DepartmentService{}).(*services.DepartmentService),
		positions:      app.Service(services.PositionService{}).(*services.PositionService),
		trees:          app.Service(services.TreeService{}).(*services.TreeService),
		changeRequests: app.Service(services.ChangeRequestService{}).(*services.ChangeRequestService),
		apiPrefix:      "/org/api",
	}
}

func (c *OrgAPIController) Key() string {
	return c.apiPrefix
}

func (c *OrgAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/departments", c.CreateDepartment).Methods(http.MethodPost)
	api.HandleFunc("/departments", c.ListDepartments).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}", c.GetDepartment).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}", c.UpdateDepartment).Methods(http.MethodPatch)
	api.HandleFunc("/departments/{id}", c.RemoveDepartment).Methods(http.MethodDelete)
	api.HandleFunc("/departments/{id}:assign-head", c.AssignDepartmentHead).Methods(http.MethodPost)

	api.HandleFunc("/positions", c.CreatePosition).Methods(http.MethodPost)
	api.HandleFunc("/positions", c.ListPositions).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id}", c.GetPosition).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id}", c.UpdatePosition).Methods(http.MethodPatch)
	api.HandleFunc("/positions/{id}", c.RemovePosition).Methods(http.MethodDelete)
	api.HandleFunc("/positions/{id}:assign-reporting", c.AssignReportingPosition).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id}:assign-department", c.AssignDepartmentToPosition).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id}/reporting-chain", c.GetReportingChain).Methods(http.MethodGet)

	api.HandleFunc("/hierarchy", c.GetPositionHierarchy).Methods(http.MethodGet)
	api.HandleFunc("/org-chart", c.GenerateOrgChart).Methods(http.MethodGet)

	api.HandleFunc("/change-requests", c.CreateChangeRequest).Methods(http.MethodPost)
	api.HandleFunc("/change-requests", c.ListChangeRequests).Methods(http.MethodGet)
	api.HandleFunc("/change-requests/{id}", c.GetChangeRequest).Methods(http.MethodGet)
	api.HandleFunc("/change-requests/{id}", c.UpdateChangeRequest).Methods(http.MethodPatch)
	api.HandleFunc("/change-requests/{id}:submit", c.SubmitChangeRequest).Methods(http.MethodPost)
	api.HandleFunc("/change-requests/{id}:approve", c.ApproveChangeRequest).Methods(http.MethodPost)
	api.HandleFunc("/change-requests/{id}:reject", c.RejectChangeRequest).Methods(http.MethodPost)
	api.HandleFunc("/change-requests/{id}:cancel", c.CancelChangeRequest).Methods(http.MethodPost)
	api.HandleFunc("/change-requests/{id}/approvals", c.ListApprovals).Methods(http.MethodGet)
}

type departmentWriteRequest struct {
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	HeadPositionID *uuid.UUID `json:"head_position_id"`
}

func (c *OrgAPIController) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var req departmentWriteRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	d, err := c.departments.CreateDepartment(r.Context(), services.CreateDepartmentInput{
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		HeadPositionID: req.HeadPositionID,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (c *OrgAPIController) ListDepartments(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	activeOnly := strings.TrimSpace(r.URL.Query().Get("active")) == "true"
	out, err := c.departments.ListDepartments(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *OrgAPIController) GetDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	d, err := c.departments.GetDepartment(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type departmentPatchRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (c *OrgAPIController) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req departmentPatchRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	d, err := c.departments.UpdateDepartment(r.Context(), id, services.UpdateDepartmentInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (c *OrgAPIController) RemoveDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	d, err := c.departments.RemoveDepartment(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type assignHeadRequest struct {
	HeadPositionID *uuid.UUID `json:"head_position_id"`
}

func (c *OrgAPIController) AssignDepartmentHead(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req assignHeadRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	d, err := c.departments.AssignDepartmentHead(r.Context(), id, req.HeadPositionID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type positionWriteRequest struct {
	Code                string     `json:"code"`
	Title               string     `json:"title"`
	Description         *string    `json:"description"`
	DepartmentID        uuid.UUID  `json:"department_id"`
	ReportsToPositionID *uuid.UUID `json:"reports_to_position_id"`
}

func (c *OrgAPIController) CreatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var req positionWriteRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	p, err := c.positions.CreatePosition(r.Context(), services.CreatePositionInput{
		Code:                req.Code,
		Title:               req.Title,
		Description:         req.Description,
		DepartmentID:        req.DepartmentID,
		ReportsToPositionID: req.ReportsToPositionID,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (c *OrgAPIController) ListPositions(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	out, err := c.positions.ListPositions(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *OrgAPIController) GetPosition(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	p, err := c.positions.GetPosition(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type positionPatchRequest struct {
	Code        *string `json:"code"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (c *OrgAPIController) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req positionPatchRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	p, err := c.positions.UpdatePosition(r.Context(), id, services.UpdatePositionInput{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *OrgAPIController) RemovePosition(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	p, err := c.positions.RemovePosition(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type assignReportingRequest struct {
	ReportsToPositionID *uuid.UUID `json:"reports_to_position_id"`
}

func (c *OrgAPIController) AssignReportingPosition(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req assignReportingRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	p, err := c.positions.AssignReportingPosition(r.Context(), id, req.ReportsToPositionID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type assignDepartmentRequest struct {
	DepartmentID uuid.UUID `json:"department_id"`
}

func (c *OrgAPIController) AssignDepartmentToPosition(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req assignDepartmentRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	p, err := c.positions.AssignDepartmentToPosition(r.Context(), id, req.DepartmentID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *OrgAPIController) GetReportingChain(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	chain, err := c.trees.GetReportingChain(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, chain)
}

func (c *OrgAPIController) GetPositionHierarchy(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	root, ok := queryUUID(w, r, requestID, "root")
	if !ok {
		return
	}
	tree, err := c.trees.GetPositionHierarchy(r.Context(), root)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (c *OrgAPIController) GenerateOrgChart(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	dept, ok := queryUUID(w, r, requestID, "department")
	if !ok {
		return
	}
	chart, err := c.trees.GenerateOrgChart(r.Context(), dept)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

type changeRequestWriteRequest struct {
	RequestType        string          `json:"request_type"`
	TargetDepartmentID *uuid.UUID      `json:"target_department_id"`
	TargetPositionID   *uuid.UUID      `json:"target_position_id"`
	Details            json.RawMessage `json:"details"`
	Reason             string          `json:"reason"`
}

func (c *OrgAPIController) CreateChangeRequest(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req changeRequestWriteRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	cr, err := c.changeRequests.CreateChangeRequest(r.Context(), services.CreateChangeRequestInput{
		RequestedByEmployeeID: actorID,
		RequestType:           changerequest.RequestType(req.RequestType),
		TargetDepartmentID:    req.TargetDepartmentID,
		TargetPositionID:      req.TargetPositionID,
		Details:               req.Details,
		Reason:                req.Reason,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, cr)
}

func (c *OrgAPIController) ListChangeRequests(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())

	status := changerequest.Status(strings.TrimSpace(r.URL.Query().Get("status")))
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "limit is invalid")
			return
		}
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	out, err := c.changeRequests.ListChangeRequests(r.Context(), status, limit)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *OrgAPIController) GetChangeRequest(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	cr, err := c.changeRequests.GetChangeRequest(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

type changeRequestPatchRequest struct {
	RequestType        *string         `json:"request_type"`
	TargetDepartmentID *uuid.UUID      `json:"target_department_id"`
	TargetPositionID   *uuid.UUID      `json:"target_position_id"`
	Details            json.RawMessage `json:"details"`
	Reason             *string         `json:"reason"`
}

func (c *OrgAPIController) UpdateChangeRequest(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req changeRequestPatchRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	in := services.UpdateChangeRequestInput{
		TargetDepartmentID: req.TargetDepartmentID,
		TargetPositionID:   req.TargetPositionID,
		Details:            req.Details,
		Reason:             req.Reason,
	}
	if req.RequestType != nil {
		rt := changerequest.RequestType(*req.RequestType)
		in.RequestType = &rt
	}

	cr, err := c.changeRequests.UpdateChangeRequest(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

func (c *OrgAPIController) SubmitChangeRequest(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx *transitionContext) (*changerequest.ChangeRequest, error) {
		return c.changeRequests.SubmitChangeRequest(ctx.r.Context(), ctx.id, ctx.actorID)
	})
}

type reviewRequest struct {
	Comments *string `json:"comments"`
}

func (c *OrgAPIController) ApproveChangeRequest(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx *transitionContext) (*changerequest.ChangeRequest, error) {
		req, err := decodeReview(ctx.r.Body)
		if err != nil {
			return nil, err
		}
		return c.changeRequests.ApproveChangeRequest(ctx.r.Context(), ctx.id, ctx.actorID, req.Comments)
	})
}

func (c *OrgAPIController) RejectChangeRequest(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx *transitionContext) (*changerequest.ChangeRequest, error) {
		req, err := decodeReview(ctx.r.Body)
		if err != nil {
			return nil, err
		}
		return c.changeRequests.RejectChangeRequest(ctx.r.Context(), ctx.id, ctx.actorID, req.Comments)
	})
}

func (c *OrgAPIController) CancelChangeRequest(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx *transitionContext) (*changerequest.ChangeRequest, error) {
		return c.changeRequests.CancelChangeRequest(ctx.r.Context(), ctx.id, ctx.actorID)
	})
}

func (c *OrgAPIController) ListApprovals(w http.ResponseWriter, r *http.Request) {
	requestID := composables.UseRequestID(r.Context())
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	out, err := c.changeRequests.ListApprovals(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type transitionContext struct {
	r       *http.Request
	id      uuid.UUID
	actorID uuid.UUID
}

func (c *OrgAPIController) transition(w http.ResponseWriter, r *http.Request, fn func(*transitionContext) (*changerequest.ChangeRequest, error)) {
	requestID := composables.UseRequestID(r.Context())
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	cr, err := fn(&transitionContext{r: r, id: id, actorID: actorID})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

func requireActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, err := composables.UseActorID(r.Context())
	if err != nil {
		requestID := composables.UseRequestID(r.Context())
		writeAPIError(w, http.StatusUnauthorized, requestID, "ORG_NO_ACTOR", "no authenticated employee")
		return uuid.Nil, false
	}
	return actorID, true
}

func pathID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_ID", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(w http.ResponseWriter, r *http.Request, requestID, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_ID", name+" is invalid")
		return nil, false
	}
	return &id, true
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// decodeReview tolerates an empty body; review comments are optional.
func decodeReview(body io.ReadCloser) (reviewRequest, error) {
	var req reviewRequest
	err := decodeJSON(body, &req)
	if err == nil || errors.Is(err, io.EOF) {
		return req, nil
	}
	return req, &services.ServiceError{
		Status:  http.StatusBadRequest,
		Code:    "ORG_INVALID_BODY",
		Message: "invalid json body",
	}
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "ORG_INTERNAL", err.Error())
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, apiError{Code: code, Message: message, Meta: meta})
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
