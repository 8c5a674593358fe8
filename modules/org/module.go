package org

import (
	"embed"

	"github.com/peopledesk/peopledesk/modules/org/infrastructure/persistence"
	"github.com/peopledesk/peopledesk/modules/org/presentation/controllers"
	"github.com/peopledesk/peopledesk/modules/org/services"
	"github.com/peopledesk/peopledesk/pkg/application"
)

//go:embed infrastructure/persistence/schema/org-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterSchema(&migrationFiles)

	departments := persistence.NewDepartmentRepository()
	positions := persistence.NewPositionRepository()
	requests := persistence.NewChangeRequestRepository()
	approvals := persistence.NewApprovalRepository()

	recorder := services.NewApprovalRecorder(approvals)
	app.RegisterServices(
		services.NewDepartmentService(departments, positions),
		services.NewPositionService(positions, departments),
		services.NewTreeService(positions, departments),
		recorder,
		services.NewChangeRequestService(requests, recorder, departments, positions, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewOrgAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "org"
}
