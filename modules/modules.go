package modules

import (
	"github.com/peopledesk/peopledesk/modules/org"
	"github.com/peopledesk/peopledesk/pkg/application"
)

var BuiltInModules = []application.Module{
	org.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	modules := append(BuiltInModules, externalModules...)
	return application.Load(app, modules...)
}
