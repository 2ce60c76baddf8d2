package modules

import (
	"github.com/iota-uz/legaldesk/modules/crm"
	"github.com/iota-uz/legaldesk/modules/dashboard"
	"github.com/iota-uz/legaldesk/modules/finance"
	"github.com/iota-uz/legaldesk/modules/hrm"
	"github.com/iota-uz/legaldesk/modules/matters"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/configuration"
)

// BuiltInModules lists the modules served by the legaldesk binary.
func BuiltInModules(conf *configuration.Configuration) []application.Module {
	return []application.Module{
		crm.NewModule(conf),
		finance.NewModule(),
		hrm.NewModule(),
		matters.NewModule(conf),
		dashboard.NewModule(conf),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
