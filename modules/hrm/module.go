package hrm

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/legaldesk/modules/hrm/domain/leave"
	"github.com/iota-uz/legaldesk/modules/hrm/presentation/controllers"
	"github.com/iota-uz/legaldesk/modules/hrm/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	client := app.Service(backend.Client{}).(*backend.Client)
	app.RegisterServices(
		services.NewLeaveService(services.NewBackendDirectory(client), app.EventPublisher()),
	)
	app.RegisterControllers(
		controllers.NewLeaveController(app),
	)
	app.EventPublisher().Subscribe(func(e *leave.RequestedEvent) {
		app.Logger().WithFields(logrus.Fields{
			"user_id":    e.UserID,
			"request_id": e.RequestID,
			"days":       e.Days,
		}).Info("leave requested")
	})
	return nil
}

func (m *Module) Name() string {
	return "hrm"
}
