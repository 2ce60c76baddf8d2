package crm

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	crmbackend "github.com/iota-uz/legaldesk/modules/crm/infrastructure/backend"
	"github.com/iota-uz/legaldesk/modules/crm/presentation/controllers"
	"github.com/iota-uz/legaldesk/modules/crm/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/metrics"
)

func NewModule(conf *configuration.Configuration) application.Module {
	return &Module{conf: conf}
}

type Module struct {
	conf *configuration.Configuration
}

func (m *Module) Register(app application.Application) error {
	client := app.Service(backend.Client{}).(*backend.Client)
	app.RegisterServices(
		services.NewBulkUploadService(
			crmbackend.NewCommitter(client),
			app.EventPublisher(),
			app.Service(metrics.Collectors{}).(*metrics.Collectors),
			services.BulkUploadOptions{
				MaxOpenBatches: m.conf.BulkUpload.MaxOpenBatches,
				TTL:            m.conf.BulkUpload.BatchTTL,
				MaxRows:        m.conf.BulkUpload.MaxRows,
			},
		),
	)
	app.RegisterControllers(
		controllers.NewBulkUploadController(app, m.conf),
	)
	app.EventPublisher().Subscribe(func(e *bulkupload.BatchCommittedEvent) {
		app.Logger().WithFields(logrus.Fields{
			"batch_id": e.BatchID,
			"user_id":  e.OwnerID,
			"contacts": e.Result.ContactsCreated,
		}).Info("bulk upload committed")
	})
	app.EventPublisher().Subscribe(func(e *bulkupload.BatchDiscardedEvent) {
		app.Logger().WithFields(logrus.Fields{
			"batch_id": e.BatchID,
			"user_id":  e.OwnerID,
			"reason":   e.Reason,
		}).Info("bulk upload discarded")
	})
	return nil
}

func (m *Module) Name() string {
	return "crm"
}
