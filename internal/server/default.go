package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/peopledesk/peopledesk/pkg/application"
	"github.com/peopledesk/peopledesk/pkg/configuration"
	"github.com/peopledesk/peopledesk/pkg/metrics"
	"github.com/peopledesk/peopledesk/pkg/middleware"
	"github.com/peopledesk/peopledesk/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the middleware stack and controllers shared by every
// deployment of the service.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	app.RegisterMiddleware([]mux.MiddlewareFunc{
		middleware.RequestID(),
		middleware.WithLogger(options.Logger),
		middleware.ProvideActor(),
		middleware.WithPool(options.Pool),
		middleware.Cors(options.Configuration.AllowedOrigins...),
	}...)

	app.RegisterControllers(NewHealthController())
	if options.Configuration.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(options.Configuration.Prometheus.Path))
	}

	return server.NewHTTPServer(app), nil
}
