package service

import (
	"context"

	"github.com/ONSdigital/dp-api-clients-go/health"
	"github.com/ONSdigital/dp-sdmx-series-controller/config"
	"github.com/ONSdigital/dp-sdmx-series-controller/handlers"
	"github.com/ONSdigital/dp-sdmx-series-controller/sdmx"
	"github.com/ONSdigital/log.go/v2/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Service contains all the configs, server and clients to run the sdmx series controller
type Service struct {
	Config             *config.Config
	portalHealthClient *health.Client
	HealthCheck        HealthChecker
	Server             HTTPServer
	PortalClient       *sdmx.CachedClient
	ServiceList        *ExternalServiceList
}

// Run the service
func Run(ctx context.Context, cfg *config.Config, serviceList *ExternalServiceList, buildTime, gitCommit, version string, svcErrors chan error) (svc *Service, err error) {
	log.Info(ctx, "running service")

	// Initialise Service struct
	svc = &Service{
		Config:      cfg,
		ServiceList: serviceList,
	}

	// Get health client for the sdmx data portal
	svc.portalHealthClient = serviceList.GetHealthClient("sdmx-data-portal", cfg.SDMXPortalURL)

	// Initialise the portal client with bounded response caching
	svc.PortalClient = sdmx.NewCachedClient(
		sdmx.NewWithHealthClient(svc.portalHealthClient),
		cfg.CacheMaxEntries,
		cfg.CacheTTL,
	)

	// Get healthcheck with checkers
	svc.HealthCheck, err = serviceList.GetHealthCheck(cfg, buildTime, gitCommit, version)
	if err != nil {
		log.Fatal(ctx, "failed to create health check", err)
		return nil, err
	}
	if err := svc.registerCheckers(ctx); err != nil {
		return nil, errors.Wrap(err, "unable to register checkers")
	}

	// Initialise router
	router := mux.NewRouter()
	router.StrictSlash(true).Path("/health").HandlerFunc(svc.HealthCheck.Handler)

	router.StrictSlash(true).Path("/datasets").Methods("GET").HandlerFunc(handlers.DatasetList(svc.PortalClient))
	router.StrictSlash(true).Path("/datasets/{flowID}/dimensions").Methods("GET").HandlerFunc(handlers.DimensionList(svc.PortalClient))
	router.StrictSlash(true).Path("/datasets/{flowID}/series").Methods("GET").HandlerFunc(handlers.SeriesCatalog(svc.PortalClient, cfg.CatalogMaxRows))
	router.StrictSlash(true).Path("/datasets/{flowID}/keys").Methods("POST").HandlerFunc(handlers.BuildKeys(svc.PortalClient, cfg.MaxSeriesKeys))
	router.StrictSlash(true).Path("/datasets/{flowID}/data").Methods("POST").HandlerFunc(handlers.SeriesData(svc.PortalClient, svc.PortalClient, cfg.MaxSeriesKeys))
	router.StrictSlash(true).Path("/datasets/{flowID}/data.csv").Methods("GET").HandlerFunc(handlers.SeriesDataCSV(svc.PortalClient))

	svc.Server = serviceList.GetHTTPServer(cfg.BindAddr, router)

	// Start Healthcheck and HTTP Server
	svc.HealthCheck.Start(ctx)
	go func() {
		if err := svc.Server.ListenAndServe(); err != nil {
			svcErrors <- errors.Wrap(err, "failure in http listen and serve")
		}
	}()

	return svc, nil
}

// Close gracefully shuts the service down in the required order, with timeout
func (svc *Service) Close(ctx context.Context) error {
	timeout := svc.Config.GracefulShutdownTimeout
	log.Info(ctx, "commencing graceful shutdown", log.Data{"graceful_shutdown_timeout": timeout})
	ctx, cancel := context.WithTimeout(ctx, timeout)
	hasShutdownError := false

	go func() {
		defer cancel()

		// stop healthcheck, as it depends on everything else
		if svc.ServiceList.HealthCheck {
			svc.HealthCheck.Stop()
		}

		// stop any incoming requests
		if err := svc.Server.Shutdown(ctx); err != nil {
			log.Error(ctx, "failed to shutdown http server", err)
			hasShutdownError = true
		}
	}()

	// wait for shutdown success (via cancel) or failure (timeout)
	<-ctx.Done()

	// timeout expired
	if ctx.Err() == context.DeadlineExceeded {
		log.Error(ctx, "shutdown timed out", ctx.Err())
		return ctx.Err()
	}

	// other error
	if hasShutdownError {
		err := errors.New("failed to shutdown gracefully")
		log.Error(ctx, "failed to shutdown gracefully ", err)
		return err
	}

	log.Info(ctx, "graceful shutdown was successful")
	return nil
}

func (svc *Service) registerCheckers(ctx context.Context) (err error) {
	if err = svc.HealthCheck.AddCheck("SDMX data portal", svc.PortalClient.Checker); err != nil {
		log.Error(ctx, "failed to add sdmx data portal checker", err)
		return errors.New("Error(s) registering checkers for healthcheck")
	}
	return nil
}
