package container

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/maxedonia/ela-mate-web/internal/analyzer"
	"github.com/maxedonia/ela-mate-web/internal/config"
	"github.com/maxedonia/ela-mate-web/internal/factory"
	"github.com/maxedonia/ela-mate-web/internal/forensics"
	"github.com/maxedonia/ela-mate-web/internal/logger"
	"github.com/maxedonia/ela-mate-web/internal/observer"
	"github.com/maxedonia/ela-mate-web/internal/repository"
	"github.com/maxedonia/ela-mate-web/internal/service"
	"github.com/maxedonia/ela-mate-web/internal/transport"
	"github.com/maxedonia/ela-mate-web/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	engine    *forensics.Engine
	publisher *observer.EventPublisher
	pool      *analyzer.WorkerPool
	metrics   *observer.MetricsObserver
	service   service.ForensicsService
	handler   http.Handler
}

// NewContainer wires the API server from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	backend, err := components.BackendFactory.CreateBackend(factory.BackendType(cfg.ImagingBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create imaging backend: %w", err)
	}

	storageTypes := []factory.StorageType{factory.HTTPStorage}
	validator := validation.NewURLValidatorWithOptions(validation.DefaultSchemes, cfg.AllowedSourceHosts)
	if cfg.AzureEnabled() {
		storageTypes = append(storageTypes, factory.AzureStorage)
		validator = validator.WithBlobSources()
	}
	router, err := factory.NewRouter(components.StorageFactory, storageTypes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	engine := forensics.NewEngine(backend)
	repo := repository.NewImageRepository(router, validator)

	var opts []service.Option
	var pool *analyzer.WorkerPool
	if cfg.Workers > 0 {
		pool = analyzer.NewWorkerPool(cfg.Workers)
		opts = append(opts, service.WithWorkerPool(pool))
	}
	svc := service.NewForensicsService(repo, engine, publisher, cfg.AnalysisTimeout, opts...)

	logger.WithFields(logrus.Fields{
		"backend": engine.Backend(),
		"azure":   cfg.AzureEnabled(),
		"workers": cfg.Workers,
	}).Info("Container initialized")

	return &Container{
		config:    cfg,
		engine:    engine,
		publisher: publisher,
		pool:      pool,
		metrics:   metrics,
		service:   svc,
		handler:   transport.NewHandler(svc, metrics, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the forensics service
func (c *Container) Service() service.ForensicsService {
	return c.service
}

// Shutdown stops the analysis workers and waits for in-flight observer
// notifications
func (c *Container) Shutdown() {
	if c.pool != nil {
		c.pool.Close()
		c.pool.Wait()
	}
	c.publisher.Flush()
}
