package httpservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/clubnft/clubd/internal/config"
	interfaces "github.com/clubnft/clubd/internal/interface"
	"github.com/clubnft/clubd/internal/interface/http/handlers"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Port           uint32
	AllowedOrigins []string
}

func (c Config) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("missing port")
	}
	return nil
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

type service struct {
	config        Config
	appConfig     *config.Config
	server        *http.Server
	appSvcStarted atomic.Bool
}

func NewService(svcConfig Config, appConfig *config.Config) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	return &service{config: svcConfig, appConfig: appConfig}, nil
}

func (s *service) Start() error {
	if err := s.startAppServices(); err != nil {
		return err
	}

	appSvc, _ := s.appConfig.AppService()
	contentStore, _ := s.appConfig.ContentStore()
	s.server = &http.Server{
		Addr: s.config.address(),
		Handler: handlers.NewHandler(
			appSvc, s.appConfig.ManualFulfiller(), contentStore, s.config.AllowedOrigins,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server stopped unexpectedly")
		}
	}()

	log.Infof("started listening at %s", s.config.address())
	return nil
}

func (s *service) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("failed to gracefully shutdown http server")
			_ = s.server.Close()
		}
	}

	if s.appSvcStarted.CompareAndSwap(true, false) {
		if appSvc, _ := s.appConfig.AppService(); appSvc != nil {
			appSvc.Stop()
		}
		s.appConfig.SchedulerService().Stop()
		log.Info("stopped app service")
	}

	if contentStore, _ := s.appConfig.ContentStore(); contentStore != nil {
		contentStore.Close()
	}
	log.Info("shutdown service")
}

func (s *service) startAppServices() error {
	if !s.appSvcStarted.CompareAndSwap(false, true) {
		return nil
	}

	s.appConfig.SchedulerService().Start()

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		s.appSvcStarted.Store(false)
		return fmt.Errorf("failed to create app service: %w", err)
	}
	if err := appSvc.Start(); err != nil {
		s.appSvcStarted.Store(false)
		return fmt.Errorf("failed to start app service: %w", err)
	}
	log.Info("started app service")
	return nil
}
