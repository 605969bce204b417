package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	apistatus "github.com/kilianp07/svitlo/api/status"
	"github.com/kilianp07/svitlo/config"
	"github.com/kilianp07/svitlo/core/events"
	coremetrics "github.com/kilianp07/svitlo/core/metrics"
	"github.com/kilianp07/svitlo/infra/logger"
	"github.com/kilianp07/svitlo/infra/metrics"
	"github.com/kilianp07/svitlo/infra/mqtt"
	"github.com/kilianp07/svitlo/infra/source"
	"github.com/kilianp07/svitlo/internal/eventbus"
)

// Service wires the coordinator to its publishers and servers.
type Service struct {
	Coordinator *Coordinator
	statuses    *eventbus.TypedBus[events.StatusEvent]
	polls       *eventbus.TypedBus[events.PollEvent]
	sink        coremetrics.StatusSink
	publisher   *mqtt.Publisher
	promPort    string
	listen      string
	log         logger.Logger
}

// New builds a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	log := logger.New("service")
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	sink, err := coremetrics.NewStatusSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	var pub *mqtt.Publisher
	if cfg.MQTT.Enabled() {
		pub, err = mqtt.NewPublisher(cfg.MQTT, cfg.Source.Region, cfg.Source.Queue)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}

	statuses := eventbus.NewTyped[events.StatusEvent]()
	polls := eventbus.NewTyped[events.PollEvent]()
	coord := NewCoordinator(CoordinatorConfig{
		Region:       cfg.Source.Region,
		Queue:        cfg.Source.Queue,
		Location:     loc,
		PollInterval: cfg.Poll.Interval(),
		Logger:       logger.New("coordinator"),
	}, source.NewFetcher(cfg.Source, loc), statuses, polls)

	return &Service{
		Coordinator: coord,
		statuses:    statuses,
		polls:       polls,
		sink:        sink,
		publisher:   pub,
		promPort:    cfg.Metrics.PrometheusPort,
		listen:      cfg.HTTP.Listen,
		log:         log,
	}, nil
}

// Run starts every component and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	collectorDone := metrics.StartEventCollector(ctx, s.statuses, s.polls, s.sink, logger.New("metrics"))

	var wg sync.WaitGroup
	if s.publisher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.publisher.Run(ctx, s.statuses)
		}()
	}
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}

	err := s.Coordinator.Run(ctx)
	s.statuses.Close()
	s.polls.Close()
	wg.Wait()
	<-collectorDone
	return err
}

func (s *Service) serveAPI(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           apistatus.NewRouter(s.Coordinator, s.statuses, logger.New("api")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("api server shutdown: %v", err)
		}
	}()
	s.log.Infof("serving status API on %s", s.listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
