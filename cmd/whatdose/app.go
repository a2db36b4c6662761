package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"whatdose/internal/blob"
	"whatdose/internal/core"
	"whatdose/internal/platform/config"
	"whatdose/internal/platform/logger"
	"whatdose/internal/templates"
)

// app holds the collaborators one command invocation works with.
type app struct {
	cfg     config.Config
	log     *logger.Logger
	store   core.ClosableStore
	archive blob.Store
	svc     *core.Service
	expvar  *core.ExpvarMetricsRecorder
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	store, err := core.OpenPersistentStore(ctx, cfg.Storage())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	archive, err := blob.Open(ctx, cfg.Blob())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	a.archive = archive

	opts := []core.ServiceOption{
		core.WithLogger(log),
		core.WithConcurrency(cfg.ResolveConcurrency),
	}
	if archive != nil {
		opts = append(opts, core.WithArchive(archive))
	}
	if cfg.TemplatesPath != "" {
		repo, err := templates.LoadFile(cfg.TemplatesPath)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, core.WithTemplates(repo))
	}
	if cfg.PolicyPath != "" {
		policy, err := core.LoadPolicyFile(cfg.PolicyPath)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, core.WithPolicy(policy))
	}
	metrics, expvarRec, err := newMetricsRecorder(cfg.Metrics, log, prometheus.DefaultRegisterer)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if metrics != nil {
		opts = append(opts, core.WithMetricsRecorder(metrics))
	}
	a.expvar = expvarRec
	a.svc = core.NewService(store, opts...)
	return a, nil
}

// newMetricsRecorder builds the configured exporter. A prometheus recorder that
// cannot register with reg falls back to a private registry and warns.
func newMetricsRecorder(kind string, log *logger.Logger, reg prometheus.Registerer) (core.MetricsRecorder, *core.ExpvarMetricsRecorder, error) {
	switch kind {
	case config.MetricsExpvar:
		rec := core.NewExpvarMetricsRecorder("")
		return rec, rec, nil
	case config.MetricsPrometheus:
		rec, err := core.NewPrometheusMetricsRecorder(reg)
		if err == nil {
			return rec, nil, nil
		}
		var dup prometheus.AlreadyRegisteredError
		if !errors.As(err, &dup) {
			return nil, nil, err
		}
		log.Warn("prometheus collectors already registered, metrics go to an unscraped private registry", "error", err)
		rec, err = core.NewPrometheusMetricsRecorder(nil)
		if err != nil {
			return nil, nil, err
		}
		return rec, nil, nil
	}
	return nil, nil, nil
}

func (a *app) Close() error {
	if a.expvar != nil {
		snap := a.expvar.Snapshot()
		a.log.Debug("service metrics", "results", snap.Results, "warnings", snap.Warnings)
	}
	a.log.Sync()
	return a.store.Close()
}
