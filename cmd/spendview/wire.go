package main

import (
	"context"
	"fmt"

	"spendview/internal/adapters"
	"spendview/internal/amqp"
	"spendview/internal/catalog"
	"spendview/internal/charts"
	"spendview/internal/config"
	"spendview/internal/export"
	"spendview/internal/log"
	"spendview/internal/ports"
	"spendview/internal/services"
	"spendview/internal/storage"
)

// app holds the wired dependencies shared by serve and query.
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	catalog   *catalog.Catalog
	dashboard *services.DashboardService
	publisher *amqp.Client
}

func newApp(cfg *config.Config, logger *log.Logger) (*app, error) {
	cat, err := catalog.Load(cfg.Dialect())
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := charts.Validate(cat); err != nil {
		return nil, fmt.Errorf("chart bindings: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, catalog: cat}

	var publisher ports.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			// Audit events are best-effort; the dashboard runs without them.
			logger.Warn("AMQP publisher unavailable", log.FieldError, err)
		} else {
			a.publisher = client
			publisher = client
		}
	}

	connector := storage.NewConnector(storageConfig(cfg), logger)
	a.dashboard = services.NewDashboardService(cat, adapters.NewStorageOpener(connector), publisher, logger)

	logger.Info("Dashboard ready",
		log.FieldDriver, string(cat.Dialect()),
		log.FieldDatabase, databaseLabel(cfg),
		"queries", cat.Len(),
		"audit_events", a.publisher != nil)
	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Failed to close AMQP publisher", log.FieldError, err)
		}
	}
}

// sheetsExporter returns nil when the export is not configured.
func (a *app) sheetsExporter(ctx context.Context) (ports.SheetExporter, error) {
	sc := export.SheetsConfig{
		SpreadsheetID:      a.cfg.GoogleSpreadsheetID,
		SheetName:          a.cfg.GoogleSheetName,
		ServiceAccountJSON: a.cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: a.cfg.GoogleServiceAccountFile,
	}
	if !sc.Enabled() {
		return nil, nil
	}
	exporter, err := export.NewSheetsExporter(ctx, sc, a.logger)
	if err != nil {
		return nil, err
	}
	return exporter, nil
}

func storageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver:         cfg.Dialect(),
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		Database:       cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		SQLitePath:     cfg.SQLiteDBPath,
		ConnectTimeout: cfg.DBConnectTimeout,
		QueryTimeout:   cfg.QueryTimeout,
	}
}

func databaseLabel(cfg *config.Config) string {
	if cfg.Dialect() == catalog.SQLite {
		return cfg.SQLiteDBPath
	}
	return fmt.Sprintf("%s:%d/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
}
