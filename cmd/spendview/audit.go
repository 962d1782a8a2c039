package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spendview/internal/amqp"
	"spendview/internal/cli"
	"spendview/internal/log"
	"spendview/internal/worker"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Consume query events from AMQP and keep a per-query audit summary",
	Long: `audit binds a durable queue to the AMQP exchange the dashboard publishes
query.executed events to, logs every event and prints a per-query summary on
exit. Requires AMQP_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd.Context())
	},
}

func runAudit(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("audit requires AMQP_URL")
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	consumer, err := amqp.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPRoutingKey, cfg.AMQPPrefetch, logger)
	if err != nil {
		return fmt.Errorf("initialize AMQP consumer: %w", err)
	}
	defer consumer.Close()

	auditor := worker.NewAuditWorker(logger)
	ctx := cli.GracefulShutdown(parent, logger, 10*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := consumer.ConsumeQueryExecuted(gctx, auditor.HandleQueryExecuted)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return auditor.PeriodicSummary(gctx, cfg.AuditSummaryInterval)
	})

	logger.Info("Audit worker started",
		"queue", cfg.AMQPQueue,
		"summary_interval", cfg.AuditSummaryInterval.String())

	err = g.Wait()
	if perr := printAuditSummary(auditor.Summary()); perr != nil {
		logger.Warn("Failed to print audit summary", log.FieldError, perr)
	}
	return err
}

func printAuditSummary(summary []worker.QueryStats) error {
	if len(summary) == 0 {
		pterm.Info.Println("No query events audited")
		return nil
	}
	pterm.DefaultSection.Printfln("%d queries audited", len(summary))
	return pterm.DefaultTable.WithHasHeader().WithData(auditTable(summary)).Render()
}

func auditTable(summary []worker.QueryStats) pterm.TableData {
	data := pterm.TableData{{"Query", "Passes", "Failures", "Rows", "Mean", "Last error"}}
	for _, s := range summary {
		data = append(data, []string{
			s.Label,
			strconv.Itoa(s.Passes),
			strconv.Itoa(s.Failures),
			strconv.Itoa(s.Rows),
			s.MeanDuration().String(),
			s.LastError,
		})
	}
	return data
}
