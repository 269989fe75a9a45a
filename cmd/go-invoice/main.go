package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	job "github.com/goliatone/go-job"

	invoicedelivery "github.com/goliatone/go-invoice/adapters/delivery"
	invoicehttp "github.com/goliatone/go-invoice/adapters/http"
	invoicejob "github.com/goliatone/go-invoice/adapters/job"
	invoicepdf "github.com/goliatone/go-invoice/adapters/pdf"
	storefs "github.com/goliatone/go-invoice/adapters/store/fs"
	trackerbun "github.com/goliatone/go-invoice/adapters/tracker/bun"
	"github.com/goliatone/go-invoice/document"
	"github.com/goliatone/go-invoice/invoice"
)

const usage = `usage: go-invoice <command>

commands:
  export   read {"invoices": [...], "format": "..."} from stdin, write export content
  render   read {"invoice_data": {...}, "template": "..."} from stdin, write PDF as base64
  email    read {"to_email": ..., "subject": ..., "body": ..., "pdf_path": ...} from stdin
  remind   read {"invoices": [...]} from stdin, send overdue reminders
  serve    run the HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fail(err)
	}
	logger, flush := newLogger(cfg.Debug)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "export":
		err = runExport(ctx, cfg, logger)
	case "render":
		err = runRender(ctx, cfg, logger)
	case "email":
		err = runEmail(ctx, cfg, logger)
	case "remind":
		err = runRemind(ctx, cfg, logger)
	case "serve":
		err = runServe(ctx, cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

// fail mirrors the CLI error contract: a JSON error envelope on stderr and a
// non-zero exit.
func fail(err error) {
	ge := invoice.AsGoError(err)
	payload, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   ge.Message,
		"message": "Command failed",
	})
	fmt.Fprintln(os.Stderr, string(payload))
	os.Exit(1)
}

func readInput(v any) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return invoice.NewError(invoice.KindData, "read stdin failed", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invoice.NewError(invoice.KindData, "invalid JSON input", err)
	}
	return nil
}

func writeOutput(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return invoice.NewError(invoice.KindInternal, "encode output failed", err)
	}
	fmt.Println(string(payload))
	return nil
}

func runExport(ctx context.Context, cfg Config, logger *zapLogger) error {
	var input struct {
		Invoices []invoice.Invoice `json:"invoices"`
		Format   string            `json:"format"`
	}
	if err := readInput(&input); err != nil {
		return err
	}

	format, err := invoice.ParseFormat(input.Format)
	if err != nil {
		return err
	}

	exporter := invoice.NewExporter()
	exporter.Logger = logger

	result, err := exporter.Export(ctx, input.Invoices, format)
	if err != nil {
		return err
	}

	if cfg.ArtifactDir != "" {
		store := storefs.NewStore(cfg.ArtifactDir)
		runID := time.Now().UTC().Format("20060102-150405")
		key := storefs.ExportKey(runID, format)
		if _, err := store.Put(ctx, key, strings.NewReader(result.Content), invoice.ArtifactMeta{
			ContentType: invoice.ContentTypeForFormat(format),
		}); err != nil {
			logger.Errorf("store export artifact: %v", err)
		}
	}

	return writeOutput(map[string]any{
		"success": true,
		"format":  string(result.Format),
		"content": result.Content,
		"count":   result.Count,
	})
}

func runRender(ctx context.Context, cfg Config, logger *zapLogger) error {
	var input struct {
		InvoiceData invoice.Invoice `json:"invoice_data"`
		Template    string          `json:"template"`
	}
	if err := readInput(&input); err != nil {
		return err
	}
	if input.Template == "" {
		input.Template = document.DefaultTemplateName
	}

	pipeline, cleanup, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	pdf, err := pipeline.GeneratePDF(ctx, input.Template, input.InvoiceData)
	if err != nil {
		return err
	}

	return writeOutput(map[string]any{
		"success":    true,
		"pdf_base64": base64.StdEncoding.EncodeToString(pdf),
	})
}

func runEmail(ctx context.Context, cfg Config, _ *zapLogger) error {
	var input struct {
		ToEmail string `json:"to_email"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
		PDFPath string `json:"pdf_path"`
	}
	if err := readInput(&input); err != nil {
		return err
	}

	msg := invoicedelivery.EmailMessage{
		To:      input.ToEmail,
		Subject: input.Subject,
		Body:    input.Body,
	}
	if input.PDFPath != "" {
		data, err := os.ReadFile(input.PDFPath)
		if err != nil {
			return invoice.NewError(invoice.KindData, "read pdf attachment failed", err)
		}
		name := input.PDFPath
		if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
			name = name[idx+1:]
		}
		msg.Attachment = &invoicedelivery.Attachment{
			Filename:    name,
			ContentType: "application/pdf",
			Data:        data,
		}
	}

	mailer := invoicedelivery.NewSMTPMailer(cfg.SMTP())
	if err := mailer.Send(ctx, msg); err != nil {
		return err
	}
	return writeOutput(map[string]any{"success": true})
}

func runRemind(ctx context.Context, cfg Config, logger *zapLogger) error {
	var input struct {
		Invoices []invoice.Invoice `json:"invoices"`
	}
	if err := readInput(&input); err != nil {
		return err
	}

	svc := invoicedelivery.NewReminderService(invoicedelivery.NewSMTPMailer(cfg.SMTP()))
	svc.Logger = logger

	results, err := svc.ProcessOverdue(ctx, input.Invoices)
	if err != nil {
		return err
	}

	return writeOutput(map[string]any{
		"success": true,
		"results": results,
		"message": fmt.Sprintf("Processed %d overdue invoices, sent %d reminders", results.Processed, results.Sent),
	})
}

func runServe(ctx context.Context, cfg Config, logger *zapLogger) error {
	pipeline, cleanup, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	tracker, err := trackerbun.OpenSQLite(ctx, cfg.TrackerDSN)
	if err != nil {
		return err
	}
	defer tracker.Close()

	exporter := invoice.NewExporter()
	exporter.Logger = logger

	reminders := invoicedelivery.NewReminderService(invoicedelivery.NewSMTPMailer(cfg.SMTP()))
	reminders.Logger = logger

	// With REMINDER_ASYNC set, reminder batches are queued and the job task
	// runs them off the request path. The in-process enqueuer stands in for a
	// real job runner.
	var scheduler *invoicedelivery.Scheduler
	if cfg.ReminderAsync {
		task := invoicejob.NewReminderTask(invoicejob.TaskConfig{
			Reminders: reminders,
			Tracker:   tracker,
			Logger:    logger,
		})
		enqueuer := invoicedelivery.EnqueuerFunc(func(_ context.Context, msg *job.ExecutionMessage) error {
			go func() {
				const reminderRunTimeout = 10 * time.Minute
				execCtx, cancel := context.WithTimeout(context.Background(), reminderRunTimeout)
				defer cancel()
				if err := task.Execute(execCtx, msg); err != nil {
					logger.Errorf("reminder run failed: %v", err)
				}
			}()
			return nil
		})
		scheduler = invoicedelivery.NewScheduler(invoicedelivery.SchedulerConfig{
			Enqueuer: enqueuer,
			Logger:   logger,
		})
	}

	handler := invoicehttp.NewHandler(invoicehttp.Config{
		Exporter:  exporter,
		Pipeline:  pipeline,
		Reminders: reminders,
		Scheduler: scheduler,
		Tracker:   tracker,
		Store:     storefs.NewStore(cfg.ArtifactDir),
		Logger:    logger,
	})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.Register(app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.HTTPAddr)
	}()
	logger.Infof("listening on %s", cfg.HTTPAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Infof("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func buildPipeline(ctx context.Context, cfg Config, logger *zapLogger) (*invoicepdf.Pipeline, func(), error) {
	store := document.NewFSStore(cfg.TemplateDir)
	if err := store.Seed(ctx); err != nil {
		return nil, nil, err
	}

	renderer := document.NewRenderer(store)
	renderer.Logger = logger

	var engine invoicepdf.Engine
	cleanup := func() {}
	switch cfg.PDFEngine {
	case "chromium", "":
		chromium := &invoicepdf.ChromiumEngine{
			BrowserPath: cfg.BrowserPath,
			Headless:    true,
			Timeout:     30 * time.Second,
		}
		engine = chromium
		cleanup = func() { _ = chromium.Close() }
	default:
		engine = invoicepdf.CommandEngine{
			Command: cfg.PDFEngine,
			Timeout: 30 * time.Second,
		}
	}

	pipeline := invoicepdf.NewPipeline(renderer, engine)
	pipeline.Logger = logger
	return pipeline, cleanup, nil
}
