package invoicehttp

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	errorslib "github.com/goliatone/go-errors"

	invoicedelivery "github.com/goliatone/go-invoice/adapters/delivery"
	invoicepdf "github.com/goliatone/go-invoice/adapters/pdf"
	storefs "github.com/goliatone/go-invoice/adapters/store/fs"
	"github.com/goliatone/go-invoice/invoice"
)

// Config wires the HTTP surface to the domain services. Tracker and Store
// are optional; without them runs are not recorded and artifacts are not
// persisted.
type Config struct {
	Exporter  *invoice.Exporter
	Pipeline  *invoicepdf.Pipeline
	Reminders *invoicedelivery.ReminderService
	Scheduler *invoicedelivery.Scheduler
	Tracker   invoice.RunTracker
	Store     invoice.ArtifactStore
	Logger    invoice.Logger
}

// Handler exposes export, render, and reminder endpoints.
type Handler struct {
	exporter  *invoice.Exporter
	pipeline  *invoicepdf.Pipeline
	reminders *invoicedelivery.ReminderService
	scheduler *invoicedelivery.Scheduler
	tracker   invoice.RunTracker
	store     invoice.ArtifactStore
	logger    invoice.Logger
}

// NewHandler creates an HTTP handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = invoice.NopLogger{}
	}
	return &Handler{
		exporter:  cfg.Exporter,
		pipeline:  cfg.Pipeline,
		reminders: cfg.Reminders,
		scheduler: cfg.Scheduler,
		tracker:   cfg.Tracker,
		store:     cfg.Store,
		logger:    logger,
	}
}

// Register mounts the API routes on a fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Post("/api/export", h.Export)
	app.Post("/api/render", h.Render)
	app.Post("/api/reminders", h.Reminders)
	app.Get("/api/runs", h.ListRuns)
	app.Get("/api/runs/:id", h.RunStatus)
	app.Get("/api/runs/:id/artifacts", h.RunArtifacts)
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ExportRequest is the body of POST /api/export.
type ExportRequest struct {
	Invoices []invoice.Invoice `json:"invoices"`
	Format   string            `json:"format"`
}

// ExportResponse is the body of a successful export.
type ExportResponse struct {
	Success bool   `json:"success"`
	Format  string `json:"format"`
	Content string `json:"content"`
	Count   int    `json:"count"`
	RunID   string `json:"run_id,omitempty"`
}

// Export serializes a batch of invoices into an accounting format.
func (h *Handler) Export(c *fiber.Ctx) error {
	if h.exporter == nil {
		return writeError(c, invoice.NewError(invoice.KindNotImpl, "exporter not configured", nil))
	}

	var req ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invoice.NewError(invoice.KindData, "invalid export request", err))
	}

	format, err := invoice.ParseFormat(req.Format)
	if err != nil {
		return writeError(c, err)
	}

	runID := h.startRun(c, invoice.RunRecord{
		Kind:   invoice.RunExport,
		Target: string(format),
		Counts: invoice.RunCounts{Total: int64(len(req.Invoices))},
	})

	result, err := h.exporter.Export(c.Context(), req.Invoices, format)
	if err != nil {
		h.failRun(c, runID, err)
		return writeError(c, err)
	}

	if runID != "" && h.store != nil {
		key := storefs.ExportKey(runID, format)
		ref, putErr := h.store.Put(c.Context(), key, strings.NewReader(result.Content), invoice.ArtifactMeta{
			ContentType: invoice.ContentTypeForFormat(format),
		})
		if putErr != nil {
			h.logger.Errorf("store export artifact: %v", putErr)
		} else if err := h.tracker.SetArtifact(c.Context(), runID, ref); err != nil {
			h.logger.Errorf("record export artifact: %v", err)
		}
	}
	h.completeRun(c, runID, invoice.RunCounts{
		Processed: int64(result.Count),
		Total:     int64(len(req.Invoices)),
		Errors:    int64(len(result.Skipped)),
	})

	return c.JSON(ExportResponse{
		Success: true,
		Format:  string(result.Format),
		Content: result.Content,
		Count:   result.Count,
		RunID:   runID,
	})
}

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	InvoiceData invoice.Invoice `json:"invoice_data"`
	Template    string          `json:"template"`
}

// RenderResponse carries the generated PDF.
type RenderResponse struct {
	Success   bool   `json:"success"`
	PDFBase64 string `json:"pdf_base64"`
	RunID     string `json:"run_id,omitempty"`
}

// Render generates a PDF for one invoice from a named template.
func (h *Handler) Render(c *fiber.Ctx) error {
	if h.pipeline == nil {
		return writeError(c, invoice.NewError(invoice.KindNotImpl, "pdf pipeline not configured", nil))
	}

	var req RenderRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invoice.NewError(invoice.KindData, "invalid render request", err))
	}

	runID := h.startRun(c, invoice.RunRecord{
		Kind:   invoice.RunRender,
		Target: req.Template,
		Counts: invoice.RunCounts{Total: 1},
	})

	pdf, err := h.pipeline.GeneratePDF(c.Context(), req.Template, req.InvoiceData)
	if err != nil {
		h.failRun(c, runID, err)
		return writeError(c, err)
	}

	if runID != "" && h.store != nil {
		key := storefs.PDFKey(runID, req.InvoiceData.InvoiceNumber)
		ref, putErr := h.store.Put(c.Context(), key, strings.NewReader(string(pdf)), invoice.ArtifactMeta{
			ContentType: "application/pdf",
		})
		if putErr != nil {
			h.logger.Errorf("store pdf artifact: %v", putErr)
		} else if err := h.tracker.SetArtifact(c.Context(), runID, ref); err != nil {
			h.logger.Errorf("record pdf artifact: %v", err)
		}
	}
	h.completeRun(c, runID, invoice.RunCounts{Processed: 1, Total: 1})

	return c.JSON(RenderResponse{
		Success:   true,
		PDFBase64: base64.StdEncoding.EncodeToString(pdf),
		RunID:     runID,
	})
}

// RemindersRequest is the body of POST /api/reminders.
type RemindersRequest struct {
	Invoices []invoice.Invoice `json:"invoices"`
}

// RemindersResponse summarizes a reminder run.
type RemindersResponse struct {
	Success bool                            `json:"success"`
	Queued  bool                            `json:"queued,omitempty"`
	Results invoicedelivery.ReminderResults `json:"results"`
	Message string                          `json:"message"`
	RunID   string                          `json:"run_id,omitempty"`
}

// Reminders processes overdue invoices and sends tiered reminder emails.
// With a scheduler configured the batch is queued for the job worker and the
// worker records the run; otherwise it is processed inline.
func (h *Handler) Reminders(c *fiber.Ctx) error {
	if h.reminders == nil && h.scheduler == nil {
		return writeError(c, invoice.NewError(invoice.KindNotImpl, "reminder service not configured", nil))
	}

	var req RemindersRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invoice.NewError(invoice.KindData, "invalid reminder request", err))
	}

	if h.scheduler != nil {
		if err := h.scheduler.ScheduleReminders(c.Context(), invoicedelivery.ReminderRequest{Invoices: req.Invoices}); err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(RemindersResponse{
			Success: true,
			Queued:  true,
			Message: fmt.Sprintf("Queued reminder run for %d invoices", len(req.Invoices)),
		})
	}

	runID := h.startRun(c, invoice.RunRecord{
		Kind:   invoice.RunReminder,
		Counts: invoice.RunCounts{Total: int64(len(req.Invoices))},
	})

	results, err := h.reminders.ProcessOverdue(c.Context(), req.Invoices)
	if err != nil {
		h.failRun(c, runID, err)
		return writeError(c, err)
	}
	h.completeRun(c, runID, invoice.RunCounts{
		Processed: int64(results.Processed),
		Total:     int64(len(req.Invoices)),
		Errors:    int64(results.Failed),
	})

	return c.JSON(RemindersResponse{
		Success: true,
		Results: results,
		Message: fmt.Sprintf("Processed %d overdue invoices, sent %d reminders", results.Processed, results.Sent),
		RunID:   runID,
	})
}

// RunStatus returns one run history entry.
func (h *Handler) RunStatus(c *fiber.Ctx) error {
	if h.tracker == nil {
		return writeError(c, invoice.NewError(invoice.KindNotImpl, "run tracker not configured", nil))
	}
	record, err := h.tracker.Status(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(record)
}

// RunArtifacts returns the stored outputs of one run.
func (h *Handler) RunArtifacts(c *fiber.Ctx) error {
	lister, ok := h.store.(invoice.RunArtifactLister)
	if !ok {
		return writeError(c, invoice.NewError(invoice.KindNotImpl, "artifact store not configured", nil))
	}
	refs, err := lister.ListRun(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"artifacts": refs})
}

// ListRuns returns run history, optionally filtered by kind and state.
func (h *Handler) ListRuns(c *fiber.Ctx) error {
	if h.tracker == nil {
		return writeError(c, invoice.NewError(invoice.KindNotImpl, "run tracker not configured", nil))
	}
	filter := invoice.RunFilter{
		Kind:  invoice.RunKind(c.Query("kind")),
		State: invoice.RunState(c.Query("state")),
	}
	records, err := h.tracker.List(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"runs": records})
}

func (h *Handler) startRun(c *fiber.Ctx, record invoice.RunRecord) string {
	if h.tracker == nil {
		return ""
	}
	record.State = invoice.StateRunning
	id, err := h.tracker.Start(c.Context(), record)
	if err != nil {
		h.logger.Errorf("start run: %v", err)
		return ""
	}
	return id
}

func (h *Handler) completeRun(c *fiber.Ctx, id string, counts invoice.RunCounts) {
	if h.tracker == nil || id == "" {
		return
	}
	if err := h.tracker.Complete(c.Context(), id, counts); err != nil {
		h.logger.Errorf("complete run %s: %v", id, err)
	}
}

func (h *Handler) failRun(c *fiber.Ctx, id string, cause error) {
	if h.tracker == nil || id == "" {
		return
	}
	if err := h.tracker.Fail(c.Context(), id, cause); err != nil {
		h.logger.Errorf("fail run %s: %v", id, err)
	}
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries the error message and machine code.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeError(c *fiber.Ctx, err error) error {
	ge := invoice.AsGoError(err)
	return c.Status(statusForError(ge)).JSON(ErrorResponse{
		Error: ErrorBody{
			Message: ge.Message,
			Code:    ge.TextCode,
		},
	})
}

func statusForError(err *errorslib.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if err.TextCode == "not_implemented" {
		return http.StatusNotImplemented
	}
	switch err.Category {
	case errorslib.CategoryValidation:
		return http.StatusBadRequest
	case errorslib.CategoryAuthz:
		return http.StatusForbidden
	case errorslib.CategoryNotFound:
		return http.StatusNotFound
	case errorslib.CategoryExternal:
		return http.StatusBadGateway
	case errorslib.CategoryOperation:
		if err.TextCode == "canceled" {
			return http.StatusConflict
		}
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
