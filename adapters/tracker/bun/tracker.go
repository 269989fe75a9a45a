package trackerbun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-invoice/invoice"
)

// Tracker stores run history in a Bun-backed database.
type Tracker struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

// NewTracker creates a Bun-backed run tracker.
func NewTracker(db *bun.DB) *Tracker {
	return &Tracker{DB: db, Now: time.Now, IDGenerator: uuid.NewString}
}

var _ invoice.RunTracker = (*Tracker)(nil)

// OpenSQLite opens a SQLite-backed tracker and ensures its schema.
func OpenSQLite(ctx context.Context, dsn string) (*Tracker, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, invoice.NewError(invoice.KindConfig, "open tracker database failed", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	tracker := NewTracker(db)
	if err := tracker.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return tracker, nil
}

// CreateSchema creates the run history table if missing.
func (t *Tracker) CreateSchema(ctx context.Context) error {
	if t == nil || t.DB == nil {
		return invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	_, err := t.DB.NewCreateTable().Model((*runModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Close releases the underlying database.
func (t *Tracker) Close() error {
	if t == nil || t.DB == nil {
		return nil
	}
	return t.DB.Close()
}

// Start creates a new run record.
func (t *Tracker) Start(ctx context.Context, record invoice.RunRecord) (string, error) {
	if t == nil || t.DB == nil {
		return "", invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	if record.ID == "" {
		record.ID = t.nextID()
	}
	if record.State == "" {
		record.State = invoice.StateQueued
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.now()
	}

	model, err := modelFromRecord(record)
	if err != nil {
		return "", err
	}
	if _, err := t.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return "", err
	}
	return record.ID, nil
}

// SetState updates the run state.
func (t *Tracker) SetState(ctx context.Context, id string, state invoice.RunState) error {
	if t == nil || t.DB == nil {
		return invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return invoice.NewError(invoice.KindValidation, "run ID is required", nil)
	}

	query := t.DB.NewUpdate().Model((*runModel)(nil)).
		Set("state = ?", state).
		Where("id = ?", id)
	if state == invoice.StateRunning {
		query = query.Set("started_at = COALESCE(started_at, ?)", t.now())
	}
	if state == invoice.StateCompleted || state == invoice.StateFailed {
		query = query.Set("completed_at = COALESCE(completed_at, ?)", t.now())
	}

	return t.execOne(ctx, query, id)
}

// Complete marks the run as completed with final counts.
func (t *Tracker) Complete(ctx context.Context, id string, counts invoice.RunCounts) error {
	if t == nil || t.DB == nil {
		return invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return invoice.NewError(invoice.KindValidation, "run ID is required", nil)
	}

	query := t.DB.NewUpdate().Model((*runModel)(nil)).
		Set("state = ?", invoice.StateCompleted).
		Set("counts_processed = ?", counts.Processed).
		Set("counts_total = ?", counts.Total).
		Set("counts_errors = ?", counts.Errors).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)

	return t.execOne(ctx, query, id)
}

// Fail marks the run as failed, recording the cause.
func (t *Tracker) Fail(ctx context.Context, id string, cause error) error {
	if t == nil || t.DB == nil {
		return invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return invoice.NewError(invoice.KindValidation, "run ID is required", nil)
	}

	failure := ""
	if cause != nil {
		failure = cause.Error()
	}
	query := t.DB.NewUpdate().Model((*runModel)(nil)).
		Set("state = ?", invoice.StateFailed).
		Set("failure = ?", failure).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)

	return t.execOne(ctx, query, id)
}

// SetArtifact records the artifact produced by the run.
func (t *Tracker) SetArtifact(ctx context.Context, id string, ref invoice.ArtifactRef) error {
	if t == nil || t.DB == nil {
		return invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return invoice.NewError(invoice.KindValidation, "run ID is required", nil)
	}

	meta, err := json.Marshal(ref.Meta)
	if err != nil {
		return err
	}
	query := t.DB.NewUpdate().Model((*runModel)(nil)).
		Set("artifact_key = ?", ref.Key).
		Set("artifact_meta = ?", meta).
		Where("id = ?", id)

	return t.execOne(ctx, query, id)
}

// Status returns a run by ID.
func (t *Tracker) Status(ctx context.Context, id string) (invoice.RunRecord, error) {
	if t == nil || t.DB == nil {
		return invoice.RunRecord{}, invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return invoice.RunRecord{}, invoice.NewError(invoice.KindValidation, "run ID is required", nil)
	}

	model := new(runModel)
	err := t.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invoice.RunRecord{}, invoice.NewError(invoice.KindNotFound, fmt.Sprintf("run %q not found", id), nil)
		}
		return invoice.RunRecord{}, err
	}
	return model.toRecord()
}

// List returns runs matching a filter, newest first.
func (t *Tracker) List(ctx context.Context, filter invoice.RunFilter) ([]invoice.RunRecord, error) {
	if t == nil || t.DB == nil {
		return nil, invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}

	models := make([]runModel, 0)
	query := t.DB.NewSelect().Model(&models)
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at <= ?", filter.Until)
	}
	query = query.Order("created_at DESC")

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	records := make([]invoice.RunRecord, 0, len(models))
	for _, model := range models {
		record, err := model.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes a run from the history.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	if t == nil || t.DB == nil {
		return invoice.NewError(invoice.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return invoice.NewError(invoice.KindValidation, "run ID is required", nil)
	}

	res, err := t.DB.NewDelete().Model((*runModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return invoice.NewError(invoice.KindNotFound, fmt.Sprintf("run %q not found", id), nil)
	}
	return nil
}

func (t *Tracker) execOne(ctx context.Context, query *bun.UpdateQuery, id string) error {
	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return invoice.NewError(invoice.KindNotFound, fmt.Sprintf("run %q not found", id), nil)
	}
	return nil
}

type runModel struct {
	bun.BaseModel `bun:"table:invoice_runs,alias:invoice_runs"`

	ID              string    `bun:",pk"`
	Kind            string    `bun:",notnull"`
	Target          string    `bun:"target"`
	State           string    `bun:",notnull"`
	CountsProcessed int64     `bun:"counts_processed"`
	CountsTotal     int64     `bun:"counts_total"`
	CountsErrors    int64     `bun:"counts_errors"`
	ArtifactKey     string    `bun:"artifact_key"`
	ArtifactMeta    []byte    `bun:"artifact_meta"`
	Failure         string    `bun:"failure"`
	CreatedAt       time.Time `bun:"created_at"`
	StartedAt       time.Time `bun:"started_at,nullzero"`
	CompletedAt     time.Time `bun:"completed_at,nullzero"`
}

func modelFromRecord(record invoice.RunRecord) (runModel, error) {
	meta, err := json.Marshal(record.Artifact.Meta)
	if err != nil {
		return runModel{}, err
	}

	return runModel{
		ID:              record.ID,
		Kind:            string(record.Kind),
		Target:          record.Target,
		State:           string(record.State),
		CountsProcessed: record.Counts.Processed,
		CountsTotal:     record.Counts.Total,
		CountsErrors:    record.Counts.Errors,
		ArtifactKey:     record.Artifact.Key,
		ArtifactMeta:    meta,
		Failure:         record.Failure,
		CreatedAt:       record.CreatedAt,
		StartedAt:       record.StartedAt,
		CompletedAt:     record.CompletedAt,
	}, nil
}

func (m runModel) toRecord() (invoice.RunRecord, error) {
	record := invoice.RunRecord{
		ID:     m.ID,
		Kind:   invoice.RunKind(m.Kind),
		Target: m.Target,
		State:  invoice.RunState(m.State),
		Counts: invoice.RunCounts{
			Processed: m.CountsProcessed,
			Total:     m.CountsTotal,
			Errors:    m.CountsErrors,
		},
		Artifact: invoice.ArtifactRef{
			Key: m.ArtifactKey,
		},
		Failure:     m.Failure,
		CreatedAt:   m.CreatedAt,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}

	if len(m.ArtifactMeta) > 0 {
		if err := json.Unmarshal(m.ArtifactMeta, &record.Artifact.Meta); err != nil {
			return invoice.RunRecord{}, err
		}
	}

	return record, nil
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) nextID() string {
	if t.IDGenerator != nil {
		return t.IDGenerator()
	}
	return uuid.NewString()
}
