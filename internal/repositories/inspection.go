package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/flatten"
	"github.com/labqa/inspection/internal/models"
	"github.com/labqa/inspection/internal/sqlite"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
)

var ErrNotFound = errors.NewSentinel("not found")

// InspectionRepository stores submitted inspections and their evidence files.
type InspectionRepository struct {
	readWrite *sqlx.DB
	readOnly  *sqlx.DB
	logger    *slog.Logger
}

func NewInspectionRepository(dbs *sqlite.Database, logger *slog.Logger) *InspectionRepository {
	return &InspectionRepository{
		readWrite: sqlx.NewDb(dbs.ReadWrite, sqlite.DriverName),
		readOnly:  sqlx.NewDb(dbs.ReadOnly, sqlite.DriverName),
		logger:    logger.With("source", "InspectionRepository"),
	}
}

// AppendRecord persists a flattened inspection.
func (r *InspectionRepository) AppendRecord(ctx context.Context, row flatten.Row) error {
	rowJSON, err := json.Marshal(row)
	if err != nil {
		return errors.Wrap(err, "marshal row")
	}
	stmt := `INSERT INTO inspection_records (submitted_at, sector, process, row_json)
VALUES (:submitted_at, :sector, :process, :row_json)`
	record := models.InspectionRecord{
		SubmittedAt: row.Get(flatten.ColumnSubmittedAt),
		Sector:      row.Get(flatten.ColumnSector),
		Process:     row.Get(flatten.ColumnProcess),
		RowJSON:     string(rowJSON),
	}
	if _, err = r.readWrite.NamedExecContext(ctx, stmt, record); err != nil {
		return errors.Wrap(err, "insert inspection record", slog.String("process", record.Process))
	}
	return nil
}

// ReadAllRecords returns every persisted inspection in insertion order.
func (r *InspectionRepository) ReadAllRecords(ctx context.Context) ([]flatten.Row, error) {
	var records []models.InspectionRecord
	stmt := `SELECT id, submitted_at, sector, process, row_json, created FROM inspection_records ORDER BY id`
	if err := r.readOnly.SelectContext(ctx, &records, stmt); err != nil {
		return nil, errors.Wrap(err, "select inspection records")
	}
	rows := make([]flatten.Row, 0, len(records))
	for _, record := range records {
		var row flatten.Row
		if err := json.Unmarshal([]byte(record.RowJSON), &row); err != nil {
			return nil, errors.Wrap(err, "unmarshal row", slog.Int64("id", record.ID))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CountRecords returns the number of persisted inspections.
func (r *InspectionRepository) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := r.readOnly.GetContext(ctx, &count, `SELECT COUNT(*) FROM inspection_records`); err != nil {
		return 0, errors.Wrap(err, "count inspection records")
	}
	return count, nil
}

// UploadAttachment stores an evidence file and returns its storage ID. The content type is guessed from the file
// extension and falls back to sniffing the content.
func (r *InspectionRepository) UploadAttachment(ctx context.Context, content []byte, name string) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	attachment := models.Attachment{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     content,
	}
	stmt := `INSERT INTO attachments (id, name, content_type, size, content)
VALUES (:id, :name, :content_type, :size, :content)`
	if _, err := r.readWrite.NamedExecContext(ctx, stmt, attachment); err != nil {
		return "", errors.Wrap(err, "insert attachment", slog.String("name", name))
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "stored attachment",
		slog.String("id", attachment.ID), slog.Int64("size", attachment.Size))
	return attachment.ID, nil
}

// GetAttachment returns a stored evidence file or an error wrapping ErrNotFound.
func (r *InspectionRepository) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	var attachment models.Attachment
	stmt := `SELECT id, name, content_type, size, content, created FROM attachments WHERE id = ?`
	if err := r.readOnly.GetContext(ctx, &attachment, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "get attachment", slog.String("id", id))
		}
		return nil, errors.Wrap(err, "get attachment", slog.String("id", id))
	}
	return &attachment, nil
}
