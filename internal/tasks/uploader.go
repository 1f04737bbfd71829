package tasks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/gabriel-vasile/mimetype"
)

const csvMIME = "text/csv"

// UploadClient posts a CSV payload. Implemented by services.Client.
type UploadClient interface {
	BulkUpload(ctx context.Context, fileName string, r io.Reader) (*models.BulkUploadResult, error)
}

// Reloader refreshes the link collection. Implemented by store.LinkStore.
type Reloader interface {
	Load(ctx context.Context) error
}

// HistoryRecorder persists upload summaries. Implemented by repositories.UploadHistoryRepository.
type HistoryRecorder interface {
	Record(ctx context.Context, fileName string, res models.BulkUploadResult) error
}

type UploaderOpts struct {
	History HistoryRecorder // optional
	Logger  *log.Logger
}

// Uploader coordinates CSV bulk ingestion.
type Uploader struct {
	client  UploadClient
	links   Reloader
	history HistoryRecorder
	logger  *log.Logger

	mu   sync.Mutex
	last *models.BulkUploadResult
}

func NewUploader(client UploadClient, links Reloader, opts UploaderOpts) *Uploader {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Uploader{
		client:  client,
		links:   links,
		history: opts.History,
		logger:  shared.WithLogger(opts.Logger, "component", "uploader"),
	}
}

// Last returns the most recent upload result, or nil when no upload call has succeeded.
func (u *Uploader) Last() *models.BulkUploadResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.last == nil {
		return nil
	}
	res := *u.last
	return &res
}

// Upload submits r as one CSV upload.
//
// A payload that is not CSV is rejected with [shared.ErrValidation] before any request. When the call itself
// fails, the result is nil and [Uploader.Last] is unchanged. When the call succeeds but the link reload fails,
// the result is returned together with an error wrapping [shared.ErrReconcile].
func (u *Uploader) Upload(ctx context.Context, fileName string, r io.Reader, progress chan<- ProgressUpdate) (*models.BulkUploadResult, error) {
	sendProgress(progress, validateUpdate(fileName))

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if err := ValidateCSV(fileName, data); err != nil {
		return nil, err
	}

	sendProgress(progress, uploadUpdate(fileName, len(data)))

	res, err := u.client.BulkUpload(ctx, filepath.Base(fileName), bytes.NewReader(data))
	if err != nil {
		u.logger.Warn("upload failed", "file", fileName, "err", err)
		return nil, err
	}

	u.mu.Lock()
	last := *res
	u.last = &last
	u.mu.Unlock()

	u.logger.Info("upload finished", "file", fileName, "success", res.Success, "failed", res.Failed)

	if u.history != nil {
		if err := u.history.Record(ctx, filepath.Base(fileName), *res); err != nil {
			u.logger.Warn("failed to record upload history", "err", err)
		}
	}

	sendProgress(progress, reconcileUpdate(res))

	if err := u.links.Load(ctx); err != nil {
		return res, fmt.Errorf("%w: %w", shared.ErrReconcile, err)
	}
	return res, nil
}

// ValidateCSV accepts a payload named *.csv or whose content is detected as CSV. Rows are not counted or parsed.
func ValidateCSV(fileName string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s is empty", shared.ErrValidation, fileName)
	}
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return nil
	}

	mtype := mimetype.Detect(data)
	if mtype.Is(csvMIME) {
		return nil
	}
	return fmt.Errorf("%w: %s is not a CSV file (detected %s)", shared.ErrValidation, fileName, mtype.String())
}
