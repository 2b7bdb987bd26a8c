package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

var (
	// ErrNotConfigured is returned when no document store is available.
	ErrNotConfigured = errors.New("notes: document store not configured")
	// ErrCreateFailed wraps the error of the initial page creation.
	ErrCreateFailed = errors.New("notes: create page failed")
)

// DocumentStore is the destination for published pages. Both calls accept at
// most BatchSize blocks.
type DocumentStore interface {
	CreatePage(ctx context.Context, title string, children []Block) (string, error)
	AppendChildren(ctx context.Context, pageID string, children []Block) error
}

// State is the progress of one upload.
type State string

const (
	StatePending     State = "pending"
	StatePageCreated State = "page_created"
	StateAppending   State = "appending"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// BatchError records a failed append. Batch is 1-based over append requests.
type BatchError struct {
	Batch  int
	Blocks int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("append batch %d (%d blocks): %v", e.Batch, e.Blocks, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Result describes a finished upload.
type Result struct {
	PageID        string
	State         State
	Written       int // blocks in requests that succeeded
	Requests      int
	FailedBatches []*BatchError
	Report        BuildReport
}

// Uploader publishes documents to a DocumentStore.
type Uploader struct {
	store  DocumentStore
	logger *log.Logger
	opts   Options
}

// NewUploader returns an Uploader. A nil store is allowed; Publish and Upload
// then return ErrNotConfigured.
func NewUploader(store DocumentStore, logger *log.Logger, opts Options) *Uploader {
	if logger == nil {
		logger = log.Default()
	}
	return &Uploader{store: store, logger: logger, opts: opts.withDefaults()}
}

// Configured reports whether a store is attached.
func (u *Uploader) Configured() bool {
	return u != nil && u.store != nil
}

// Publish splits, chunks and uploads doc as a page titled title.
func (u *Uploader) Publish(ctx context.Context, title, doc string) (*Result, error) {
	if !u.Configured() {
		return nil, ErrNotConfigured
	}

	blocks, report := BuildBlocks(SplitParagraphs(doc), u.opts)
	if report.Oversize > 0 {
		u.logger.Warn("dropped oversize chunks", "count", report.Oversize, "limit", u.opts.MaxBlockLen)
	}
	if report.Truncated > 0 {
		u.logger.Warn("document truncated at block ceiling",
			"dropped", report.Truncated, "kept", len(blocks), "limit", u.opts.MaxBlocks)
	}

	res, err := u.Upload(ctx, title, blocks)
	if res != nil {
		res.Report = report
	}
	return res, err
}

// Upload creates the page with the first batch of blocks and appends the rest
// in order, one request per batch. Only a failed create is an error; failed
// appends are logged and recorded in the result.
func (u *Uploader) Upload(ctx context.Context, title string, blocks []Block) (*Result, error) {
	if !u.Configured() {
		return nil, ErrNotConfigured
	}

	res := &Result{State: StatePending}
	initial, rest := splitBatch(blocks, u.opts.BatchSize)

	res.Requests++
	pageID, err := u.store.CreatePage(ctx, truncateRunes(title, u.opts.MaxTitleLen), initial)
	if err != nil {
		res.State = StateFailed
		return res, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	res.PageID = pageID
	res.State = StatePageCreated
	res.Written = len(initial)
	u.logger.Info("page created", "page", pageID, "blocks", len(initial), "remaining", len(rest))

	for batch := 1; len(rest) > 0; batch++ {
		var group []Block
		group, rest = splitBatch(rest, u.opts.BatchSize)

		res.State = StateAppending
		res.Requests++
		if err := u.store.AppendChildren(ctx, pageID, group); err != nil {
			be := &BatchError{Batch: batch, Blocks: len(group), Err: err}
			res.FailedBatches = append(res.FailedBatches, be)
			u.logger.Warn("append batch failed", "page", pageID, "batch", batch, "blocks", len(group), "err", err)
			continue
		}
		res.Written += len(group)
	}

	res.State = StateDone
	return res, nil
}

func splitBatch(blocks []Block, size int) (head, tail []Block) {
	if len(blocks) <= size {
		return blocks, nil
	}
	return blocks[:size], blocks[size:]
}
