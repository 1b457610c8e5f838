package downloader

import (
	"context"
	"errors"
	"fmt"

	"tgbulkdl/pkg/checkpoint"
	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/metadata"
	"tgbulkdl/pkg/models"
	"tgbulkdl/pkg/remote"
	"tgbulkdl/pkg/storage"
)

// DefaultPageSize is the number of messages requested per page
const DefaultPageSize = 100

var (
	// ErrNoClient is returned by Run when the engine has no remote client
	ErrNoClient = errors.New("remote client is not initialized")
	// ErrInterrupted is returned after a stop request has been honoured
	// and the checkpoint committed
	ErrInterrupted = errors.New("download interrupted")
	// ErrStalledPage is returned when a full page does not move the cursor
	// forward, which would otherwise request the same page forever
	ErrStalledPage = errors.New("search returned no message past the cursor")

	// errCancelled aborts an in-flight download from the progress callback
	errCancelled = errors.New("download cancelled")
)

// Interrupter is polled for stop requests while a download loop runs
type Interrupter interface {
	Requested() bool
	SetDownloading(active bool)
}

// Progress displays the transfer of a single file
type Progress interface {
	Start(name string, total int64)
	Update(downloaded, total int64)
	Finish(err error)
}

// Options configures an Engine
type Options struct {
	PageSize int
	Progress Progress
	Logger   logger.Logger
}

// Engine pages through one media type of a job, downloading every
// message and committing the cursor after each page
type Engine struct {
	client    remote.Client
	jobs      *checkpoint.Store
	interrupt Interrupter
	progress  Progress
	pageSize  int
	logger    logger.Logger
}

// NewEngine creates an engine. A nil client is accepted here and
// reported by Run.
func NewEngine(client remote.Client, jobs *checkpoint.Store, interrupt Interrupter, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	if interrupt == nil {
		interrupt = noInterrupt{}
	}
	return &Engine{
		client:    client,
		jobs:      jobs,
		interrupt: interrupt,
		progress:  progress,
		pageSize:  pageSize,
		logger:    log.WithField("component", "engine"),
	}
}

// PageSize returns the configured page size
func (e *Engine) PageSize() int {
	return e.pageSize
}

// run carries the per-invocation state of Run
type run struct {
	jobID     string
	job       *checkpoint.Job
	mediaType media.Type
	filter    media.Filter
	files     *storage.Manager
	meta      *metadata.Log
	log       logger.Logger
}

// Run downloads every remaining message of mediaType for jobID. It
// returns nil once the media type is exhausted and its cursor removed,
// and ErrInterrupted when a stop request ended the loop early.
func (e *Engine) Run(ctx context.Context, jobID string, mediaType media.Type) error {
	if e.client == nil {
		return ErrNoClient
	}

	job, err := e.jobs.Get(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", checkpoint.ErrJobNotFound, jobID)
	}
	if _, ok := job.Cursor(mediaType); !ok {
		return fmt.Errorf("job %s: %w: %s", jobID, checkpoint.ErrCursorNotFound, mediaType)
	}

	filter, err := media.FilterFor(mediaType)
	if err != nil {
		return err
	}

	r := &run{
		jobID:     jobID,
		job:       job,
		mediaType: mediaType,
		filter:    filter,
		files:     storage.NewManager(job.OutputDir),
		log: e.logger.WithFields(map[string]interface{}{
			"job_id":     jobID,
			"media_type": string(mediaType),
		}),
	}
	if job.Metadata {
		r.meta = metadata.NewLog(job.OutputDir)
	}

	e.interrupt.SetDownloading(true)
	defer e.interrupt.SetDownloading(false)

	r.log.Info("Downloading media type")
	for {
		if e.interrupt.Requested() {
			return e.stop(ctx, r)
		}

		cursor, _ := job.Cursor(mediaType)
		msgs, err := e.client.Search(ctx, remote.SearchRequest{
			Peer:     job.Entity,
			Filter:   filter,
			OffsetID: cursor.Offset,
			Limit:    e.pageSize,
			TopicID:  job.ThreadID,
		})
		if err != nil {
			if ctx.Err() != nil {
				return e.stop(ctx, r)
			}
			return fmt.Errorf("search %s after %d: %w", mediaType, cursor.Offset, err)
		}

		if len(msgs) == 0 {
			return e.exhaust(ctx, r)
		}

		if end := msgs[len(msgs)-1].ID; len(msgs) >= e.pageSize && end <= cursor.Offset {
			return fmt.Errorf("%w: %s page ends at %d, cursor at %d", ErrStalledPage, mediaType, end, cursor.Offset)
		}

		last, interrupted := e.processPage(ctx, r, msgs)

		next := msgs[len(msgs)-1].ID
		if interrupted {
			next = last
		}
		if next > cursor.Offset {
			if err := job.AdvanceCursor(mediaType, next); err != nil {
				return err
			}
		}
		if err := e.commit(ctx, r); err != nil {
			return err
		}
		current, _ := job.Cursor(mediaType)
		logger.LogPageProgress(r.log, jobID, string(mediaType), len(msgs), current.Offset)

		if interrupted {
			return e.stop(ctx, r)
		}
		if len(msgs) < e.pageSize {
			return e.exhaust(ctx, r)
		}
	}
}

// processPage downloads msgs in order. It returns the id of the last
// message fully processed and whether a stop request cut the page short.
// A file whose download was aborted by the stop request does not count.
func (e *Engine) processPage(ctx context.Context, r *run, msgs []models.Message) (int, bool) {
	last := 0
	for _, msg := range msgs {
		if e.interrupt.Requested() || ctx.Err() != nil {
			return last, true
		}

		if !e.processMessage(ctx, r, msg) {
			return last, true
		}
		last = msg.ID

		if e.interrupt.Requested() {
			return last, true
		}
	}
	return last, false
}

// processMessage downloads and stores one message. Download, write and
// metadata failures are logged and skipped. It returns false only when
// the download was cancelled. When metadata is recorded the message is
// appended whatever the outcome of the download.
func (e *Engine) processMessage(ctx context.Context, r *run, msg models.Message) bool {
	ext := media.Extension(msg.Attachment)
	name := storage.FileName(msg.ID, ext)
	if r.meta != nil {
		defer e.appendMetadata(r, msg, name)
	}

	e.progress.Start(name, attachmentSize(msg))
	data, err := e.client.DownloadMedia(ctx, r.job.Entity, msg, func(downloaded, total int64) error {
		e.progress.Update(downloaded, total)
		if e.interrupt.Requested() {
			return errCancelled
		}
		return nil
	})
	e.progress.Finish(err)

	if errors.Is(err, errCancelled) || (err != nil && ctx.Err() != nil) {
		r.log.WithField("message_id", msg.ID).Info("Download aborted by stop request")
		return false
	}
	if err != nil {
		logger.LogDownload(r.log, r.jobID, string(r.mediaType), msg.ID, err)
		return true
	}

	if _, err := r.files.Save(name, data); err != nil {
		r.log.WithError(err).WithField("message_id", msg.ID).Warn("Failed to write file, skipping")
		return true
	}
	logger.LogDownload(r.log, r.jobID, string(r.mediaType), msg.ID, nil)
	return true
}

func (e *Engine) appendMetadata(r *run, msg models.Message, name string) {
	if err := r.meta.Append(metadata.FromMessage(msg, r.mediaType, name)); err != nil {
		r.log.WithError(err).WithField("message_id", msg.ID).Warn("Failed to append metadata")
	}
}

// exhaust removes the cursor of a finished media type and commits
func (e *Engine) exhaust(ctx context.Context, r *run) error {
	r.job.RemoveCursor(r.mediaType)
	if err := e.commit(ctx, r); err != nil {
		return err
	}
	r.log.WithField("files", r.files.WrittenCount()).Info("Media type exhausted")
	return nil
}

// stop commits the current state, closes the client and reports the interruption
func (e *Engine) stop(ctx context.Context, r *run) error {
	if err := e.commit(ctx, r); err != nil {
		return err
	}
	if err := e.client.Close(context.WithoutCancel(ctx)); err != nil {
		r.log.WithError(err).Warn("Failed to close remote client")
	}
	r.log.Info("Checkpoint saved, stopping")
	return ErrInterrupted
}

// commit stages the job and makes it durable. It survives a cancelled
// ctx so a stop request never loses the checkpoint.
func (e *Engine) commit(ctx context.Context, r *run) error {
	if err := e.jobs.Set(r.jobID, r.job); err != nil {
		return err
	}
	return e.jobs.Commit(context.WithoutCancel(ctx))
}

func attachmentSize(msg models.Message) int64 {
	if msg.Attachment == nil {
		return 0
	}
	return msg.Attachment.Size
}

type nopProgress struct{}

func (nopProgress) Start(string, int64) {}
func (nopProgress) Update(int64, int64) {}
func (nopProgress) Finish(error)        {}

type noInterrupt struct{}

func (noInterrupt) Requested() bool     { return false }
func (noInterrupt) SetDownloading(bool) {}
