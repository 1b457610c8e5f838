package jobs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"tgbulkdl/pkg/checkpoint"
	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/models"
	"tgbulkdl/pkg/remote"
	"tgbulkdl/pkg/ui"
)

// Menu entries, in display order
const (
	MenuStart  = "Start new download"
	MenuResume = "Resume active download"
	MenuExit   = "Exit"
	MenuBack   = "Back"
)

// Runner downloads one media type of a job until it is exhausted
type Runner interface {
	Run(ctx context.Context, jobID string, mediaType media.Type) error
}

// Notifier announces finished jobs
type Notifier interface {
	SendSuccess(title, message string)
}

// Options configures an Orchestrator
type Options struct {
	Notifier Notifier
	Logger   logger.Logger
}

// Orchestrator runs the interactive workflow on top of the engine
type Orchestrator struct {
	client   remote.Client
	jobs     *checkpoint.Store
	runner   Runner
	prompter ui.Prompter
	notifier Notifier
	logger   logger.Logger
}

// ActiveJob is a stored job and its id
type ActiveJob struct {
	ID  string
	Job *checkpoint.Job
}

// New creates an orchestrator
func New(client remote.Client, jobs *checkpoint.Store, runner Runner, prompter ui.Prompter, opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = ui.NewNotifier(false)
	}
	return &Orchestrator{
		client:   client,
		jobs:     jobs,
		runner:   runner,
		prompter: prompter,
		notifier: notifier,
		logger:   log.WithField("component", "jobs"),
	}
}

// Run shows the top-level menu until a job completes or the user exits
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		choice, err := o.prompter.Select(ctx, "Choose an option", []string{MenuStart, MenuResume, MenuExit})
		if errors.Is(err, ui.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case 0:
			err = o.startFromMenu(ctx)
		case 1:
			err = o.resumeFromMenu(ctx)
		default:
			return nil
		}

		switch {
		case err == nil:
			return nil
		case errors.Is(err, errBack), errors.Is(err, ui.ErrAborted), errors.Is(err, ErrReplaceDeclined):
			continue
		}

		var resolveErr *ResolveError
		if errors.As(err, &resolveErr) {
			o.logger.WithError(resolveErr.Err).WithField("identifier", resolveErr.Identifier).Warn("Failed to retrieve chat")
			ui.PrintError("Failed to retrieve chat", resolveErr.Err)
			continue
		}
		return err
	}
}

// errBack returns to the menu without doing anything
var errBack = errors.New("back to menu")

func (o *Orchestrator) startFromMenu(ctx context.Context) error {
	identifier, err := o.prompter.Input(ctx, "Please enter username or chat id of target", "", nonEmpty("A username or chat id is required"))
	if err != nil {
		return err
	}
	return o.StartNewJob(ctx, identifier)
}

func (o *Orchestrator) resumeFromMenu(ctx context.Context) error {
	active, err := o.ActiveJobs()
	if err != nil {
		return err
	}
	if len(active) == 0 {
		ui.PrintWarning("No active downloads")
		return errBack
	}

	choices := make([]string, 0, len(active)+1)
	for _, a := range active {
		choices = append(choices, a.Job.Label(a.ID))
	}
	choices = append(choices, MenuBack)

	choice, err := o.prompter.Select(ctx, "Choose a chat", choices)
	if err != nil {
		return err
	}
	if choice >= len(active) {
		return errBack
	}
	return o.ResumeJob(ctx, active[choice].ID)
}

// ActiveJobs lists readable stored jobs ordered by id. Records that
// cannot be decoded are logged and left out.
func (o *Orchestrator) ActiveJobs() ([]ActiveJob, error) {
	var out []ActiveJob
	for _, id := range o.jobs.List() {
		job, err := o.jobs.Get(id)
		if err != nil {
			o.logger.WithError(err).WithField("job_id", id).Warn("Skipping unreadable job")
			continue
		}
		if job == nil {
			continue
		}
		out = append(out, ActiveJob{ID: id, Job: job})
	}
	return out, nil
}

// StartNewJob resolves identifier, collects the job settings and runs
// every selected media type to completion
func (o *Orchestrator) StartNewJob(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)

	entity, err := o.client.ResolveEntity(ctx, identifier)
	if err != nil {
		return &ResolveError{Identifier: identifier, Err: err}
	}
	jobID := entity.Key()

	threadID, err := o.askTopic(ctx, *entity)
	if err != nil {
		return err
	}

	withMetadata, err := o.prompter.Confirm(ctx, "Do you want to include metadata.json? (Recommended: no)", false)
	if err != nil {
		return err
	}

	types, err := SelectMediaTypes(ctx, o.prompter)
	if err != nil {
		return err
	}

	outputDir, err := o.askOutputDir(ctx)
	if err != nil {
		return err
	}

	existing, err := o.jobs.Get(jobID)
	if err != nil {
		o.logger.WithError(err).WithField("job_id", jobID).Warn("Existing job is unreadable")
	}
	if existing != nil || err != nil {
		replace, err := o.prompter.Confirm(ctx, fmt.Sprintf("An active download exists for %s. Replace it?", entity.DisplayName()), false)
		if err != nil {
			return err
		}
		if !replace {
			return ErrReplaceDeclined
		}
	}

	job := checkpoint.NewJob(*entity, identifier, outputDir, withMetadata, threadID, types)
	if err := o.jobs.Set(jobID, job); err != nil {
		return err
	}
	if err := o.jobs.Commit(ctx); err != nil {
		return err
	}

	o.logger.InfoWithFields("Job created", map[string]interface{}{
		"job_id":      jobID,
		"entity":      job.DisplayName,
		"output_dir":  outputDir,
		"media_types": types,
		"metadata":    withMetadata,
	})
	ui.PrintInfo("Output", outputDir)

	return o.drive(ctx, jobID)
}

// ResumeJob continues a stored job from its cursors
func (o *Orchestrator) ResumeJob(ctx context.Context, jobID string) error {
	job, err := o.jobs.Get(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if len(job.Pending()) == 0 {
		return o.CompleteJob(ctx, jobID)
	}

	entity, err := o.resolveJobEntity(ctx, jobID, job)
	if err != nil {
		return err
	}

	job.Entity = *entity
	job.DisplayName = entity.DisplayName()
	if err := o.jobs.Set(jobID, job); err != nil {
		return err
	}
	if err := o.jobs.Commit(ctx); err != nil {
		return err
	}

	o.logger.InfoWithFields("Resuming job", map[string]interface{}{
		"job_id":  jobID,
		"entity":  job.DisplayName,
		"pending": job.Pending(),
	})
	return o.drive(ctx, jobID)
}

// resolveJobEntity re-resolves the chat of a stored job. The handle is
// tried first, then the identifier the job was created with. Cursor
// offsets only mean something in the job's own chat, so a chat with
// another id is refused.
func (o *Orchestrator) resolveJobEntity(ctx context.Context, jobID string, job *checkpoint.Job) (*models.Entity, error) {
	handle := job.Handle()
	entity, err := o.client.ResolveEntity(ctx, handle)
	if err != nil {
		return nil, &ResolveError{Identifier: handle, Err: err}
	}
	if entity.Key() == jobID {
		return entity, nil
	}

	log := o.logger.WithFields(map[string]interface{}{
		"job_id":    jobID,
		"handle":    handle,
		"entity_id": entity.ID,
	})
	log.Warn("Handle now resolves to a different chat")

	if job.OriginalID != "" && job.OriginalID != handle {
		byID, err := o.client.ResolveEntity(ctx, job.OriginalID)
		if err == nil && byID.Key() == jobID {
			log.WithField("original_id", job.OriginalID).Info("Resolved job by original identifier")
			return byID, nil
		}
		if err != nil {
			log.WithError(err).Debug("Original identifier did not resolve")
		}
	}
	return nil, &ResolveError{
		Identifier: handle,
		Err:        fmt.Errorf("%w: job %s, chat %s", ErrChatChanged, jobID, entity.Key()),
	}
}

// CompleteJob removes a finished job and announces it
func (o *Orchestrator) CompleteJob(ctx context.Context, jobID string) error {
	label := jobID
	if job, err := o.jobs.Get(jobID); err == nil && job != nil {
		label = job.Label(jobID)
	}

	o.jobs.Remove(jobID)
	if err := o.jobs.Commit(ctx); err != nil {
		return err
	}

	o.logger.WithField("job_id", jobID).Info("Job completed")
	o.notifier.SendSuccess("Download complete", label)
	return nil
}

// Discard removes a job without running it
func (o *Orchestrator) Discard(ctx context.Context, jobID string) error {
	job, err := o.jobs.Get(jobID)
	if err == nil && job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	o.jobs.Remove(jobID)
	if err := o.jobs.Commit(ctx); err != nil {
		return err
	}
	o.logger.WithField("job_id", jobID).Info("Job discarded")
	return nil
}

// drive runs every pending cursor of a job in order, then completes it
func (o *Orchestrator) drive(ctx context.Context, jobID string) error {
	job, err := o.jobs.Get(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	for _, t := range job.Pending() {
		ui.PrintHighlight(fmt.Sprintf("Downloading %s", t.Label()))
		if err := o.runner.Run(ctx, jobID, t); err != nil {
			return err
		}
	}
	return o.CompleteJob(ctx, jobID)
}

func (o *Orchestrator) askTopic(ctx context.Context, entity models.Entity) (*int, error) {
	support, err := o.client.TopicSupport(ctx, entity)

	title := "This is a forum. Do you want to download from a specific topic?"
	switch support {
	case remote.NoTopics:
		return nil, nil
	case remote.TopicSupportUnknown:
		o.logger.WithError(err).WithField("entity_id", entity.ID).Warn("Could not determine topic support")
		title = "Could not tell whether this chat is a forum. Do you want to download from a specific topic?"
	}

	useTopic, err := o.prompter.Confirm(ctx, title, false)
	if err != nil || !useTopic {
		return nil, err
	}

	raw, err := o.prompter.Input(ctx, "Enter the topic ID", "", o.topicValidator(ctx, entity))
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid topic id %q: %w", raw, err)
	}
	return &id, nil
}

// topicValidator accepts positive ids of topics that exist in entity
func (o *Orchestrator) topicValidator(ctx context.Context, entity models.Entity) func(string) error {
	return func(input string) error {
		id, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || id <= 0 {
			return errors.New("Topic ID must be a positive number")
		}
		exists, err := o.client.TopicExists(ctx, entity, id)
		if err != nil {
			o.logger.WithError(err).WithField("topic_id", id).Debug("Topic lookup failed")
			return errors.New("Invalid topic ID")
		}
		if !exists {
			return errors.New("Topic ID not found")
		}
		return nil
	}
}

func (o *Orchestrator) askOutputDir(ctx context.Context) (string, error) {
	dir, err := o.prompter.Input(ctx, "Enter the folder path for file storage", ".", nil)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(strings.TrimSpace(dir))
	if err != nil {
		return "", fmt.Errorf("invalid output directory %q: %w", dir, err)
	}
	return abs, nil
}

// SelectMediaTypes asks until at least one media type is chosen
func SelectMediaTypes(ctx context.Context, prompter ui.Prompter) ([]media.Type, error) {
	all := media.All()
	labels := make([]string, len(all))
	for i, t := range all {
		labels[i] = t.Label()
	}

	for {
		picked, err := prompter.Checkbox(ctx, "Select media types to download", labels)
		if err != nil {
			return nil, err
		}
		if len(picked) == 0 {
			continue
		}

		types := make([]media.Type, 0, len(picked))
		for _, i := range picked {
			if i < 0 || i >= len(all) {
				return nil, fmt.Errorf("%w: choice %d", media.ErrUnsupportedMediaType, i)
			}
			types = append(types, all[i])
		}
		return types, nil
	}
}

func nonEmpty(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}
