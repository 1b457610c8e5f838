package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgbulkdl/internal/downloader"
	"tgbulkdl/pkg/checkpoint"
	"tgbulkdl/pkg/interrupt"
	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/models"
	"tgbulkdl/pkg/remote"
	"tgbulkdl/pkg/remote/remotetest"
	"tgbulkdl/pkg/storage"
	"tgbulkdl/pkg/store"
	"tgbulkdl/pkg/ui"
	"tgbulkdl/pkg/ui/uitest"
)

func TestMain(m *testing.M) {
	ui.Output = io.Discard
	os.Exit(m.Run())
}

var archive = models.Entity{ID: 123, Kind: models.KindChannel, Title: "Archive", Username: "archive"}

type recordingNotifier struct {
	titles   []string
	messages []string
}

func (n *recordingNotifier) SendSuccess(title, message string) {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
}

type fixture struct {
	container *store.Memory
	jobs      *checkpoint.Store
	client    *remotetest.Client
	intr      *interrupt.Controller
	prompter  *uitest.Prompter
	notifier  *recordingNotifier
	log       *logger.TestLogger
	outputDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	container := store.NewMemory(checkpoint.ContainerName)
	client := remotetest.New()
	entity := archive
	client.Entities["archive"] = &entity

	return &fixture{
		container: container,
		jobs:      checkpoint.NewStore(container, nil),
		client:    client,
		intr:      interrupt.NewController(nil),
		prompter:  &uitest.Prompter{},
		notifier:  &recordingNotifier{},
		log:       logger.NewTestLogger(),
		outputDir: filepath.Join(t.TempDir(), "out"),
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	engine := downloader.NewEngine(f.client, f.jobs, f.intr, downloader.Options{Logger: f.log})
	return New(f.client, f.jobs, engine, f.prompter, Options{Notifier: f.notifier, Logger: f.log})
}

func (f *fixture) seed(t *testing.T, types ...media.Type) {
	t.Helper()
	job := checkpoint.NewJob(archive, "@archive", f.outputDir, false, nil, types)
	require.NoError(t, f.jobs.Set(archive.Key(), job))
	require.NoError(t, f.jobs.Commit(context.Background()))
}

func (f *fixture) stored(t *testing.T) *checkpoint.Job {
	t.Helper()
	job, err := f.jobs.Get(archive.Key())
	require.NoError(t, err)
	return job
}

func (f *fixture) exists(id int, ext string) bool {
	_, err := os.Stat(filepath.Join(f.outputDir, storage.FileName(id, ext)))
	return err == nil
}

func countOf(ids []int, id int) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

func TestStartNewJobRunsSelectionInOrder(t *testing.T) {
	f := newFixture(t)
	f.client.AddMessages(media.Pictures, 1, 2, 3)
	f.client.AddMessages(media.Videos, 10, 11)
	f.prompter.Confirms = []bool{false}
	f.prompter.Checkboxes = [][]int{{1, 0}}
	f.prompter.Inputs = []string{f.outputDir}

	err := f.orchestrator().StartNewJob(context.Background(), " @archive ")
	require.NoError(t, err)

	assert.Equal(t, []string{"@archive"}, f.client.Resolved)
	require.Len(t, f.client.Searches, 2)
	assert.Equal(t, media.FilterVideo, f.client.Searches[0].Filter)
	assert.Equal(t, media.FilterPhotos, f.client.Searches[1].Filter)
	assert.Nil(t, f.client.Searches[0].TopicID)

	for _, id := range []int{1, 2, 3} {
		assert.True(t, f.exists(id, "jpg"), "picture %d", id)
	}
	assert.True(t, f.exists(10, "bin"))
	assert.True(t, f.exists(11, "bin"))

	assert.Nil(t, f.stored(t))
	assert.NotContains(t, f.container.Committed(), archive.Key())
	assert.Equal(t, []string{"Archive"}, f.notifier.messages)
	assert.True(t, f.log.HasMessage("Job completed"))
	assert.NotContains(t, f.prompter.Asked, "This is a forum. Do you want to download from a specific topic?")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestStartNewJobOutputDirIsAbsolute(t *testing.T) {
	f := newFixture(t)
	chdir(t, t.TempDir())
	f.client.AddMessages(media.Pictures, 1)

	var created *checkpoint.Job
	f.client.OnSearch = func(req remote.SearchRequest) {
		if created == nil {
			created, _ = f.jobs.Get(archive.Key())
		}
	}
	f.prompter.Confirms = []bool{true}
	f.prompter.Checkboxes = [][]int{{0}}
	f.prompter.Inputs = []string{"downloads"}

	require.NoError(t, f.orchestrator().StartNewJob(context.Background(), "archive"))

	require.NotNil(t, created)
	assert.True(t, filepath.IsAbs(created.OutputDir))
	assert.Equal(t, "downloads", filepath.Base(created.OutputDir))
	assert.True(t, created.Metadata)
	assert.Equal(t, "archive", created.OriginalID)
	assert.Equal(t, []checkpoint.Cursor{{Type: media.Pictures}}, created.MediaTypes)
}

func TestStartNewJobRepromptsEmptySelection(t *testing.T) {
	f := newFixture(t)
	f.prompter.Confirms = []bool{false}
	f.prompter.Checkboxes = [][]int{{}, nil, {2}}
	f.prompter.Inputs = []string{f.outputDir}

	require.NoError(t, f.orchestrator().StartNewJob(context.Background(), "archive"))

	asked := 0
	for _, title := range f.prompter.Asked {
		if title == "Select media types to download" {
			asked++
		}
	}
	assert.Equal(t, 3, asked)
	require.Len(t, f.client.Searches, 1)
	assert.Equal(t, media.FilterDocument, f.client.Searches[0].Filter)
}

func TestStartNewJobResolveFailure(t *testing.T) {
	f := newFixture(t)

	err := f.orchestrator().StartNewJob(context.Background(), "ghost")

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "ghost", resolveErr.Identifier)
	assert.Empty(t, f.jobs.List())
	assert.Empty(t, f.prompter.Asked)
}

func TestStartNewJobTopicValidation(t *testing.T) {
	f := newFixture(t)
	f.client.Topics[archive.ID] = remote.SupportsTopics
	f.client.ExistingTopics[archive.ID] = []int{7}
	f.client.AddMessages(media.Pictures, 1)

	f.prompter.Confirms = []bool{true, false}
	f.prompter.Inputs = []string{"0", "abc", "5", "7", f.outputDir}
	f.prompter.Checkboxes = [][]int{{0}}

	require.NoError(t, f.orchestrator().StartNewJob(context.Background(), "archive"))

	assert.Equal(t, []string{
		"Topic ID must be a positive number",
		"Topic ID must be a positive number",
		"Topic ID not found",
	}, f.prompter.Rejected)
	require.Len(t, f.client.Searches, 1)
	require.NotNil(t, f.client.Searches[0].TopicID)
	assert.Equal(t, 7, *f.client.Searches[0].TopicID)
	assert.Equal(t, []string{"Archive (Topic ID: 7)"}, f.notifier.messages)
}

func TestStartNewJobUnknownTopicSupport(t *testing.T) {
	f := newFixture(t)
	f.client.TopicErr[archive.ID] = errors.New("gateway timeout")
	f.prompter.Confirms = []bool{false, false}
	f.prompter.Checkboxes = [][]int{{0}}
	f.prompter.Inputs = []string{f.outputDir}

	require.NoError(t, f.orchestrator().StartNewJob(context.Background(), "archive"))

	assert.Contains(t, f.prompter.Asked, "Could not tell whether this chat is a forum. Do you want to download from a specific topic?")
	assert.True(t, f.log.HasMessage("Could not determine topic support"))
	assert.Nil(t, f.client.Searches[0].TopicID)
}

func TestStartNewJobReplaceDeclined(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Videos)
	f.prompter.Confirms = []bool{false, false}
	f.prompter.Checkboxes = [][]int{{0}}
	f.prompter.Inputs = []string{f.outputDir}

	err := f.orchestrator().StartNewJob(context.Background(), "archive")
	require.ErrorIs(t, err, ErrReplaceDeclined)

	job := f.stored(t)
	require.NotNil(t, job)
	assert.Equal(t, []media.Type{media.Videos}, job.Pending())
	assert.Empty(t, f.client.Searches)
}

func TestStartNewJobReplaceAccepted(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Videos)
	f.client.AddMessages(media.Pictures, 1)
	f.prompter.Confirms = []bool{false, true}
	f.prompter.Checkboxes = [][]int{{0}}
	f.prompter.Inputs = []string{f.outputDir}

	require.NoError(t, f.orchestrator().StartNewJob(context.Background(), "archive"))

	require.Len(t, f.client.Searches, 1)
	assert.Equal(t, media.FilterPhotos, f.client.Searches[0].Filter)
	assert.Nil(t, f.stored(t))
}

func TestResumeAfterFirstTypeExhausted(t *testing.T) {
	f := newFixture(t)
	f.client.AddMessages(media.Pictures, 1, 2, 3)
	f.client.AddMessages(media.Videos, 10, 11, 12)
	f.client.OnDownload = func(msg models.Message, progress remote.ProgressFunc) error {
		if msg.ID == 11 {
			f.intr.Request()
		}
		return nil
	}
	f.prompter.Confirms = []bool{false}
	f.prompter.Checkboxes = [][]int{{0, 1}}
	f.prompter.Inputs = []string{f.outputDir}

	err := f.orchestrator().StartNewJob(context.Background(), "archive")
	require.ErrorIs(t, err, downloader.ErrInterrupted)

	job := f.stored(t)
	require.NotNil(t, job)
	assert.Equal(t, []media.Type{media.Videos}, job.Pending())
	assert.Empty(t, f.notifier.messages)

	// Fresh process: new controller, no stop requested
	f.intr = interrupt.NewController(nil)
	f.client.OnDownload = nil
	searchesBefore := len(f.client.Searches)

	require.NoError(t, f.orchestrator().ResumeJob(context.Background(), archive.Key()))

	for _, req := range f.client.Searches[searchesBefore:] {
		assert.Equal(t, media.FilterVideo, req.Filter)
	}
	for _, id := range []int{1, 2, 3} {
		assert.Equal(t, 1, countOf(f.client.Downloads, id), "picture %d", id)
	}
	for _, id := range []int{10, 11, 12} {
		assert.True(t, f.exists(id, "bin"), "video %d", id)
	}
	assert.Equal(t, "archive", f.client.Resolved[len(f.client.Resolved)-1])
	assert.Nil(t, f.stored(t))
	assert.Len(t, f.notifier.messages, 1)
}

func TestResumeJobRefreshesEntity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)
	renamed := archive
	renamed.Title = "Archive 2024"
	f.client.Entities["archive"] = &renamed

	var during *checkpoint.Job
	f.client.OnSearch = func(req remote.SearchRequest) {
		during, _ = f.jobs.Get(archive.Key())
	}

	require.NoError(t, f.orchestrator().ResumeJob(context.Background(), archive.Key()))

	require.NotNil(t, during)
	assert.Equal(t, "Archive 2024", during.DisplayName)
	assert.Equal(t, "Archive 2024", during.Entity.Title)
	assert.Equal(t, []string{"Archive 2024"}, f.notifier.messages)
}

func TestResumeJobFallsBackToOriginalID(t *testing.T) {
	f := newFixture(t)
	noHandle := archive
	noHandle.Username = ""
	job := checkpoint.NewJob(noHandle, "-100123", f.outputDir, false, nil, []media.Type{media.Pictures})
	require.NoError(t, f.jobs.Set(archive.Key(), job))
	f.client.Entities["-100123"] = &noHandle

	require.NoError(t, f.orchestrator().ResumeJob(context.Background(), archive.Key()))
	assert.Equal(t, []string{"-100123"}, f.client.Resolved)
}

func TestResumeJobUsesOriginalIDWhenHandleMoved(t *testing.T) {
	f := newFixture(t)
	job := checkpoint.NewJob(archive, "-100123", f.outputDir, false, nil, []media.Type{media.Pictures})
	require.NoError(t, f.jobs.Set(archive.Key(), job))
	f.client.Entities["archive"] = &models.Entity{ID: 456, Kind: models.KindChannel, Title: "Squatter", Username: "archive"}
	f.client.Entities["-100123"] = &archive

	require.NoError(t, f.orchestrator().ResumeJob(context.Background(), archive.Key()))

	assert.Equal(t, []string{"archive", "-100123"}, f.client.Resolved)
	require.NotEmpty(t, f.client.Searches)
	assert.Equal(t, archive.ID, f.client.Searches[0].Peer.ID)
	assert.True(t, f.log.HasMessage("Handle now resolves to a different chat"))
}

func TestResumeJobRefusesDifferentChat(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)
	f.client.Entities["archive"] = &models.Entity{ID: 456, Kind: models.KindChannel, Title: "Squatter", Username: "archive"}

	err := f.orchestrator().ResumeJob(context.Background(), archive.Key())

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.ErrorIs(t, err, ErrChatChanged)
	assert.Empty(t, f.client.Searches)

	job := f.stored(t)
	require.NotNil(t, job)
	assert.Equal(t, archive.ID, job.Entity.ID)
	assert.Equal(t, "Archive", job.DisplayName)
}

func TestResumeJobMissing(t *testing.T) {
	f := newFixture(t)

	err := f.orchestrator().ResumeJob(context.Background(), "999")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestResumeJobWithoutPendingCursors(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.NoError(t, f.orchestrator().ResumeJob(context.Background(), archive.Key()))

	assert.Empty(t, f.client.Resolved)
	assert.Empty(t, f.client.Searches)
	assert.Nil(t, f.stored(t))
}

func TestResumeJobResolveFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)
	delete(f.client.Entities, "archive")

	err := f.orchestrator().ResumeJob(context.Background(), archive.Key())

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "archive", resolveErr.Identifier)
	assert.NotNil(t, f.stored(t))
}

func TestCompleteJobCommitsRemoval(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)

	require.NoError(t, f.orchestrator().CompleteJob(context.Background(), archive.Key()))

	assert.NotContains(t, f.container.Committed(), archive.Key())
	assert.Equal(t, []string{"Download complete"}, f.notifier.titles)
	assert.Equal(t, []string{"Archive"}, f.notifier.messages)
}

func TestCompleteJobCommitFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)
	f.container.FailCommit = errors.New("disk full")

	err := f.orchestrator().CompleteJob(context.Background(), archive.Key())
	require.Error(t, err)
	assert.Empty(t, f.notifier.messages)
	assert.Contains(t, f.container.Committed(), archive.Key())
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)
	o := f.orchestrator()

	require.NoError(t, o.Discard(context.Background(), archive.Key()))
	assert.Empty(t, f.jobs.List())
	assert.Empty(t, f.notifier.messages)

	assert.ErrorIs(t, o.Discard(context.Background(), archive.Key()), ErrJobNotFound)
}

func TestRunReturnsToMenuAfterResolveFailure(t *testing.T) {
	f := newFixture(t)
	f.prompter.Selects = []int{0, 2}
	f.prompter.Inputs = []string{"", "ghost"}

	require.NoError(t, f.orchestrator().Run(context.Background()))

	assert.Equal(t, []string{
		"Choose an option",
		"Please enter username or chat id of target",
		"Choose an option",
	}, f.prompter.Asked)
	assert.Equal(t, []string{"A username or chat id is required"}, f.prompter.Rejected)
	assert.True(t, f.log.HasMessage("Failed to retrieve chat"))
}

func TestRunResumeMenu(t *testing.T) {
	f := newFixture(t)
	threadID := 4
	job := checkpoint.NewJob(archive, "archive", f.outputDir, false, &threadID, []media.Type{media.Pictures})
	require.NoError(t, f.jobs.Set(archive.Key(), job))
	f.prompter.Selects = []int{1, 0}

	require.NoError(t, f.orchestrator().Run(context.Background()))

	require.Len(t, f.prompter.Choices, 2)
	assert.Equal(t, []string{MenuStart, MenuResume, MenuExit}, f.prompter.Choices[0])
	assert.Equal(t, []string{"Archive (Topic ID: 4)", MenuBack}, f.prompter.Choices[1])
	assert.Nil(t, f.stored(t))
}

func TestRunResumeBack(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)
	f.prompter.Selects = []int{1, 1, 2}

	require.NoError(t, f.orchestrator().Run(context.Background()))

	assert.NotNil(t, f.stored(t))
	assert.Empty(t, f.client.Searches)
}

func TestRunWithoutActiveJobs(t *testing.T) {
	f := newFixture(t)
	f.prompter.Selects = []int{1, 2}

	require.NoError(t, f.orchestrator().Run(context.Background()))
	assert.Len(t, f.prompter.Choices, 2)
}

func TestRunPropagatesInterrupt(t *testing.T) {
	f := newFixture(t)
	f.seed(t, media.Pictures)
	f.intr.Request()
	f.prompter.Selects = []int{1, 0}

	err := f.orchestrator().Run(context.Background())
	assert.ErrorIs(t, err, downloader.ErrInterrupted)
	assert.NotNil(t, f.stored(t))
}

func TestSelectMediaTypes(t *testing.T) {
	p := &uitest.Prompter{Checkboxes: [][]int{{0, 3}}}

	types, err := SelectMediaTypes(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []media.Type{media.Pictures, media.Music}, types)
	assert.Equal(t, []string{"Pictures", "Videos", "Documents", "Music", "Voice messages", "GIFs"}, p.Choices[0])

	_, err = SelectMediaTypes(context.Background(), &uitest.Prompter{Checkboxes: [][]int{{9}}})
	assert.ErrorIs(t, err, media.ErrUnsupportedMediaType)

	_, err = SelectMediaTypes(context.Background(), &uitest.Prompter{})
	assert.ErrorIs(t, err, ui.ErrAborted)
}
