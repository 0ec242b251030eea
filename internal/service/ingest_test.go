package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elimu-hub/elimu-go/internal/config"
	"github.com/elimu-hub/elimu-go/internal/extract"
	"github.com/elimu-hub/elimu-go/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPagePDF = "Plant cells have walls made of cellulose.\f" +
	"The mitochondria produce energy for the cell through respiration."

func TestIngest_Sync(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)
	path := f.addPDF(t, "biology.pdf", twoPagePDF)

	doc, err := f.ingest.Ingest(context.Background(), "bio", path)
	require.NoError(t, err)

	assert.Equal(t, "biology.pdf", doc.FileName)
	assert.Equal(t, "bio", doc.Topic)
	assert.Equal(t, 2, doc.PageCount)
	assert.NotEmpty(t, doc.ID)

	count, err := f.index.Count(context.Background(), "bio")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one chunk per short page")

	docs, err := f.docs.ListDocuments(context.Background(), "bio")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestIngest_ReIngestIsIdempotent(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)
	path := f.addPDF(t, "biology.pdf", twoPagePDF)
	ctx := context.Background()

	_, err := f.ingest.Ingest(ctx, "bio", path)
	require.NoError(t, err)
	_, err = f.ingest.Ingest(ctx, "bio", path)
	require.NoError(t, err)

	count, err := f.index.Count(ctx, "bio")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "derived IDs replace instead of duplicating")

	docs, err := f.docs.ListDocuments(ctx, "bio")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIngest_NoTextFails(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)
	path := f.addPDF(t, "scan.pdf", " \f ")

	_, err := f.ingest.Ingest(context.Background(), "bio", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrNoText)
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)
	path := filepath.Join(f.dataDir, "image.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	_, err := f.ingest.Ingest(context.Background(), "bio", path)
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}

func TestIngest_EmptyTopic(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)
	_, err := f.ingest.Ingest(context.Background(), "  ", "whatever.pdf")
	assert.ErrorIs(t, err, ErrEmptyTopic)
}

func TestIngestAsync_ReportsStagedProgress(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)
	path := f.addPDF(t, "biology.pdf", twoPagePDF)

	jobID, err := f.ingest.IngestAsync("bio", path, "tester")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job := awaitJob(t, f.manager, jobID, jobs.StatusCompleted)
	assert.Equal(t, 100, job.Progress)
	assert.NotNil(t, job.Result)

	count, err := f.index.Count(context.Background(), "bio")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngestAsync_FailureCapturedInJob(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)
	path := f.addPDF(t, "scan.pdf", "")

	jobID, err := f.ingest.IngestAsync("bio", path, "tester")
	require.NoError(t, err)

	job := awaitJob(t, f.manager, jobID, jobs.StatusFailed)
	assert.Contains(t, job.Error, "no extractable text")
}

func TestSaveUpload(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)

	path, size, err := f.ingest.SaveUpload("bio", "../../evil.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)
	// Path traversal in the upload name is stripped.
	assert.Equal(t, filepath.Join(f.dataDir, "bio", "evil.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestSaveUpload_RejectsTraversalTopic(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)

	for _, topic := range []string{"../outside", "..", ".", `a\b`, "a/b"} {
		_, _, err := f.ingest.SaveUpload(topic, "evil.txt", strings.NewReader("payload"))
		assert.ErrorIs(t, err, ErrInvalidTopic, "topic %q", topic)
	}

	// Nothing may land outside the data dir.
	_, statErr := os.Stat(filepath.Join(f.dataDir, "..", "outside", "evil.txt"))
	assert.True(t, os.IsNotExist(statErr), "upload escaped the data dir")
}

func TestSaveUpload_EmptyFile(t *testing.T) {
	f := newFixture(t, config.FallbackCanned)

	_, _, err := f.ingest.SaveUpload("bio", "empty.txt", strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyFile)

	_, statErr := os.Stat(filepath.Join(f.dataDir, "bio", "empty.txt"))
	assert.True(t, os.IsNotExist(statErr), "empty upload is not kept on disk")
}

func awaitJob(t *testing.T, m *jobs.Manager, id string, want jobs.Status) jobs.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Get(id)
		require.NoError(t, err)
		if job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := m.Get(id)
	t.Fatalf("job %s never reached %s (now %s)", id, want, job.Status)
	return jobs.Job{}
}
