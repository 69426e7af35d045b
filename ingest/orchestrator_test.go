package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/reader/mock"
	"github.com/poiesic/docshelf/storage"
	"github.com/poiesic/docshelf/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testExtractor implements extract.Extractor for testing
type testExtractor struct {
	err       error
	callCount int
}

func (m *testExtractor) Extract(ctx context.Context, data []byte, kind core.SourceKind) (*core.ExtractedDocument, error) {
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return &core.ExtractedDocument{
		Kind:      kind,
		Text:      "extracted text for testing",
		Title:     "Test Document",
		PageCount: 1,
		CharCount: 26,
	}, nil
}

// testWriter implements storage.DocumentWriter for testing
type testWriter struct {
	err  error
	mu   sync.Mutex
	last *storage.SaveRequest
}

func (m *testWriter) SaveDocument(ctx context.Context, req *storage.SaveRequest) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	m.last = req
	m.mu.Unlock()
	return "test-document", nil
}

func (m *testWriter) lastRequest() *storage.SaveRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func pdfSubmit(readers ...string) SubmitRequest {
	return SubmitRequest{
		Data:       []byte("%PDF-1.4 fake"),
		SourceName: "test.pdf",
		Readers:    readers,
	}
}

// waitTerminal polls until the task reaches a terminal state.
func waitTerminal(t *testing.T, o *Orchestrator, taskID string) TaskRecord {
	t.Helper()
	require.Eventually(t, func() bool {
		record, err := o.GetTask(taskID)
		return err == nil && record.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond, "task %s never reached a terminal state", taskID)

	record, err := o.GetTask(taskID)
	require.NoError(t, err)
	return record
}

func TestNewOrchestrator(t *testing.T) {
	provider := mock.NewMockProvider("claude")
	writer := &testWriter{}
	extractor := &testExtractor{}

	t.Run("valid configuration", func(t *testing.T) {
		o, err := NewOrchestrator(extractor, provider, writer)
		require.NoError(t, err)
		defer o.Release()
		assert.NotNil(t, o)
	})

	t.Run("nil extractor", func(t *testing.T) {
		_, err := NewOrchestrator(nil, provider, writer)
		assert.Equal(t, ErrExtractorRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewOrchestrator(extractor, nil, writer)
		assert.Equal(t, ErrReaderProviderRequired, err)
	})

	t.Run("nil writer", func(t *testing.T) {
		_, err := NewOrchestrator(extractor, provider, nil)
		assert.Equal(t, ErrStorageWriterRequired, err)
	})
}

func TestSubmitValidation(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")
	o, err := NewOrchestrator(&testExtractor{}, provider, &testWriter{})
	require.NoError(t, err)
	defer o.Release()

	ctx := context.Background()

	t.Run("empty file", func(t *testing.T) {
		_, err := o.Submit(ctx, SubmitRequest{SourceName: "a.pdf"})
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := o.Submit(ctx, SubmitRequest{Data: []byte("x"), SourceName: "a.docx"})
		assert.ErrorIs(t, err, core.ErrUnsupportedSourceKind)
	})

	t.Run("unknown reader", func(t *testing.T) {
		_, err := o.Submit(ctx, pdfSubmit("gemini"))
		assert.ErrorIs(t, err, ErrUnknownReader)
	})

	t.Run("no task created on rejection", func(t *testing.T) {
		assert.Empty(t, o.Tasks())
	})

	t.Run("unknown task id", func(t *testing.T) {
		_, err := o.GetTask("deadbeef0000")
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestPipelineCompletesWithOneReader(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")
	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude"))
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Equal(t, "test-document", record.DocumentID)
	assert.Empty(t, record.Error)
	require.NotNil(t, record.CompletedAt)
	assert.False(t, record.CompletedAt.Before(record.StartedAt))

	require.NotNil(t, writer.lastRequest())
	assert.Len(t, writer.lastRequest().Readings, 1)
	assert.Contains(t, writer.lastRequest().Readings, "claude")
	assert.Equal(t, []string{"claude"}, writer.lastRequest().ReaderOrder)
	assert.Equal(t, 1, provider.GetMockReader("claude").CallCount())
	assert.Equal(t, 0, provider.GetMockReader("codex").CallCount())
}

func TestPipelineNoReaders(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")
	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit())
	require.NoError(t, err)

	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusCompleted, record.Status)
	require.NotNil(t, writer.lastRequest())
	assert.Empty(t, writer.lastRequest().Readings)
	assert.Equal(t, 0, provider.GetMockReader("claude").CallCount())
	assert.Equal(t, 0, provider.GetMockReader("codex").CallCount())
}

func TestPipelineOneReaderFails(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")
	provider.GetMockReader("codex").ReadFunc = func(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
		return nil, errors.New("codex exploded")
	}
	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude", "codex"))
	require.NoError(t, err)

	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Empty(t, record.Error)

	require.NotNil(t, writer.lastRequest())
	assert.Len(t, writer.lastRequest().Readings, 1)
	assert.Contains(t, writer.lastRequest().Readings, "claude")
	assert.NotContains(t, writer.lastRequest().Readings, "codex")
}

func TestPipelineBothReadersFail(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")
	boom := func(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
		return nil, errors.New("reader unavailable")
	}
	provider.GetMockReader("claude").ReadFunc = boom
	provider.GetMockReader("codex").ReadFunc = boom
	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude", "codex"))
	require.NoError(t, err)

	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusCompleted, record.Status)
	require.NotNil(t, writer.lastRequest())
	assert.Empty(t, writer.lastRequest().Readings)
}

func TestExtractionFailureIsFatal(t *testing.T) {
	provider := mock.NewMockProvider("claude")
	extractor := &testExtractor{err: errors.New("corrupt xref table")}
	o, err := NewOrchestrator(extractor, provider, &testWriter{})
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude"))
	require.NoError(t, err)

	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusFailed, record.Status)
	assert.Contains(t, record.Error, "corrupt xref table")
	assert.Empty(t, record.DocumentID)
	require.NotNil(t, record.CompletedAt)

	// No reader was ever invoked
	assert.Equal(t, 0, provider.GetMockReader("claude").CallCount())
}

func TestStorageFailureIsFatal(t *testing.T) {
	provider := mock.NewMockProvider("claude")
	writer := &testWriter{err: errors.New("disk full")}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude"))
	require.NoError(t, err)

	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusFailed, record.Status)
	assert.Contains(t, record.Error, "disk full")
	assert.Empty(t, record.DocumentID)
}

func TestReaderTimeoutIsAbsorbed(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")
	provider.GetMockReader("codex").ReadFunc = func(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer,
		WithReaderTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude", "codex"))
	require.NoError(t, err)

	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusCompleted, record.Status)
	require.NotNil(t, writer.lastRequest())
	assert.Len(t, writer.lastRequest().Readings, 1)
	assert.Contains(t, writer.lastRequest().Readings, "claude")
}

func TestReadingStatusFollowsPriorityOrder(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")

	claudeGate := make(chan struct{})
	provider.GetMockReader("claude").ReadFunc = func(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
		<-claudeGate
		return &core.Reading{Summary: "late but fine"}, nil
	}

	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude", "codex"))
	require.NoError(t, err)

	// codex finishes immediately, but claude is first in priority order
	// and still outstanding, so the polled state stays reading_claude.
	require.Eventually(t, func() bool {
		record, err := o.GetTask(taskID)
		return err == nil && record.Status == ReadingStatus("claude")
	}, 5*time.Second, 5*time.Millisecond)

	// Give codex time to settle, then confirm the status did not move on.
	time.Sleep(50 * time.Millisecond)
	record, err := o.GetTask(taskID)
	require.NoError(t, err)
	assert.Equal(t, ReadingStatus("claude"), record.Status)

	close(claudeGate)
	record = waitTerminal(t, o, taskID)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Len(t, writer.lastRequest().Readings, 2)
}

func TestReaderFailureNotedInProgress(t *testing.T) {
	provider := mock.NewMockProvider("claude", "codex")

	claudeGate := make(chan struct{})
	provider.GetMockReader("claude").ReadFunc = func(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
		<-claudeGate
		return &core.Reading{Summary: "slow but fine"}, nil
	}
	provider.GetMockReader("codex").ReadFunc = func(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
		return nil, errors.New("codex exploded")
	}

	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude", "codex"))
	require.NoError(t, err)

	// While claude is still outstanding, the polled message names the
	// absorbed codex failure.
	require.Eventually(t, func() bool {
		record, err := o.GetTask(taskID)
		return err == nil && record.Status == ReadingStatus("claude") &&
			strings.Contains(record.ProgressMessage, "Reader codex failed")
	}, 5*time.Second, 5*time.Millisecond)

	close(claudeGate)
	record := waitTerminal(t, o, taskID)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.NotContains(t, record.ProgressMessage, "failed")
	assert.Len(t, writer.lastRequest().Readings, 1)
}

func TestPipelineAgainstBadgerStore(t *testing.T) {
	docRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider("claude", "codex")
	o, err := NewOrchestrator(&testExtractor{}, provider, docRepo)
	require.NoError(t, err)
	defer o.Release()

	taskID, err := o.Submit(context.Background(), pdfSubmit("claude", "codex"))
	require.NoError(t, err)

	record := waitTerminal(t, o, taskID)
	require.Equal(t, StatusCompleted, record.Status)
	require.NotEmpty(t, record.DocumentID)

	doc, err := docRepo.GetDocument(context.Background(), record.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Test Document", doc.Title)
	assert.Len(t, doc.Readings, 2)
	assert.Equal(t, []string{"claude", "codex"}, doc.ReadersUsed)

	text, err := docRepo.GetDocumentText(context.Background(), record.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "extracted text for testing", text)
}

func TestConcurrentTasksAreIndependent(t *testing.T) {
	provider := mock.NewMockProvider("claude")
	writer := &testWriter{}
	o, err := NewOrchestrator(&testExtractor{}, provider, writer, WithPoolSize(4))
	require.NoError(t, err)
	defer o.Release()

	ctx := context.Background()
	var taskIDs []string
	for range 8 {
		taskID, err := o.Submit(ctx, pdfSubmit("claude"))
		require.NoError(t, err)
		taskIDs = append(taskIDs, taskID)
	}

	for _, taskID := range taskIDs {
		record := waitTerminal(t, o, taskID)
		assert.Equal(t, StatusCompleted, record.Status)
	}
	assert.Len(t, o.Tasks(), 8)
}
