package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/ingest"
	"github.com/poiesic/docshelf/reader/mock"
	"github.com/poiesic/docshelf/search"
	"github.com/poiesic/docshelf/storage"
	"github.com/poiesic/docshelf/storage/badger"
)

// stubExtractor returns a fixed extraction derived from the input bytes,
// so uploads do not need well-formed PDFs.
type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, data []byte, kind core.SourceKind) (*core.ExtractedDocument, error) {
	text := string(data)
	return &core.ExtractedDocument{
		Kind:      kind,
		Text:      text,
		Title:     strings.TrimSpace(strings.SplitN(text, "\n", 2)[0]),
		PageCount: 1,
		CharCount: len(text),
	}, nil
}

type testEnv struct {
	server    *httptest.Server
	documents storage.DocumentRepository
	shelves   storage.ShelfRepository
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	docs, shelves, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	provider := mock.NewMockProvider("claude", "codex")
	orchestrator, err := ingest.NewOrchestrator(stubExtractor{}, provider, docs, ingest.WithPoolSize(2))
	require.NoError(t, err)

	searcher, err := search.NewSearcher(docs)
	require.NoError(t, err)

	srv, err := NewServer(orchestrator, docs, shelves, searcher)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		orchestrator.Release()
		_ = backend.Close()
	})

	return &testEnv{server: ts, documents: docs, shelves: shelves}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func (e *testEnv) upload(t *testing.T, filename, content, readers, shelves string) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if readers != "" {
		require.NoError(t, mw.WriteField("readers", readers))
	}
	if shelves != "" {
		require.NoError(t, mw.WriteField("shelves", shelves))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.server.URL+"/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

// waitForDocument polls the task until it completes and returns the
// document ID.
func (e *testEnv) waitForDocument(t *testing.T, taskID string) string {
	t.Helper()

	var documentID string
	var failure string
	require.Eventually(t, func() bool {
		resp, body := e.do(t, http.MethodGet, "/tasks/"+taskID, nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		switch status, _ := body["status"].(string); status {
		case string(ingest.StatusFailed):
			failure = fmt.Sprintf("%v", body["error"])
			return true
		case string(ingest.StatusCompleted):
			documentID, _ = body["document_id"].(string)
			return documentID != ""
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	require.Empty(t, failure, "task failed: %s", failure)
	return documentID
}

func TestHealth(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestUploadValidation(t *testing.T) {
	env := setupServer(t)

	t.Run("missing file field", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("readers", "claude"))
		require.NoError(t, mw.Close())

		resp, err := http.Post(env.server.URL+"/documents", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unsupported file type", func(t *testing.T) {
		resp, body := env.upload(t, "notes.docx", "some text", "", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "only PDF and EML")
	})

	t.Run("empty file", func(t *testing.T) {
		resp, _ := env.upload(t, "empty.pdf", "", "", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown reader", func(t *testing.T) {
		resp, body := env.upload(t, "doc.pdf", "Some Document\ncontent", "gemini", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "unknown reader")
	})
}

func TestUploadAndPoll(t *testing.T) {
	env := setupServer(t)

	resp, body := env.upload(t, "report.pdf", "Quarterly Review\nrevenue grew steadily", "claude", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	taskID, ok := body["task_id"].(string)
	require.True(t, ok)
	require.Len(t, taskID, 12)

	documentID := env.waitForDocument(t, taskID)
	assert.Equal(t, "quarterly-review", documentID)

	resp, doc := env.do(t, http.MethodGet, "/documents/"+documentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Quarterly Review", doc["title"])
	assert.Equal(t, "pdf", doc["source_type"])

	readings, ok := doc["readings"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, readings, "claude")
	assert.NotContains(t, readings, "codex")
}

func TestTaskRoutes(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/tasks/deadbeef0000", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "task not found")

	_, upload := env.upload(t, "a.pdf", "Alpha\ntext", "", "")
	env.waitForDocument(t, upload["task_id"].(string))

	resp, body = env.do(t, http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tasks, ok := body["tasks"].([]any)
	require.True(t, ok)
	assert.Len(t, tasks, 1)
}

func TestDocumentRoutes(t *testing.T) {
	env := setupServer(t)

	_, body := env.upload(t, "guide.pdf", "Style Guide\nwrite clearly and briefly", "claude", "")
	documentID := env.waitForDocument(t, body["task_id"].(string))

	t.Run("text", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/documents/"+documentID+"/text", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body["text"], "write clearly")
	})

	t.Run("markdown", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/documents/" + documentID + "/markdown")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "# Style Guide")
		assert.Contains(t, string(raw), "### Claude")
	})

	t.Run("source", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/documents/" + documentID + "/source")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "Style Guide\nwrite clearly and briefly", string(raw))
	})

	t.Run("list and search", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/documents", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["total"])

		resp, body = env.do(t, http.MethodGet, "/documents?q=clearly&field=text", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["total"])

		resp, body = env.do(t, http.MethodGet, "/documents?q=nonexistent", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(0), body["total"])

		resp, _ = env.do(t, http.MethodGet, "/documents?field=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/documents/no-such-doc", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp, body := env.do(t, http.MethodDelete, "/documents/"+documentID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["ok"])

		resp, _ = env.do(t, http.MethodGet, "/documents/"+documentID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDocumentLanguageResolution(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()

	id, err := env.documents.SaveDocument(ctx, &storage.SaveRequest{
		Extracted: &core.ExtractedDocument{
			Kind:      core.SourceKindPDF,
			Text:      "channels and goroutines",
			Title:     "Bilingual Notes",
			PageCount: 1,
		},
		SourceName: "bilingual.pdf",
		Readings: map[string]core.Reading{
			"claude": {
				Summary:     "Channels and goroutines",
				SummaryJA:   "チャネルとゴルーチン",
				KeyPointsJA: []string{"並行性"},
			},
		},
		ReaderOrder: []string{"claude"},
	})
	require.NoError(t, err)

	claudeReading := func(body map[string]any) map[string]any {
		readings, ok := body["readings"].(map[string]any)
		require.True(t, ok, "body: %v", body)
		reading, ok := readings["claude"].(map[string]any)
		require.True(t, ok)
		return reading
	}

	// Without lang both variants are present.
	resp, body := env.do(t, http.MethodGet, "/documents/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reading := claudeReading(body)
	assert.Equal(t, "Channels and goroutines", reading["summary"])
	assert.Equal(t, "チャネルとゴルーチン", reading["summary_ja"])

	// lang=ja resolves to the Japanese variant and drops the _ja fields.
	resp, body = env.do(t, http.MethodGet, "/documents/"+id+"?lang=ja", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reading = claudeReading(body)
	assert.Equal(t, "チャネルとゴルーチン", reading["summary"])
	assert.Equal(t, []any{"並行性"}, reading["key_points"])
	assert.NotContains(t, reading, "summary_ja")

	// lang=en falls back to Japanese where no English variant exists.
	resp, body = env.do(t, http.MethodGet, "/documents/"+id+"?lang=en", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reading = claudeReading(body)
	assert.Equal(t, "Channels and goroutines", reading["summary"])
	assert.Equal(t, []any{"並行性"}, reading["key_points"])

	resp, _ = env.do(t, http.MethodGet, "/documents/"+id+"?lang=de", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShelfRoutes(t *testing.T) {
	env := setupServer(t)

	t.Run("create", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/shelves", map[string]any{
			"name": "Research", "name_ja": "研究",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "research", body["shelf_id"])
		assert.Equal(t, "研究", body["name_ja"])
	})

	t.Run("duplicate conflicts", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/shelves", map[string]any{"name": "Research"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/shelves", map[string]any{"name": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list puts virtual shelf first", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/shelves", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		shelves, ok := body["shelves"].([]any)
		require.True(t, ok)
		require.Len(t, shelves, 2)

		first := shelves[0].(map[string]any)
		assert.Equal(t, core.UnsortedShelfID, first["shelf_id"])
		assert.Equal(t, true, first["is_virtual"])
	})

	t.Run("virtual shelf is protected", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/shelves/"+core.UnsortedShelfID, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = env.do(t, http.MethodPatch, "/shelves/"+core.UnsortedShelfID, map[string]any{"name": "Sorted"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rename re-derives the ID", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPatch, "/shelves/research", map[string]any{"name": "Deep Research"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "deep-research", body["shelf_id"])

		resp, _ = env.do(t, http.MethodGet, "/shelves/research", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/shelves/deep-research", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = env.do(t, http.MethodGet, "/shelves/deep-research", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDocumentShelfMembership(t *testing.T) {
	env := setupServer(t)

	resp, _ := env.do(t, http.MethodPost, "/shelves", map[string]any{"name": "Archive"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, body := env.upload(t, "old.pdf", "Old Paper\nhistoric content", "", "")
	documentID := env.waitForDocument(t, body["task_id"].(string))

	t.Run("set memberships", func(t *testing.T) {
		resp, doc := env.do(t, http.MethodPut, "/documents/"+documentID+"/shelves", map[string]any{
			"shelf_ids": []string{"archive"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []any{"archive"}, doc["shelves"])
	})

	t.Run("shelf filter", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/documents?shelf=archive", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["total"])

		resp, body = env.do(t, http.MethodGet, fmt.Sprintf("/documents?shelf=%s", core.UnsortedShelfID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(0), body["total"])
	})

	t.Run("unknown shelf rejected", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPut, "/documents/"+documentID+"/shelves", map[string]any{
			"shelf_ids": []string{"no-such-shelf"},
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("remove membership", func(t *testing.T) {
		resp, doc := env.do(t, http.MethodDelete, "/documents/"+documentID+"/shelves/archive", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Nil(t, doc["shelves"])
	})

	t.Run("upload with shelves", func(t *testing.T) {
		_, body := env.upload(t, "new.pdf", "New Paper\nfresh content", "", "archive")
		documentID := env.waitForDocument(t, body["task_id"].(string))

		_, doc := env.do(t, http.MethodGet, "/documents/"+documentID, nil)
		assert.Equal(t, []any{"archive"}, doc["shelves"])
	})
}
