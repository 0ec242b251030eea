package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/elimu-hub/elimu-go/internal/config"
	"github.com/elimu-hub/elimu-go/internal/embedding"
	"github.com/elimu-hub/elimu-go/internal/extract"
	"github.com/elimu-hub/elimu-go/internal/jobs"
	"github.com/elimu-hub/elimu-go/internal/llm"
	"github.com/elimu-hub/elimu-go/internal/retrieval"
	"github.com/elimu-hub/elimu-go/internal/store"
	"github.com/elimu-hub/elimu-go/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

// pdfStub serves fixed pdftotext output keyed by file path.
type pdfStub struct {
	pages map[string]string // path -> form-feed separated output
}

func (p *pdfStub) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	// args are [-layout, path, -]
	return []byte(p.pages[args[1]]), nil
}

// fakeGenerator is a deterministic Generator for pipeline tests.
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	lastReq llm.Request
	calls   int
}

func (f *fakeGenerator) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) Name() string { return "fake-model" }

// fixture wires a full pipeline over the in-memory index, the hashing
// embedder and a stubbed PDF extractor.
type fixture struct {
	ingest  *IngestService
	chat    *ChatService
	topics  *TopicService
	docs    *store.Store
	index   *vectorstore.Memory
	manager *jobs.Manager
	gen     *fakeGenerator
	pdf     *pdfStub
	dataDir string
}

func newFixture(t *testing.T, fallback config.FallbackMode) *fixture {
	t.Helper()

	dir := t.TempDir()
	docs, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	index := vectorstore.NewMemory()
	embedder := embedding.NewHashing(384)
	pdf := &pdfStub{pages: make(map[string]string)}
	registry := extract.NewRegistry(
		extract.NewTextExtractor(),
		extract.NewPDFExtractorWithRunner(pdf),
	)

	manager := jobs.NewManager(2)
	manager.Start()
	t.Cleanup(manager.Stop)

	ingest := NewIngestService(IngestConfig{
		Extractors: registry,
		Embedder:   embedder,
		Index:      index,
		Docs:       docs,
		Manager:    manager,
		ChunkCfg:   extract.ChunkConfig{Size: 50, Overlap: 10},
		DataDir:    dir,
	})

	gen := &fakeGenerator{reply: "Mitochondria produce energy for the cell."}
	chat, err := NewChatService(ChatConfig{
		Embedder:  embedder,
		Index:     index,
		Gate:      retrieval.NewGate(0.6),
		Generator: gen,
		Fallback:  fallback,
		TopK:      5,
	})
	require.NoError(t, err)
	t.Cleanup(chat.Close)

	return &fixture{
		ingest:  ingest,
		chat:    chat,
		topics:  NewTopicService(docs, index, nil),
		docs:    docs,
		index:   index,
		manager: manager,
		gen:     gen,
		pdf:     pdf,
		dataDir: dir,
	}
}

// addPDF registers stub pdftotext output and writes a placeholder file so
// the extractor's stat check passes.
func (f *fixture) addPDF(t *testing.T, name, pagesOutput string) string {
	t.Helper()
	path := filepath.Join(f.dataDir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF stub"), 0o644))
	f.pdf.pages[path] = pagesOutput
	return path
}
