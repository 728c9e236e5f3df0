package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	llmmocks "koqa/internal/llm/mocks"
	"koqa/internal/storage"
	"koqa/internal/syncer"
	"koqa/internal/vectorstore"
	vsmocks "koqa/internal/vectorstore/mocks"
)

type pipelineFixture struct {
	pipeline    *Pipeline
	docRepo     *storage.DocumentRepo
	chunkRepo   *storage.ChunkRepo
	embedder    *llmmocks.MockEmbedder
	vectorStore *vsmocks.MockVectorStore
	docsDir     string
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctrl := gomock.NewController(t)
	embedder := llmmocks.NewMockEmbedder(ctrl)
	vectorStore := vsmocks.NewMockVectorStore(ctrl)

	docsDir := t.TempDir()
	docs := syncer.New(nil, "documents", docsDir)

	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	pipeline := NewPipeline(docs, docRepo, chunkRepo, embedder, vectorStore, "documents", 500, 50)

	return &pipelineFixture{
		pipeline:    pipeline,
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		vectorStore: vectorStore,
		docsDir:     docsDir,
	}
}

func (f *pipelineFixture) writeDoc(t *testing.T, relPath, content string) syncer.ScannedFile {
	t.Helper()

	absPath := filepath.Join(f.docsDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write doc: %v", err)
	}

	folder := filepath.Dir(relPath)
	if folder == "." {
		folder = ""
	}
	return syncer.ScannedFile{RelPath: relPath, Folder: folder, AbsPath: absPath}
}

// fakeEmbeddings returns one distinct vector per input text.
func fakeEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0.5}
	}
	return vectors, nil
}

func TestPipeline_IndexFile_Markdown(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	file := f.writeDoc(t, "guides/안내.md", "# 등록 안내\n\n홈페이지에서 온라인으로 등록할 수 있습니다. 마감일 이후에는 현장 등록만 가능합니다.")

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings)

	var captured []vectorstore.Point
	f.vectorStore.EXPECT().
		Upsert(gomock.Any(), "documents", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			captured = points
			return nil
		})

	if err := f.pipeline.IndexFile(ctx, file); err != nil {
		t.Fatalf("IndexFile() failed: %v", err)
	}

	doc, err := f.docRepo.GetByKey(ctx, "guides/안내.md")
	if err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	if doc.Title != "등록 안내" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.Folder != "guides" {
		t.Errorf("folder = %q", doc.Folder)
	}

	chunkIDs, err := f.chunkRepo.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() failed: %v", err)
	}
	if len(chunkIDs) == 0 {
		t.Fatal("no chunks stored")
	}
	if len(captured) != len(chunkIDs) {
		t.Errorf("stored %d chunks but upserted %d points", len(chunkIDs), len(captured))
	}

	// Point IDs must match the SQLite chunk IDs.
	idSet := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		idSet[id] = struct{}{}
	}
	for _, point := range captured {
		if _, ok := idSet[point.ID]; !ok {
			t.Errorf("point ID %s not found among chunk IDs", point.ID)
		}
		if point.Meta["source"] != "guides/안내.md" {
			t.Errorf("point source = %v", point.Meta["source"])
		}
	}
}

func TestPipeline_IndexFile_SkipsUnchanged(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	file := f.writeDoc(t, "doc.md", "# 문서\n\n변경되지 않는 본문입니다. 해시가 같으면 재색인하지 않아야 합니다.")

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings).Times(1)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "documents", gomock.Any()).Return(nil).Times(1)

	if err := f.pipeline.IndexFile(ctx, file); err != nil {
		t.Fatalf("first IndexFile() failed: %v", err)
	}
	// Second run hits the hash check; the mocks reject further calls.
	if err := f.pipeline.IndexFile(ctx, file); err != nil {
		t.Fatalf("second IndexFile() failed: %v", err)
	}
}

func TestPipeline_IndexFile_ReplacesChangedDocument(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	file := f.writeDoc(t, "doc.md", "# 문서\n\n첫 번째 버전의 본문입니다. 충분히 길게 작성해서 청크가 생성되도록 합니다.")

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings).Times(2)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "documents", gomock.Any()).Return(nil).Times(2)

	if err := f.pipeline.IndexFile(ctx, file); err != nil {
		t.Fatalf("first IndexFile() failed: %v", err)
	}

	doc, err := f.docRepo.GetByKey(ctx, "doc.md")
	if err != nil {
		t.Fatalf("GetByKey() failed: %v", err)
	}
	oldIDs, err := f.chunkRepo.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() failed: %v", err)
	}

	// Old chunk IDs must be deleted from the vector store on reindex.
	f.vectorStore.EXPECT().Delete(gomock.Any(), "documents", oldIDs).Return(nil)

	file = f.writeDoc(t, "doc.md", "# 문서\n\n두 번째 버전의 본문입니다. 내용이 바뀌었으므로 기존 청크는 제거되어야 합니다.")
	if err := f.pipeline.IndexFile(ctx, file); err != nil {
		t.Fatalf("second IndexFile() failed: %v", err)
	}

	updated, err := f.docRepo.GetByKey(ctx, "doc.md")
	if err != nil {
		t.Fatalf("GetByKey() after update failed: %v", err)
	}
	if updated.ID != doc.ID {
		t.Errorf("document ID changed on reindex: %s -> %s", doc.ID, updated.ID)
	}

	newIDs, err := f.chunkRepo.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() after update failed: %v", err)
	}
	for _, oldID := range oldIDs {
		for _, newID := range newIDs {
			if oldID == newID {
				t.Errorf("old chunk ID %s survived reindex", oldID)
			}
		}
	}
}

func TestPipeline_IndexAll(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	f.writeDoc(t, "a.md", "# 문서 A\n\n첫 번째 문서의 본문입니다. 청크가 생성될 만큼 충분히 깁니다.")
	f.writeDoc(t, "events/b.csv", "행사명,행사 시작일\n천식 심포지엄,2025-04-05\n")
	f.writeDoc(t, "ignore.txt", "unsupported")

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings).Times(2)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "documents", gomock.Any()).Return(nil).Times(2)

	if err := f.pipeline.IndexAll(ctx); err != nil {
		t.Fatalf("IndexAll() failed: %v", err)
	}

	count, err := f.docRepo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("indexed %d documents, want 2", count)
	}
}

func TestPipeline_ClearAll(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	file := f.writeDoc(t, "doc.md", "# 문서\n\n삭제 테스트용 본문입니다. 색인 후 전체 삭제가 되어야 합니다.")

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "documents", gomock.Any()).Return(nil)

	if err := f.pipeline.IndexFile(ctx, file); err != nil {
		t.Fatalf("IndexFile() failed: %v", err)
	}

	f.vectorStore.EXPECT().Delete(gomock.Any(), "documents", gomock.Any()).Return(nil)

	if err := f.pipeline.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}

	docCount, _ := f.docRepo.Count(ctx)
	chunkCount, _ := f.chunkRepo.Count(ctx)
	if docCount != 0 || chunkCount != 0 {
		t.Errorf("index not cleared: %d docs, %d chunks", docCount, chunkCount)
	}
}

func TestPipeline_CoverageStats(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	file := f.writeDoc(t, "doc.md", "# 통계\n\n통계 계산용 본문입니다. 토큰 수 추정이 가능해야 합니다.")

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "documents", gomock.Any()).Return(nil)

	if err := f.pipeline.IndexFile(ctx, file); err != nil {
		t.Fatalf("IndexFile() failed: %v", err)
	}

	stats, err := f.pipeline.CoverageStats(ctx, "ko-sroberta-multitask")
	if err != nil {
		t.Fatalf("CoverageStats() failed: %v", err)
	}
	if stats.DocsIndexed != 1 {
		t.Errorf("DocsIndexed = %d, want 1", stats.DocsIndexed)
	}
	if stats.DocsWithoutChunks != 0 {
		t.Errorf("DocsWithoutChunks = %d, want 0", stats.DocsWithoutChunks)
	}
	if stats.ChunksIndexed == 0 {
		t.Error("ChunksIndexed = 0")
	}
	if stats.ChunkTokenStats.Min < 1 {
		t.Errorf("token stats min = %d", stats.ChunkTokenStats.Min)
	}
	if stats.IndexVersion == "" || stats.ChunkerVersion != ChunkerVersion {
		t.Errorf("version fields: %q / %q", stats.IndexVersion, stats.ChunkerVersion)
	}
}
