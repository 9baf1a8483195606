package ingest

import (
	"context"
	"testing"

	"github.com/vitalkb/vitalkb/internal/embeddings"
	"github.com/vitalkb/vitalkb/internal/tracker"
	"github.com/vitalkb/vitalkb/internal/updater"
	"github.com/vitalkb/vitalkb/internal/vectordb"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	store, err := vectordb.NewStore(embeddings.NewLocalEmbedder(64), t.TempDir(), vectordb.IndexConfig{Type: vectordb.IndexFlat})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	tr, err := tracker.Load(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("tracker.Load: %v", err)
	}
	return &Pipeline{
		Store:   store,
		Tracker: tr,
		Updater: updater.New(store, t.TempDir()),
		MaxSize: 200,
		Overlap: 40,
	}
}

func testItems() []SourceItem {
	return []SourceItem{
		{
			Key:        "book/vitamins.md",
			SourceType: vectordb.SourceBook,
			Title:      "Vitamins",
			Content:    "Vitamin D regulates calcium absorption and immune function. Deficiency is common in winter.",
		},
		{
			Key:        "newsletter/2024-06.md",
			SourceType: vectordb.SourceNewsletter,
			Title:      "June Letter",
			Date:       "2024-06-01",
			Content:    "Sunlight exposure boosts vitamin D production in summer.",
		},
	}
}

func TestPipeline_FullBuild(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t)

	chunks, err := p.FullBuild(ctx, testItems())
	if err != nil {
		t.Fatalf("FullBuild: %v", err)
	}
	if chunks == 0 {
		t.Fatal("FullBuild indexed no chunks")
	}

	stats := p.Store.Stats()
	if stats.ActiveDocuments != chunks {
		t.Errorf("active documents: got %d, want %d", stats.ActiveDocuments, chunks)
	}

	// The tracker is seeded so the build counts as the baseline.
	if p.Tracker.Tracked() != 2 {
		t.Errorf("tracked sources: got %d, want 2", p.Tracker.Tracked())
	}
	history := p.Tracker.History()
	if len(history) != 1 || history[0].Kind != "full" || !history[0].Success {
		t.Errorf("history: %+v", history)
	}

	results, err := p.Store.Search(ctx, "vitamin D calcium absorption", 3, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("indexed corpus not searchable")
	}
}

func TestPipeline_RefreshNoChanges(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t)
	items := testItems()

	if _, err := p.FullBuild(ctx, items); err != nil {
		t.Fatalf("FullBuild: %v", err)
	}

	res, changes, err := p.Refresh(ctx, items)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res != nil {
		t.Errorf("delta-free refresh returned a result: %+v", res)
	}
	if len(changes.Unchanged) != 2 || changes.Total() != 2 {
		t.Errorf("changes: %+v", changes)
	}

	// The no-op run still lands in the history.
	history := p.Tracker.History()
	if len(history) != 2 || history[1].Kind != "incremental" {
		t.Errorf("history: %+v", history)
	}
}

func TestPipeline_RefreshAppliesDelta(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t)
	items := testItems()

	if _, err := p.FullBuild(ctx, items); err != nil {
		t.Fatalf("FullBuild: %v", err)
	}

	items[0].Content = "Vitamin D guidance was rewritten: aim for measured blood levels."
	items = append(items, SourceItem{
		Key:        "forum/t1.json",
		SourceType: vectordb.SourceForum,
		Title:      "Magnesium questions",
		Content:    "anna: Which magnesium form absorbs best?",
	})

	res, changes, err := p.Refresh(ctx, items)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res == nil || !res.Success {
		t.Fatalf("refresh result: %+v", res)
	}
	if len(changes.New) != 1 || changes.New[0] != "forum/t1.json" {
		t.Errorf("new keys: %v", changes.New)
	}
	if len(changes.Modified) != 1 || changes.Modified[0] != "book/vitamins.md" {
		t.Errorf("modified keys: %v", changes.Modified)
	}
	if res.ItemsModified != 1 {
		t.Errorf("items modified: got %d, want 1", res.ItemsModified)
	}

	results, err := p.Store.Search(ctx, "magnesium form absorbs", 3, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].Document.Metadata.SourceID != "forum/t1.json" {
		t.Errorf("new source not retrievable: %+v", results)
	}

	// The stale version of the modified source is gone.
	results, err = p.Store.Search(ctx, "vitamin D calcium absorption immune", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.Document.Metadata.SourceID == "book/vitamins.md" &&
			r.Document.Content != items[0].Content {
			t.Errorf("stale chunk returned: %q", r.Document.Content)
		}
	}
}
