package updater

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// faultEmbedder hashes word tokens into deterministic normalized vectors
// and fails on any text containing the poison marker, which lets tests
// break an apply phase at a chosen point.
type faultEmbedder struct {
	dims int
}

const poison = "EMBEDFAIL"

func (e *faultEmbedder) Dimensions() int { return e.dims }
func (e *faultEmbedder) Name() string    { return "fault" }

func (e *faultEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.Contains(text, poison) {
			return nil, fmt.Errorf("embedding backend unavailable")
		}
		vec := make([]float32, e.dims)
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%uint32(e.dims)] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		if norm > 0 {
			n := float32(math.Sqrt(norm))
			for j := range vec {
				vec[j] /= n
			}
		}
		results[i] = vec
	}
	return results, nil
}

func newTestStore(t *testing.T) *vectordb.Store {
	t.Helper()
	store, err := vectordb.NewStore(&faultEmbedder{dims: 64}, t.TempDir(), vectordb.IndexConfig{Type: vectordb.IndexFlat})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func doc(id, sourceID, content string) vectordb.Document {
	return vectordb.Document{
		ID:      id,
		Content: content,
		Metadata: vectordb.Metadata{
			SourceType: vectordb.SourceBook,
			SourceID:   sourceID,
		},
	}
}

func searchIDs(t *testing.T, store *vectordb.Store, query string) map[string]bool {
	t.Helper()
	results, err := store.Search(context.Background(), query, 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	ids := make(map[string]bool, len(results))
	for _, r := range results {
		ids[r.Document.ID] = true
	}
	return ids
}

func TestApply_AddModifyDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddDocuments(ctx, []vectordb.Document{
		doc("a1", "book/a.md", "vitamin D and calcium"),
		doc("b1", "book/b.md", "magnesium and sleep quality"),
	})
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	u := New(store, t.TempDir())
	res, err := u.Apply(ctx,
		[]SourceUpdate{{Key: "book/c.md", Docs: []vectordb.Document{doc("c1", "book/c.md", "zinc supports immunity")}}},
		[]SourceUpdate{{Key: "book/a.md", Docs: []vectordb.Document{doc("a2", "book/a.md", "vitamin D dosage revised guidance")}}},
		[]string{"book/b.md"},
	)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Success {
		t.Error("Result.Success = false")
	}
	if res.ItemsAdded != 1 || res.ItemsModified != 1 || res.ItemsDeleted != 1 {
		t.Errorf("counts: %+v", res)
	}
	if res.BackupID == "" {
		t.Error("no backup id recorded")
	}

	ids := searchIDs(t, store, "vitamin magnesium zinc dosage sleep")
	if !ids["c1"] {
		t.Error("added document not searchable")
	}
	if !ids["a2"] || ids["a1"] {
		t.Errorf("modified source: got %v, want a2 without a1", ids)
	}
	if ids["b1"] {
		t.Error("deleted source still searchable")
	}
}

func TestApply_RestoresBackupOnFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.AddDocuments(ctx, []vectordb.Document{
		doc("a1", "book/a.md", "vitamin D and calcium"),
	}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	u := New(store, t.TempDir())

	// The first added source lands and is persisted before the second one
	// fails to embed; the restore must roll both back.
	res, err := u.Apply(ctx,
		[]SourceUpdate{
			{Key: "book/good.md", Docs: []vectordb.Document{doc("g1", "book/good.md", "selenium and thyroid")}},
			{Key: "book/bad.md", Docs: []vectordb.Document{doc("x1", "book/bad.md", poison)}},
		},
		nil, nil,
	)
	if err == nil {
		t.Fatal("Apply succeeded despite an embedding failure")
	}
	if res.Success {
		t.Error("Result.Success = true after failure")
	}
	if res.BackupID == "" {
		t.Error("no backup id on failed apply")
	}
	if len(res.Errors) == 0 {
		t.Error("no errors recorded on failed apply")
	}

	ids := searchIDs(t, store, "vitamin selenium thyroid calcium")
	if !ids["a1"] {
		t.Error("pre-update document lost after restore")
	}
	if ids["g1"] || ids["x1"] {
		t.Errorf("partial update survived restore: %v", ids)
	}
	if stats := store.Stats(); stats.TotalDocuments != 1 {
		t.Errorf("stats after restore: %+v", stats)
	}
}

func TestApply_FailureOnFreshStoreRestoresEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	u := New(store, t.TempDir())

	res, err := u.Apply(ctx,
		[]SourceUpdate{{Key: "book/bad.md", Docs: []vectordb.Document{doc("x1", "book/bad.md", poison)}}},
		nil, nil,
	)
	if err == nil {
		t.Fatal("Apply succeeded despite an embedding failure")
	}
	if res.BackupID == "" {
		t.Error("no backup id on failed apply")
	}
	if stats := store.Stats(); stats.TotalDocuments != 0 {
		t.Errorf("fresh store not empty after restore: %+v", stats)
	}
}

func TestRestore_UnknownBackup(t *testing.T) {
	store := newTestStore(t)
	u := New(store, t.TempDir())
	if err := u.Restore("20200101-000000-missing"); err == nil {
		t.Error("Restore succeeded for a missing backup id")
	}
}

func TestApply_NoChanges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.AddDocuments(ctx, []vectordb.Document{
		doc("a1", "book/a.md", "vitamin D and calcium"),
	}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	u := New(store, t.TempDir())
	res, err := u.Apply(ctx, nil, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Success || res.ItemsAdded != 0 || res.ItemsModified != 0 || res.ItemsDeleted != 0 {
		t.Errorf("empty apply: %+v", res)
	}
	if ids := searchIDs(t, store, "vitamin D calcium"); !ids["a1"] {
		t.Error("store changed by empty apply")
	}
}
