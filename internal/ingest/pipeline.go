package ingest

import (
	"context"
	"fmt"

	"github.com/vitalkb/vitalkb/internal/chunker"
	"github.com/vitalkb/vitalkb/internal/progress"
	"github.com/vitalkb/vitalkb/internal/tracker"
	"github.com/vitalkb/vitalkb/internal/updater"
	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// Pipeline wires the chunker, store, tracker and updater into the two
// ingestion flows: the initial full build and the incremental refresh.
type Pipeline struct {
	Store    *vectordb.Store
	Tracker  *tracker.Tracker
	Updater  *updater.Updater
	MaxSize  int
	Overlap  int
	Reporter progress.Reporter
}

func (p *Pipeline) chunkItem(item SourceItem) []vectordb.Document {
	return chunker.Chunk(item.Content, item.Metadata(), p.MaxSize, p.Overlap)
}

func trackerItems(items []SourceItem) []tracker.Item {
	out := make([]tracker.Item, len(items))
	for i, item := range items {
		out[i] = tracker.Item{Key: item.Key, Content: item.Content}
	}
	return out
}

// FullBuild chunks and indexes every item, then seeds the content tracker
// so the next refresh sees the corpus as unchanged. Returns the number of
// chunks indexed.
func (p *Pipeline) FullBuild(ctx context.Context, items []SourceItem) (int, error) {
	if p.Reporter != nil {
		p.Reporter.Start(len(items))
	}

	chunks := 0
	for i, item := range items {
		docs := p.chunkItem(item)
		count, err := p.Store.AddDocuments(ctx, docs)
		if err != nil {
			return chunks, fmt.Errorf("indexing %s: %w", item.Key, err)
		}
		chunks += count
		if p.Reporter != nil {
			p.Reporter.Update(i+1, item.Key)
		}
	}
	if p.Reporter != nil {
		p.Reporter.Finish()
	}

	changes, err := p.Tracker.TrackChanges(trackerItems(items))
	if err != nil {
		return chunks, fmt.Errorf("seeding tracker: %w", err)
	}
	if err := p.Tracker.RecordUpdate("full", changes, true); err != nil {
		return chunks, fmt.Errorf("recording build: %w", err)
	}
	return chunks, nil
}

// Refresh diffs the scraped items against the tracked state and applies
// only the delta through the incremental updater. A delta-free run touches
// nothing and returns a nil result. The run is recorded in the tracker
// history either way.
func (p *Pipeline) Refresh(ctx context.Context, items []SourceItem) (*updater.Result, tracker.Changes, error) {
	changes, err := p.Tracker.TrackChanges(trackerItems(items))
	if err != nil {
		return nil, changes, fmt.Errorf("tracking changes: %w", err)
	}

	if len(changes.New) == 0 && len(changes.Modified) == 0 && len(changes.Deleted) == 0 {
		if err := p.Tracker.RecordUpdate("incremental", changes, true); err != nil {
			return nil, changes, fmt.Errorf("recording update: %w", err)
		}
		return nil, changes, nil
	}

	byKey := make(map[string]SourceItem, len(items))
	for _, item := range items {
		byKey[item.Key] = item
	}

	var added, modified []updater.SourceUpdate
	for _, key := range changes.New {
		added = append(added, updater.SourceUpdate{Key: key, Docs: p.chunkItem(byKey[key])})
	}
	for _, key := range changes.Modified {
		modified = append(modified, updater.SourceUpdate{Key: key, Docs: p.chunkItem(byKey[key])})
	}

	res, applyErr := p.Updater.Apply(ctx, added, modified, changes.Deleted)

	success := applyErr == nil && res.Success
	if err := p.Tracker.RecordUpdate("incremental", changes, success); err != nil {
		if applyErr == nil {
			applyErr = fmt.Errorf("recording update: %w", err)
		}
	}
	return res, changes, applyErr
}
