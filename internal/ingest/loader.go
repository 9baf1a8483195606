package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// SourceConfig describes one corpus directory to load.
type SourceConfig struct {
	Type    vectordb.SourceType
	Dir     string
	Include []string
	Exclude []string
}

// defaultIncludes per source type; forum exports arrive as JSON, long-form
// content as markdown or plain text.
func defaultIncludes(t vectordb.SourceType) []string {
	if t == vectordb.SourceForum {
		return []string{"**/*.json"}
	}
	return []string{"**/*.md", "**/*.txt"}
}

// LoadSources reads every configured corpus directory and returns the
// discovered items sorted by key. Unreadable or malformed files are skipped
// with a warning appended to warns; a single bad document never aborts a
// batch.
func LoadSources(sources []SourceConfig) (items []SourceItem, warns []string, err error) {
	for _, src := range sources {
		srcItems, srcWarns, err := loadSource(src)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, srcItems...)
		warns = append(warns, srcWarns...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, warns, nil
}

func loadSource(src SourceConfig) (items []SourceItem, warns []string, err error) {
	root, err := filepath.Abs(src.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve source dir %s: %w", src.Dir, err)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, []string{fmt.Sprintf("source dir %s does not exist, skipping", src.Dir)}, nil
	}

	include := src.Include
	if len(include) == 0 {
		include = defaultIncludes(src.Type)
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return nil // skip unreadable entries instead of aborting
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !matchesAny(relPath, include) || matchesAny(relPath, src.Exclude) {
			return nil
		}

		fileItems, err := loadFile(src.Type, path, relPath)
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", relPath, err))
			return nil
		}
		items = append(items, fileItems...)
		return nil
	})
	if walkErr != nil {
		return nil, warns, fmt.Errorf("walking %s: %w", src.Dir, walkErr)
	}
	return items, warns, nil
}

func loadFile(srcType vectordb.SourceType, path, relPath string) ([]SourceItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key := string(srcType) + "/" + filepath.ToSlash(relPath)

	if strings.EqualFold(filepath.Ext(path), ".json") {
		thread, err := parseForumThread(data)
		if err != nil {
			return nil, err
		}
		item := thread.toItem(key)
		item.SourceType = srcType
		return []SourceItem{item}, nil
	}

	var doc markdownDoc
	if strings.EqualFold(filepath.Ext(path), ".md") {
		doc = parseMarkdown(data)
	} else {
		doc = markdownDoc{Text: string(data)}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	title := doc.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return []SourceItem{{
		Key:        key,
		SourceType: srcType,
		Title:      title,
		Date:       doc.Date,
		Category:   doc.Category,
		Content:    doc.Text,
	}}, nil
}

// matchesAny reports whether relPath matches any of the glob patterns,
// trying the full relative path first and the bare filename second.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(normalized)); err == nil && matched {
			return true
		}
	}
	return false
}
