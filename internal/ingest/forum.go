package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// forumThread is the JSON shape of one exported forum thread.
type forumThread struct {
	ThreadID string      `json:"thread_id"`
	Title    string      `json:"title"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
	Posts    []forumPost `json:"posts"`
}

type forumPost struct {
	Author  string `json:"author"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

func parseForumThread(data []byte) (*forumThread, error) {
	var thread forumThread
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil, fmt.Errorf("parsing forum thread: %w", err)
	}
	if thread.Title == "" && len(thread.Posts) == 0 {
		return nil, fmt.Errorf("forum thread has no title and no posts")
	}
	return &thread, nil
}

// toItem flattens the thread into one source item; each post becomes a
// paragraph so replies stay retrievable in context.
func (t *forumThread) toItem(key string) SourceItem {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(t.Title)
		sb.WriteString("\n\n")
	}
	for _, post := range t.Posts {
		if strings.TrimSpace(post.Content) == "" {
			continue
		}
		if post.Author != "" {
			sb.WriteString(post.Author)
			sb.WriteString(": ")
		}
		sb.WriteString(strings.TrimSpace(post.Content))
		sb.WriteString("\n\n")
	}
	return SourceItem{
		Key:      key,
		Title:    t.Title,
		Date:     t.Date,
		Category: t.Category,
		Content:  strings.TrimSpace(sb.String()),
	}
}
