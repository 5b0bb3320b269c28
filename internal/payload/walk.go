package payload

import (
	"encoding/json"
	"sort"
)

// Walk limits for FindSongLike.
const (
	DefaultMaxDepth = 8
	DefaultMaxNodes = 5000
)

// WalkLimits bounds a tree walk.
type WalkLimits struct {
	MaxDepth int
	MaxNodes int
	MaxFound int
}

// FindSongLike walks an arbitrary JSON document depth-first, visiting object
// keys in sorted order, and collects objects that look like songs: an "id"
// plus a "name" or "title", and either a "type" of "song" or playable fields.
// Matches are not descended into.
// The walk stops at the configured depth, node and result budgets.
func FindSongLike(raw []byte, limits WalkLimits) []json.RawMessage {
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = DefaultMaxDepth
	}
	if limits.MaxNodes <= 0 {
		limits.MaxNodes = DefaultMaxNodes
	}

	var root any
	if err := codec.Unmarshal(raw, &root); err != nil {
		return nil
	}

	w := &walker{limits: limits, seen: make(map[string]struct{})}
	w.visit(root, 0)
	return w.found
}

type walker struct {
	limits WalkLimits
	nodes  int
	seen   map[string]struct{}
	found  []json.RawMessage
}

func (w *walker) done() bool {
	if w.nodes >= w.limits.MaxNodes {
		return true
	}
	return w.limits.MaxFound > 0 && len(w.found) >= w.limits.MaxFound
}

func (w *walker) visit(node any, depth int) {
	if w.done() || depth > w.limits.MaxDepth {
		return
	}
	w.nodes++

	switch v := node.(type) {
	case []any:
		for _, child := range v {
			if w.done() {
				return
			}
			w.visit(child, depth+1)
		}
	case map[string]any:
		if id, ok := songID(v); ok {
			if _, dup := w.seen[id]; !dup {
				if b, err := codec.Marshal(v); err == nil {
					w.seen[id] = struct{}{}
					w.found = append(w.found, b)
				}
			}
			return
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if w.done() {
				return
			}
			w.visit(v[k], depth+1)
		}
	}
}

func songID(obj map[string]any) (string, bool) {
	id, _ := obj["id"].(string)
	if id == "" {
		return "", false
	}
	_, hasName := obj["name"].(string)
	_, hasTitle := obj["title"].(string)
	if !hasName && !hasTitle {
		return "", false
	}
	if t, _ := obj["type"].(string); t == "song" {
		return id, true
	}
	for _, key := range []string{"downloadUrl", "duration", "more_info", "perma_url"} {
		if _, ok := obj[key]; ok {
			return id, true
		}
	}
	return "", false
}
