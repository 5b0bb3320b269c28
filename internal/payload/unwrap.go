// Package payload extracts result records from catalog responses whose shape
// varies between endpoints and API mirrors.
package payload

import (
	"encoding/json"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Path is a sequence of object keys. The empty path addresses the root.
type Path []string

// ParsePath splits a dotted path such as "data.results".
func ParsePath(dotted string) Path {
	if dotted == "" {
		return Path{}
	}
	return Path(strings.Split(dotted, "."))
}

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	return strings.Join(p, ".")
}

// ResultPaths is the priority order in which song arrays are looked up.
var ResultPaths = []Path{
	ParsePath("data.results"),
	ParsePath("results"),
	ParsePath("data.songs"),
	ParsePath("songs"),
	ParsePath("data"),
	ParsePath(""),
}

// UnwrapResultArray returns the elements of the first non-empty array found
// at paths, tried in order. Elements are returned undecoded. Malformed input
// yields nil.
func UnwrapResultArray(raw []byte, paths []Path) []json.RawMessage {
	for _, p := range paths {
		node, ok := lookup(raw, p)
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := codec.Unmarshal(node, &items); err != nil {
			continue
		}
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

// HasResults reports whether any of ResultPaths holds a non-empty array.
func HasResults(raw []byte) bool {
	return len(UnwrapResultArray(raw, ResultPaths)) > 0
}

func lookup(raw []byte, p Path) (json.RawMessage, bool) {
	node := json.RawMessage(raw)
	for _, key := range p {
		var obj map[string]json.RawMessage
		if err := codec.Unmarshal(node, &obj); err != nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, len(node) > 0
}
