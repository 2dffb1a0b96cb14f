package format

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text returned when a document is absent or has no usable items.
const (
	NoClusters        = "No clusters found or invalid response."
	NoWhoami          = "No whoami data found."
	NoAddons          = "No addons found or invalid response."
	NoServiceClusters = "No service clusters found or invalid response."
)

// missing is rendered for every absent or null field.
const missing = "N/A"

// Clusters renders a cluster list document.
func Clusters(doc json.RawMessage) string {
	items, ok := listItems(doc)
	if !ok {
		return NoClusters
	}
	return renderBlocks(items, func(b *strings.Builder, item map[string]any) {
		line(b, "Cluster: ", field(item, "name"))
		line(b, "  ID: ", field(item, "id"))
		line(b, "  API URL: ", field(item, "api", "url"))
		line(b, "  Console URL: ", field(item, "console", "url"))
	})
}

// Whoami renders the current account document.
func Whoami(doc json.RawMessage) string {
	obj, ok := object(doc)
	if !ok || len(obj) == 0 {
		return NoWhoami
	}
	var b strings.Builder
	line(&b, "Username: ", field(obj, "username"))
	line(&b, "  ID: ", field(obj, "id"))
	return b.String()
}

// Addons renders a cluster addon list document. Only the addon "name" field is read.
func Addons(doc json.RawMessage) string {
	items, ok := listItems(doc)
	if !ok {
		return NoAddons
	}
	return renderBlocks(items, func(b *strings.Builder, item map[string]any) {
		line(b, "Addon: ", field(item, "name"))
		line(b, "  State: ", field(item, "state"))
	})
}

// ServiceClusters renders a fleet manager service cluster list document.
func ServiceClusters(doc json.RawMessage) string {
	items, ok := listItems(doc)
	if !ok {
		return NoServiceClusters
	}
	return renderBlocks(items, func(b *strings.Builder, item map[string]any) {
		line(b, "Cluster: ", field(item, "name"))
		line(b, "  ID: ", field(item, "id"))
		line(b, "  STATUS: ", field(item, "status"))
		line(b, "  SECTOR: ", field(item, "sector"))
		line(b, "  CREATION_TIMESTAMP: ", field(item, "creation_timestamp"))
	})
}

// IsEmpty reports whether doc carries no data: absent, malformed, null,
// an empty object or array, an empty string, zero or false.
func IsEmpty(doc json.RawMessage) bool {
	v, ok := decode(doc)
	return !ok || !truthy(v)
}

// HasID reports whether doc is an object with a non-empty "id".
func HasID(doc json.RawMessage) bool {
	obj, ok := object(doc)
	return ok && truthy(obj["id"])
}

// WrapItems builds the list document {"items":[doc]} so a single resource
// can be rendered by a list formatter.
func WrapItems(doc json.RawMessage) json.RawMessage {
	var b bytes.Buffer
	b.WriteString(`{"items":[`)
	b.Write(doc)
	b.WriteString(`]}`)
	return b.Bytes()
}

func renderBlocks(items []any, render func(*strings.Builder, map[string]any)) string {
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		// Non-object items are still listed, with every field missing.
		obj, _ := it.(map[string]any)
		var b strings.Builder
		render(&b, obj)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(value)
	b.WriteByte('\n')
}

// listItems returns the non-empty "items" array of an object document.
func listItems(doc json.RawMessage) ([]any, bool) {
	obj, ok := object(doc)
	if !ok {
		return nil, false
	}
	items, ok := obj["items"].([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	return items, true
}

func object(doc json.RawMessage) (map[string]any, bool) {
	v, ok := decode(doc)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func decode(doc json.RawMessage) (any, bool) {
	if len(doc) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return v, true
}

// field walks a path of object keys and renders the value found there.
func field(obj map[string]any, path ...string) string {
	var v any = obj
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return missing
		}
		v = m[key]
	}
	return scalar(v)
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return missing
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return missing
		}
		return string(raw)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
