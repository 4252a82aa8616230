package navigator

import (
	"errors"
	"testing"
)

type sheet struct {
	Name   string         `json:"name"`
	Secret string         `json:"-"`
	System map[string]any `json:"system"`
	Tags   []string
	hidden int
}

func TestResolveEmptyPathReturnsRoot(t *testing.T) {
	root := map[string]any{"key": "value"}
	got, err := Resolve(root, "  ")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if m, ok := got.(map[string]any); !ok || m["key"] != "value" {
		t.Fatalf("expected root for empty path, got %#v", got)
	}
}

func TestResolveDottedPath(t *testing.T) {
	root := map[string]any{
		"system": map[string]any{
			"attributes": map[string]any{"hp": map[string]any{"value": 7}},
		},
	}
	got, err := Resolve(root, "system.attributes.hp.value")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestResolveIndexes(t *testing.T) {
	root := map[string]any{
		"items": []any{"a", "b", "c"},
		"typed": []string{"x", "y"},
	}
	tests := []struct {
		path string
		want any
	}{
		{"items.1", "b"},
		{"items[2]", "c"},
		{"typed.0", "x"},
		{"typed[1]", "y"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Resolve(root, tt.path)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Fatalf("Resolve(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveStructFields(t *testing.T) {
	s := &sheet{
		Name:   "Goblin",
		Secret: "s",
		System: map[string]any{"level": 3},
		Tags:   []string{"small"},
		hidden: 1,
	}

	if got, ok := Lookup(s, "name"); !ok || got != "Goblin" {
		t.Fatalf("json tag lookup = %v, %v", got, ok)
	}
	if got, ok := Lookup(s, "Tags.0"); !ok || got != "small" {
		t.Fatalf("field name lookup = %v, %v", got, ok)
	}
	if got, ok := Lookup(s, "system.level"); !ok || got != 3 {
		t.Fatalf("nested map lookup = %v, %v", got, ok)
	}
	if _, ok := Lookup(s, "Secret"); ok {
		t.Fatal("fields tagged json:\"-\" must not resolve")
	}
	if _, ok := Lookup(s, "hidden"); ok {
		t.Fatal("unexported fields must not resolve")
	}
}

func TestResolveMissing(t *testing.T) {
	var nilSheet *sheet
	root := map[string]any{"a": map[string]any{"b": nil}, "n": nilSheet}
	for _, path := range []string{"missing", "a.c", "a.b.c", "n.name", "a.b.0"} {
		_, err := Resolve(root, path)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Resolve(%q) error = %v, want ErrNotFound", path, err)
		}
	}
}

func TestParsePath(t *testing.T) {
	got := ParsePath(`regions.asia["postal-code"][1]`)
	want := []string{"regions", "asia", `"postal-code"`, "1"}
	if len(got) != len(want) {
		t.Fatalf("ParsePath = %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParsePath[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
