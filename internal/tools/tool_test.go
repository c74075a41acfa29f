// internal/tools/tool_test.go
package tools

import (
	"testing"
)

func TestRegistryOrderAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{name: "b"})
	reg.Register(&fixedTool{name: "a"})
	reg.Register(&fixedTool{name: "c"})

	if _, ok := reg.Get("a"); !ok {
		t.Fatal("registered tool not found")
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("unexpected lookup hit")
	}

	all := reg.All()
	if len(all) != 3 || all[0].Name() != "b" || all[1].Name() != "a" || all[2].Name() != "c" {
		t.Errorf("expected registration order, got %v", names(all))
	}
}

func TestRegistryReplaceKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{name: "a"})
	reg.Register(&fixedTool{name: "b"})
	replacement := &fixedTool{name: "a", result: "new"}
	reg.Register(replacement)

	all := reg.All()
	if len(all) != 2 || all[0].Name() != "a" {
		t.Fatalf("expected 2 tools with 'a' first, got %v", names(all))
	}
	got, _ := reg.Get("a")
	if got != replacement {
		t.Error("replacement not installed")
	}
}

func TestAsLLMTools(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{name: "lookup"})

	schema := reg.AsLLMTools()
	if len(schema) != 1 {
		t.Fatalf("expected 1 schema entry, got %d", len(schema))
	}
	if schema[0].Type != "function" || schema[0].Function.Name != "lookup" {
		t.Errorf("unexpected schema %+v", schema[0])
	}
	if len(schema[0].Function.Parameters) == 0 {
		t.Error("parameters not advertised")
	}
}

func names(ts []Tool) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name()
	}
	return out
}
