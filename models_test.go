package gptlb

import (
	"sort"
	"testing"
)

func TestPresetModels_DefaultFirst(t *testing.T) {
	models := PresetModels()
	if len(models) == 0 {
		t.Fatalf("PresetModels() should not be empty")
	}

	if models[0].ID != DefaultModelFullID {
		t.Fatalf("first model = %q, want %q", models[0].ID, DefaultModelFullID)
	}
	rest := make([]string, 0, len(models)-1)
	for _, m := range models[1:] {
		rest = append(rest, m.ID)
	}
	if !sort.StringsAreSorted(rest) {
		t.Fatalf("models after default should be sorted: %v", rest)
	}
}

func TestDefaultModel_IsSupported(t *testing.T) {
	if !IsSupportedModelID(DefaultModelID) {
		t.Fatalf("default model id %q should be supported", DefaultModelID)
	}
	if !IsSupportedModelID(DefaultModelFullID) {
		t.Fatalf("default model full id %q should be supported", DefaultModelFullID)
	}
}

func TestNormalizeModelID(t *testing.T) {
	cases := map[string]string{
		"chatgpt/codex/gpt-5.1":  "gpt-5.1",
		"opencode/codex/gpt-5.1": "gpt-5.1",
		"chatgpt/gpt-5.2":        "gpt-5.2",
		" gpt-5.1-codex ":        "gpt-5.1-codex",
	}
	for in, want := range cases {
		if got := NormalizeModelID(in); got != want {
			t.Fatalf("NormalizeModelID(%q)=%q, want %q", in, got, want)
		}
	}
	if IsSupportedModelID("gpt-4") {
		t.Fatalf("gpt-4 should not be supported")
	}
}
