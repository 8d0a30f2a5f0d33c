package normalize

import (
	"reflect"
	"testing"

	"threadstate/internal/types"
)

func TestSummarizeCommandRecognizesReads(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []types.ExploreEntry
	}{
		{
			name:    "cat",
			command: "cat README.md",
			want:    []types.ExploreEntry{{Kind: types.ExploreRead, Label: "README.md"}},
		},
		{
			name:    "sed_range",
			command: "sed -n '1,200p' internal/app/model.go",
			want:    []types.ExploreEntry{{Kind: types.ExploreRead, Label: "internal/app/model.go"}},
		},
		{
			name:    "nl_piped_to_sed",
			command: "nl -ba src/main.go | sed -n '10,40p'",
			want:    []types.ExploreEntry{{Kind: types.ExploreRead, Label: "src/main.go"}},
		},
		{
			name:    "rg_files",
			command: "rg --files src",
			want:    []types.ExploreEntry{{Kind: types.ExploreList, Label: "src"}},
		},
		{
			name:    "rg_glob_value_is_not_a_path",
			command: "rg -n -g '*.go' TODO internal",
			want:    []types.ExploreEntry{{Kind: types.ExploreSearch, Label: "TODO", Detail: "internal"}},
		},
		{
			name:    "quoted_pipe_is_not_split",
			command: `rg "foo|bar" src`,
			want:    []types.ExploreEntry{{Kind: types.ExploreSearch, Label: "foo|bar", Detail: "src"}},
		},
		{
			name:    "shell_wrapper_unwrapped",
			command: `/bin/zsh -lc 'cat a.go && cat b.go'`,
			want: []types.ExploreEntry{
				{Kind: types.ExploreRead, Label: "a.go"},
				{Kind: types.ExploreRead, Label: "b.go"},
			},
		},
		{
			name:    "repeated_entries_deduped",
			command: "cat a.go && sed -n '1,5p' a.go",
			want:    []types.ExploreEntry{{Kind: types.ExploreRead, Label: "a.go"}},
		},
		{
			name:    "cd_prefix",
			command: "cd repo && ls",
			want:    []types.ExploreEntry{{Kind: types.ExploreList, Label: "."}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SummarizeCommand(tc.command)
			if !ok {
				t.Fatalf("SummarizeCommand(%q) not recognized", tc.command)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SummarizeCommand(%q) = %#v, want %#v", tc.command, got, tc.want)
			}
		})
	}
}

func TestSummarizeCommandRejectsUnrecognized(t *testing.T) {
	for _, command := range []string{
		"",
		"go test ./...",
		"cat a.go; rm -rf /",
		"cat a.go || true",
		"cat a.go > b.go",
		"rg foo | xargs rm",
		"sed -i 's/a/b/' file.go",
		"echo $(cat secret)",
		"cat 'unterminated",
	} {
		if entries, ok := SummarizeCommand(command); ok {
			t.Fatalf("expected %q to stay raw, got %#v", command, entries)
		}
	}
}

func TestFoldExplorationsMergesConsecutiveRuns(t *testing.T) {
	items := []types.ConversationItem{
		{ID: "u1", Kind: types.ItemKindMessage, Role: types.RoleUser, Text: "look"},
		{ID: "c1", Kind: types.ItemKindExplore, Status: types.ExploreStatusExplored, Entries: []types.ExploreEntry{{Kind: types.ExploreRead, Label: "a.go"}}},
		{ID: "c2", Kind: types.ItemKindExplore, Status: types.ExploreStatusExploring, Entries: []types.ExploreEntry{{Kind: types.ExploreRead, Label: "a.go"}, {Kind: types.ExploreSearch, Label: "foo"}}},
		{ID: "t1", Kind: types.ItemKindTool, Title: "Command: go test"},
		{ID: "c3", Kind: types.ItemKindExplore, Status: types.ExploreStatusExplored, Entries: []types.ExploreEntry{{Kind: types.ExploreList, Label: "."}}},
	}
	folded := FoldExplorations(items)
	if len(folded) != 4 {
		t.Fatalf("expected 4 items after folding, got %d: %#v", len(folded), folded)
	}
	first := folded[1]
	if first.ID != "c1" || len(first.Entries) != 2 || first.Status != types.ExploreStatusExploring {
		t.Fatalf("unexpected folded item: %#v", first)
	}
	if len(items[1].Entries) != 1 {
		t.Fatalf("expected input items to stay untouched, got %#v", items[1])
	}
	if folded[3].ID != "c3" {
		t.Fatalf("expected separated explore run to stay separate, got %#v", folded[3])
	}
}
