package chat

import (
	"strings"
	"testing"
)

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		context []string
		want    string
	}{
		{
			name:    "no context",
			message: "hello",
			want:    "User: hello\nAssistant:",
		},
		{
			name:    "single passage",
			message: "hello",
			context: []string{"earlier exchange"},
			want:    "Context:\nearlier exchange\n\nUser: hello\nAssistant:",
		},
		{
			name:    "multiple passages joined by newline",
			message: "hello",
			context: []string{"one", "two", "three"},
			want:    "Context:\none\ntwo\nthree\n\nUser: hello\nAssistant:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := buildUserPrompt(tt.message, tt.context); got != tt.want {
				t.Errorf("buildUserPrompt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		passages []string
		budget   int
		want     []string
	}{
		{
			name:     "all fit",
			passages: []string{"aaa", "bbb"},
			budget:   100,
			want:     []string{"aaa", "bbb"},
		},
		{
			name:     "rank order wins when budget runs out",
			passages: []string{"aaaaa", "bbbbb", "ccccc"},
			budget:   11, // "aaaaa" + newline + "bbbbb" = 11, no room for more
			want:     []string{"aaaaa", "bbbbb"},
		},
		{
			name:     "first passage truncated when alone it overflows",
			passages: []string{"aaaaaaaaaa"},
			budget:   4,
			want:     []string{"aaaa"},
		},
		{
			name:     "later overflow drops rather than truncates",
			passages: []string{"aaa", "bbbbbbbbbb"},
			budget:   6,
			want:     []string{"aaa"},
		},
		{
			name:     "empty passages skipped",
			passages: []string{"", "aaa", ""},
			budget:   100,
			want:     []string{"aaa"},
		},
		{
			name:     "no passages",
			passages: nil,
			budget:   100,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := selectContext(tt.passages, tt.budget)
			if len(got) != len(tt.want) {
				t.Fatalf("selectContext = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("selectContext[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectContextDefaultBudget(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", DefaultContextCharBudget+100)
	got := selectContext([]string{long}, 0)
	if len(got) != 1 {
		t.Fatalf("selectContext returned %d passages, want 1", len(got))
	}
	if len(got[0]) != DefaultContextCharBudget {
		t.Errorf("truncated length = %d, want %d", len(got[0]), DefaultContextCharBudget)
	}
}

func TestTruncateRunesBoundary(t *testing.T) {
	t.Parallel()

	s := "héllo" // é is two bytes, starting at index 1
	got := truncateRunes(s, 2)
	if got != "h" {
		t.Errorf("truncateRunes(%q, 2) = %q, want %q", s, got, "h")
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("truncateRunes short input = %q, want unchanged", got)
	}
}
