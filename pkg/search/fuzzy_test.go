package search

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestScore_Ladder(t *testing.T) {
	tests := []struct {
		name   string
		target string
		query  string
		want   float64
	}{
		{"exact", "filesystem", "filesystem", 1.0},
		{"exact case-insensitive", "FileSystem", "filesystem", 1.0},
		{"exact separator-normalized", "file_system", "file system", 1.0},
		{"exact dash-normalized", "file-system", "file_system", 1.0},
		{"substring", "the filesystem server", "filesystem", 0.9},
		{"word substring", "filesystem", "fil sys", 0.9},
		{"word prefix target-shorter", "fil", "filesystem", 0.7},
		{"typo one char off", "filesystem", "filesystwm", 0.5},
		{"truncated query is a substring", "filesystem", "filesyste", 0.9},
		{"no match", "filesystem", "database", 0},
		{"partial word miss", "filesystem tools", "file zzzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.target, tt.query); got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.target, tt.query, got, tt.want)
			}
		})
	}
}

func TestScore_EmptyInputs(t *testing.T) {
	for _, tt := range []struct{ target, query string }{
		{"", "query"},
		{"target", ""},
		{"", ""},
		{"target", "   "},
		{"target", "_-_"},
	} {
		if got := Score(tt.target, tt.query); got != 0 {
			t.Errorf("Score(%q, %q) = %v, want 0", tt.target, tt.query, got)
		}
	}
}

func TestScore_SingleCharWordsDropped(t *testing.T) {
	// "a" carries no signal; only "read" must match.
	if got := Score("read file", "a read"); got != 0.9 {
		t.Errorf("Score = %v, want 0.9 with the single-char word dropped", got)
	}
	// A query of only single-char words cannot match.
	if got := Score("read file", "a b"); got != 0 {
		t.Errorf("Score = %v, want 0 for single-char-only query", got)
	}
	// Multi-byte single characters are dropped the same way.
	if got := Score("read file", "é read"); got != 0.9 {
		t.Errorf("Score = %v, want 0.9 with the accented single-char word dropped", got)
	}
}

func TestScore_AllWordsMustMatch(t *testing.T) {
	if got := Score("browser navigate", "browser missing"); got != 0 {
		t.Errorf("Score = %v, want 0 when one query word matches nothing", got)
	}
}

func TestScore_TypoRules(t *testing.T) {
	tests := []struct {
		name   string
		target string
		query  string
		want   float64
	}{
		{"short words get no typo tolerance", "nav", "nvv", 0},
		{"two substitutions", "navigate", "nevigete", 0.5},
		{"three substitutions too many", "navigate", "nevigeta", 0},
		{"length diff of three too large", "navigate", "navigaxefoo", 0},
		{"one accented substitution counts as one", "navigate", "navigéte", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.target, tt.query); got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.target, tt.query, got, tt.want)
			}
		})
	}
}

func TestScore_MeanOverQueryWords(t *testing.T) {
	// "read" is a substring of "reader" (0.9); "writes" has "write" as a
	// prefix (0.7). Mean is 0.8.
	if got := Score("reader write", "read writes"); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Score = %v, want 0.8", got)
	}
}

func TestMatches(t *testing.T) {
	if !Matches("filesystem", "file") {
		t.Errorf("Matches(filesystem, file) = false")
	}
	if Matches("filesystem", "zzz") {
		t.Errorf("Matches(filesystem, zzz) = true")
	}
}

func TestBestFieldScore(t *testing.T) {
	got := BestFieldScore("shell",
		"run command",    // no match
		"shell executor", // substring
		"shell",          // exact
	)
	if got != 1.0 {
		t.Errorf("BestFieldScore = %v, want 1.0", got)
	}

	if got := BestFieldScore("zzz", "a", "b"); got != 0 {
		t.Errorf("BestFieldScore with no matching field = %v, want 0", got)
	}
}

func TestRank(t *testing.T) {
	candidates := []Candidate{
		{ID: "c", Fields: []string{"shell"}},
		{ID: "a", Fields: []string{"shell"}},
		{ID: "b", Fields: []string{"shell executor"}},
		{ID: "d", Fields: []string{"unrelated"}},
	}

	got := Rank("shell", candidates)
	if len(got) != 3 {
		t.Fatalf("got %d matches, want 3", len(got))
	}
	// Exact matches first, id ascending on ties; non-matches omitted.
	want := []Match{{ID: "a", Score: 1.0}, {ID: "c", Score: 1.0}, {ID: "b", Score: 0.9}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestScore_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-z_ -]{1,20}`).Draw(t, "s")

		// Any normalizable non-empty string matches itself exactly.
		if normalize(s) != "" {
			if got := Score(s, s); got != 1.0 {
				t.Fatalf("Score(%q, %q) = %v, want 1.0", s, s, got)
			}
		}

		// Scores stay within the ladder's range.
		q := rapid.StringMatching(`[a-z ]{0,10}`).Draw(t, "q")
		if got := Score(s, q); got < 0 || got > 1 {
			t.Fatalf("Score(%q, %q) = %v out of range", s, q, got)
		}
	})
}
