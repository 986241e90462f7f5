package sanitize_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ErlanBelekov/taskboard/internal/sanitize"
)

func TestText_TrimsAndStripsBrackets(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
		{"plain", "plain"},
		{"\ttabbed\n", "tabbed"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitize.Text(tt.in); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmail_LowerCases(t *testing.T) {
	if got := sanitize.Email("  A@Example.COM "); got != "a@example.com" {
		t.Errorf("Email() = %q, want a@example.com", got)
	}
}

func TestTags_DropsEmptiesAndTruncates(t *testing.T) {
	in := []string{"A ", " b", "", "   ", strings.Repeat("x", 30)}
	want := []string{"A", "b", strings.Repeat("x", 20)}
	got := sanitize.Tags(in, 20)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestTags_EmptyInput(t *testing.T) {
	if got := sanitize.Tags(nil, 20); len(got) != 0 {
		t.Errorf("Tags(nil) = %v, want empty", got)
	}
}
