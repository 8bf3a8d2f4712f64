package textutil_test

import (
	"strings"
	"testing"

	"inkwell/internal/textutil"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Gates of Morning", "the_gates_of_morning"},
		{"Chapter 1: Dawn", "chapter_1_dawn"},
		{"  ", "untitled"},
		{"???", "untitled"},
		{"Book-1/Chapter_1", "book-1_chapter_1"},
	}
	for _, tc := range cases {
		if got := textutil.Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := textutil.SanitizeFileName(`a/b:c*d?"<>|`); got != "a-b-c-d" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
}

func TestExcerptCollapsesWhitespace(t *testing.T) {
	got := textutil.Excerpt("one\ntwo\t three", 80)
	if got != "one two three" {
		t.Fatalf("Excerpt = %q", got)
	}
	long := strings.Repeat("word ", 50)
	short := textutil.Excerpt(long, 10)
	if len([]rune(short)) != 13 || !strings.HasSuffix(short, "...") {
		t.Fatalf("expected truncated excerpt, got %q", short)
	}
}

func TestSummary(t *testing.T) {
	if got := textutil.Summary("a b c", 5); got != "a b c" {
		t.Fatalf("short summary = %q", got)
	}
	if got := textutil.Summary("a b c d e f", 3); got != "a b c..." {
		t.Fatalf("truncated summary = %q", got)
	}
}

func TestNormalizeBlankLines(t *testing.T) {
	in := "one\n\n\n\ntwo\r\n\r\nthree\n\n"
	want := "one\n\ntwo\n\nthree"
	if got := textutil.NormalizeBlankLines(in); got != want {
		t.Fatalf("NormalizeBlankLines = %q, want %q", got, want)
	}
}
