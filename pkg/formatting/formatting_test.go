package formatting_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/JaimeStill/verdant/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"2048", 2048, false},
		{"10MB", 10 << 20, false},
		{"512 kb", 512 << 10, false},
		{"1.5KB", 1536, false},
		{"", 0, true},
		{"ten MB", 0, true},
		{"5XB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		prec int
		want string
	}{
		{0, 2, "0 B"},
		{512, 0, "512 B"},
		{1536, 1, "1.5 KB"},
		{3 << 20, 2, "3.00 MB"},
	}

	for _, tt := range tests {
		if got := formatting.FormatBytes(tt.n, tt.prec); got != tt.want {
			t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.prec, got, tt.want)
		}
	}
}

type advice struct {
	Severity string   `json:"severity"`
	Symptoms []string `json:"key_symptoms"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bare", `{"severity":"Low","key_symptoms":["spots"]}`},
		{"json fence", "```json\n{\"severity\":\"Low\",\"key_symptoms\":[\"spots\"]}\n```"},
		{"plain fence with prose", "Here you go:\n```\n{\"severity\":\"Low\",\"key_symptoms\":[\"spots\"]}\n```\nGood luck."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[advice](tt.content)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got.Severity != "Low" || len(got.Symptoms) != 1 || got.Symptoms[0] != "spots" {
				t.Errorf("got %+v", got)
			}
		})
	}

	t.Run("not json", func(t *testing.T) {
		_, err := formatting.Parse[advice]("I cannot help with that.")
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
		if strings.Contains(err.Error(), "cannot help") {
			t.Errorf("error carries content: %v", err)
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "leaf", 10, "leaf"},
		{"ascii", "abcdef", 3, "abc..."},
		{"cut inside rune", "ab\u00e9cd", 3, "ab..."},
		{"cut after rune", "ab\u00e9cd", 4, "ab\u00e9..."},
		{"cut inside emoji", "\U0001F33Fleaf", 2, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatting.Truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("invalid UTF-8: %q", got)
			}
		})
	}
}

func TestUnfence(t *testing.T) {
	if got := formatting.Unfence("  {\"a\":1}  "); got != `{"a":1}` {
		t.Errorf("Unfence bare = %q", got)
	}
	if got := formatting.Unfence("```json\n[1,2]\n```"); got != "[1,2]" {
		t.Errorf("Unfence fenced = %q", got)
	}
}
