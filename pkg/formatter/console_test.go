package formatter

import (
	"errors"
	"strings"
	"testing"
)

func plainConsole() *Console {
	c := NewConsole()
	c.NoColor = true
	return c
}

func TestAnswerWithoutReportBlock(t *testing.T) {
	c := plainConsole()
	if got := c.Answer("Hi there!"); got != "Hi there!" {
		t.Errorf("expected verbatim answer, got %q", got)
	}
}

func TestAnswerKeepsReportAndSummary(t *testing.T) {
	c := plainConsole()
	in := "[Tool 'add' returned: 4]\n\nThe answer is 4."
	if got := c.Answer(in); got != in {
		t.Errorf("unstyled answer should round-trip, got %q", got)
	}
}

func TestErrorLine(t *testing.T) {
	c := plainConsole()
	got := c.Error(errors.New("backend unavailable"))
	if got != "Error: backend unavailable" {
		t.Errorf("unexpected error line: %q", got)
	}
}

func TestBannerNamesServerAndModel(t *testing.T) {
	c := plainConsole()
	banner := c.Banner("Calculator Server", "1.0.0", "gpt-oss:20b")
	for _, want := range []string{"Calculator Server", "1.0.0", "gpt-oss:20b"} {
		if !strings.Contains(banner, want) {
			t.Errorf("banner missing %q: %q", want, banner)
		}
	}
}

func TestStyledOutputStillContainsText(t *testing.T) {
	c := NewConsole()
	got := c.Answer("[Tool 'add' returned: 4]\n\nDone.")
	for _, want := range []string{"[Tool 'add' returned: 4]", "Done."} {
		if !strings.Contains(got, want) {
			t.Errorf("styled answer missing %q", want)
		}
	}
}
