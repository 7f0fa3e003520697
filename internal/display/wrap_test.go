package display

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestWrap(t *testing.T) {
	long := strings.Repeat("word ", 30)
	for _, line := range strings.Split(Wrap(long), "\n") {
		if len(line) > DefaultWidth {
			t.Errorf("line %q exceeds %d columns", line, DefaultWidth)
		}
	}
	testutil.AssertEqual(t, "short text untouched", Wrap("hello"), "hello")
}

func TestIndent(t *testing.T) {
	testutil.AssertEqual(t, "indented", Indent("hello", 2), "  hello")
}

func TestTitleName(t *testing.T) {
	tests := map[string]struct {
		in  string
		exp string
	}{
		"lowercase":  {in: "aragorn", exp: "Aragorn"},
		"shouting":   {in: "ARAGORN", exp: "Aragorn"},
		"mixed":      {in: "aRAgorN", exp: "Aragorn"},
		"padded":     {in: "  aragorn  ", exp: "Aragorn"},
		"already ok": {in: "Aragorn", exp: "Aragorn"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "name", TitleName(tt.in), tt.exp)
		})
	}
}

func TestCapitalize(t *testing.T) {
	testutil.AssertEqual(t, "word", Capitalize("north"), "North")
	testutil.AssertEqual(t, "empty", Capitalize(""), "")
	testutil.AssertEqual(t, "sentence", Capitalize("you move north."), "You move north.")
}
