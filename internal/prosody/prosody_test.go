package prosody

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain sentences", in: "Hello there. How are you?", want: "Hello there. How are you?"},
		{name: "missing spaces after punctuation", in: "Wait,what? Really!Yes.", want: "Wait, what? Really! Yes."},
		{name: "comma spacing", in: "a,b ,  c", want: "a, b , c"},
		{name: "collapses whitespace", in: "  spaced   out  ", want: "spaced out"},
		{name: "trailing period kept", in: "End.", want: "End."},
		{name: "exclamation gap", in: "Hi!  there", want: "Hi! there"},
		{name: "non latin", in: "你好", want: "你好"},
		{
			name: "long sentence gets a pause",
			in:   "one two three four five six seven eight nine ten and eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone",
			want: "one two three four five six seven eight nine ten and, eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone",
		},
		{
			name: "connectives before index nine are skipped",
			in:   "and so but one two three four five six seven eight nine ten but eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty",
			want: "and so but one two three four five six seven eight nine ten but, eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty",
		},
		{
			name: "only the long chunk is touched and match is case insensitive",
			in:   "Short one. one two three four five six seven eight nine ten So eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty and more",
			want: "Short one. one two three four five six seven eight nine ten So, eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty and more",
		},
		{
			name: "twenty words is not long",
			in:   "one two three four five six seven eight nine ten and eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen",
			want: "one two three four five six seven eight nine ten and eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_ConnectiveAtIndexEightIgnored(t *testing.T) {
	words := make([]string, 21)
	for i := range words {
		words[i] = "w"
	}
	words[8] = "and"
	words[10] = "because"

	got := strings.Fields(Normalize(strings.Join(words, " ")))
	assert.Equal(t, "and", got[8])
	assert.Equal(t, "because,", got[10])
}

func TestNormalize_SinglePeriodlessRun(t *testing.T) {
	// Without periods the whole text is one chunk and only one pause is added.
	in := strings.Repeat("alpha beta gamma delta epsilon then ", 10)
	got := Normalize(in)
	assert.Equal(t, 1, strings.Count(got, "then,"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello there. How are you?",
		"Wait,what?Really!   Yes.  No.\tMaybe",
		"a , b,c ,d",
		"Line one.\nLine two!\n\nLine three?",
		"It costs 3.50 dollars, ok?",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

var nonLetters = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func words(s string) []string {
	return strings.Fields(nonLetters.ReplaceAllString(s, " "))
}

func TestNormalize_PreservesWords(t *testing.T) {
	inputs := []string{
		"Hello there. How are you?",
		"one two three four five six seven eight nine ten and eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone",
		"Wait,what?Really!   Yes.  No.\tMaybe",
		"你好, 世界. 再见!",
	}
	for _, in := range inputs {
		assert.Equal(t, words(in), words(Normalize(in)), "input %q", in)
	}
}

func TestNormalize_ASCIISeparatorsAreWhitespace(t *testing.T) {
	assert.Equal(t, "x y. z w", Normalize("x\x1cy. z\x1fw"))
	assert.Equal(t, "a. b", Normalize("a.\x1db"))
}

func TestBlank(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n\v\f\r", true},
		{"  \x1c\x1f", true},
		{"a", false},
		{" . ", false},
		{"  你好 ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Blank(tt.in), "Blank(%q)", tt.in)
		if tt.want {
			assert.Empty(t, Normalize(tt.in), "Normalize(%q)", tt.in)
		}
	}
}
