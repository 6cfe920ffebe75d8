// Package prosody reshapes input text so speech engines pause where a human
// reader would.
//
// Normalization only touches punctuation and spacing; the words themselves
// are never altered, added or reordered.
package prosody

import (
	"regexp"
	"strings"
	"unicode"
)

// space matches unicode.IsSpace plus the ASCII separators U+001C..U+001F,
// which Python's str.split treats as whitespace.
const space = `[\t\n\v\f\r\x1c-\x1f\x{85}\p{Z}]`

const (
	sentenceSep   = ". "
	longSentence  = 20
	minBreakIndex = 8
)

var (
	periodGap  = regexp.MustCompile(`\.` + space + `+`)
	commaGap   = regexp.MustCompile(`,` + space + `*`)
	exclaimGap = regexp.MustCompile(`([!?])` + space + `*`)

	connectives = map[string]bool{"and": true, "but": true, "so": true, "then": true, "because": true}
)

// Normalize applies the pause-shaping rules to text:
//
//  1. a period followed by whitespace becomes a period and two spaces;
//  2. a comma followed by optional whitespace becomes a comma and one space;
//  3. '!' or '?' followed by optional whitespace gets two spaces;
//  4. for every ". "-delimited chunk longer than 20 words, the first
//     connective (and, but, so, then, because) after word 8 gets a comma.
//
// Step 4 rebuilds each chunk from its whitespace-separated words, so runs of
// spaces inside a chunk collapse to one.
func Normalize(text string) string {
	text = periodGap.ReplaceAllString(text, ".  ")
	text = commaGap.ReplaceAllString(text, ", ")
	text = exclaimGap.ReplaceAllString(text, "${1}  ")

	chunks := strings.Split(text, sentenceSep)
	for i, chunk := range chunks {
		words := strings.FieldsFunc(chunk, isSpace)
		if len(words) > longSentence {
			for j, w := range words {
				if j > minBreakIndex && connectives[strings.ToLower(w)] {
					words[j] = w + ","
					break
				}
			}
		}
		chunks[i] = strings.Join(words, " ")
	}
	return strings.Join(chunks, sentenceSep)
}

// Blank reports whether text normalizes to nothing, i.e. it holds no words.
func Blank(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool { return !isSpace(r) }) < 0
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
