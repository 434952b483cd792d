// Package engine contains the command language of tinyrel.
//
// What: quote-aware splitting shared by the command parsers and the WHERE
// tokenizer, the WHERE expression parser and evaluator, the six commands and
// the Session that runs them against a storage.AnyDatabase.
// How: every command is parsed into a Command value first and only then
// executed; successfully executed command text is appended to the
// storage.CommandLog so that SAVE_AS and READ_FROM can replay it.
package engine

import "strings"

// SplitQuoted splits input on sep, ignoring separators inside double-quoted
// spans. Pieces are trimmed and empty pieces are dropped; quotes are kept.
func SplitQuoted(input string, sep rune) []string {
	var (
		out      []string
		start    int
		inQuotes bool
	)
	emit := func(piece string) {
		if p := strings.TrimSpace(piece); p != "" {
			out = append(out, p)
		}
	}
	for i, c := range input {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			emit(input[start:i])
			start = i + len(string(sep))
		}
	}
	emit(input[start:])
	return out
}

// SplitOnce splits input at the first sep, trims both halves and strips one
// pair of surrounding double quotes from each.
func SplitOnce(input string, sep string) (left, right string, ok bool) {
	left, right, ok = strings.Cut(input, sep)
	if !ok {
		return "", "", false
	}
	return Unquote(strings.TrimSpace(left)), Unquote(strings.TrimSpace(right)), true
}

// Unquote strips one pair of surrounding double quotes.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// lastWordOutsideQuotes returns the byte offset of the last occurrence of
// word as a whitespace-delimited token outside double quotes, or -1.
func lastWordOutsideQuotes(input, word string) int {
	found := -1
	forEachWord(input, func(start int, w string) bool {
		if w == word {
			found = start
		}
		return true
	})
	return found
}

// firstWordOutsideQuotes is lastWordOutsideQuotes for the first occurrence.
func firstWordOutsideQuotes(input, word string) int {
	found := -1
	forEachWord(input, func(start int, w string) bool {
		if w == word {
			found = start
			return false
		}
		return true
	})
	return found
}

// forEachWord calls fn for every whitespace-delimited word. Whitespace inside
// double quotes does not delimit. Returning false stops the walk.
func forEachWord(input string, fn func(start int, word string) bool) {
	inQuotes := false
	start := -1
	for i, c := range input {
		space := c == ' ' || c == '\t' || c == '\n' || c == '\r'
		if start < 0 {
			if !space {
				start = i
				if c == '"' {
					inQuotes = !inQuotes
				}
			}
			continue
		}
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if space && !inQuotes {
			if !fn(start, input[start:i]) {
				return
			}
			start = -1
		}
	}
	if start >= 0 {
		fn(start, input[start:])
	}
}

// cutWord splits input around the word starting at offset at.
func cutWord(input string, at int, word string) (before, after string) {
	return strings.TrimSpace(input[:at]), strings.TrimSpace(input[at+len(word):])
}
