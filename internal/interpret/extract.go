package interpret

import "strings"

// ExtractObject returns the text between the first '{' and the last '}'
// inclusive. The search is greedy: anything between two separate objects
// is kept, and the strict parse that follows rejects it.
func ExtractObject(text string) (string, bool) {
	return extract(text, '{', '}')
}

// ExtractList is ExtractObject for '[' ... ']'.
func ExtractList(text string) (string, bool) {
	return extract(text, '[', ']')
}

func extract(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
