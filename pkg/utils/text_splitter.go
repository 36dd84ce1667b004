package utils

import "strings"

// boundaries are tried in order when looking for a place to cut a chunk
var boundaries = []string{"\n\n", "\n", ". ", " "}

// SplitText splits text into chunks of at most chunkSize runes, each starting overlap runes
// before the previous one ended. Cuts prefer paragraph, line, sentence and word boundaries
// in the second half of the window and fall back to a hard cut. Blank chunks are dropped.
func SplitText(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func cutPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	half := len(window) / 2
	for _, sep := range boundaries {
		if i := strings.LastIndex(window, sep); i >= half {
			// i is a byte offset; convert back to runes
			return start + len([]rune(window[:i+len(sep)]))
		}
	}
	return end
}
