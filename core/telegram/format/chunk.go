// Package format holds text helpers shared by the reply path.
package format

// MessageLimit is Telegram's maximum message length in characters.
const MessageLimit = 4096

// Chunk splits text into consecutive pieces of at most limit runes. Joining the
// pieces yields text again. Empty text yields no chunks and limit <= 0 returns
// text as a single chunk.
func Chunk(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []string{text}
	}
	chunks := make([]string, 0, len(text)/limit+1)
	start, n := 0, 0
	for i := range text {
		if n == limit {
			chunks = append(chunks, text[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(chunks, text[start:])
}
