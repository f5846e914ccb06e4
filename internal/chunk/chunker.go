package chunk

import (
	"strings"
)

// Piece is one token-bounded slice of the source text. StartChar/EndChar
// form a best-effort half-open byte range into the text handed to Split.
type Piece struct {
	Text       string
	StartChar  int
	EndChar    int
	TokenCount int
}

// Words shorter than this merge a line into the following one, keeping
// headings attached to the paragraph they introduce.
const headingWordLimit = 10

// Paragraphs below this token count accumulate into the rolling buffer
// rather than forcing a commit decision.
const shortParagraphTokens = 30

// Chunker splits text paragraph-wise, merging headings with their body,
// accumulating short paragraphs, and sliding a token window with overlap
// over paragraphs that exceed the budget on their own.
type Chunker struct {
	tok           *Tokenizer
	maxTokens     int
	overlapTokens int
}

func NewChunker(tok *Tokenizer, maxTokens, overlapTokens int) *Chunker {
	return &Chunker{tok: tok, maxTokens: maxTokens, overlapTokens: overlapTokens}
}

// Split chunks text into ordered pieces. Spans are non-decreasing; offsets
// are recovered by substring search from the previous chunk's end, with a
// proportional estimate when decoding altered the text.
func (c *Chunker) Split(text string) []Piece {
	paragraphs := mergeHeadings(strings.Split(strings.TrimSpace(text), "\n"))

	var (
		pieces    []Piece
		bufTokens []int
		cursor    int
	)

	flush := func() {
		if len(bufTokens) == 0 {
			return
		}
		chunkText := strings.TrimSpace(c.tok.Decode(bufTokens))
		start := strings.Index(text[cursor:], chunkText)
		if start >= 0 {
			start += cursor
		} else {
			start = cursor
		}
		end := start + len(chunkText)
		pieces = append(pieces, Piece{
			Text:       chunkText,
			StartChar:  start,
			EndChar:    end,
			TokenCount: len(bufTokens),
		})
		cursor = min(end, len(text))
		bufTokens = nil
	}

	for _, para := range paragraphs {
		paraTokens := c.tok.Encode(para)
		n := len(paraTokens)

		switch {
		case n >= c.maxTokens:
			// Over-long paragraph: slide a window with overlap.
			for start := 0; start < n; {
				end := min(start+c.maxTokens, n)
				sub := paraTokens[start:end]
				subText := strings.TrimSpace(c.tok.Decode(sub))
				if subText != "" {
					subStart := strings.Index(text[cursor:], subText)
					if subStart >= 0 {
						subStart += cursor
					} else {
						subStart = c.estimateOffset(text, start)
					}
					subEnd := subStart + len(subText)
					pieces = append(pieces, Piece{
						Text:       subText,
						StartChar:  subStart,
						EndChar:    subEnd,
						TokenCount: len(sub),
					})
					cursor = min(subEnd, len(text))
				}
				if end == n {
					break
				}
				start = end - c.overlapTokens
			}

		case n < shortParagraphTokens:
			bufTokens = append(bufTokens, paraTokens...)

		default:
			if len(bufTokens)+n > c.maxTokens {
				flush()
			}
			bufTokens = append(bufTokens, paraTokens...)
		}
	}

	flush()
	return pieces
}

// estimateOffset approximates a char position from a token index when the
// exact substring cannot be located.
func (c *Chunker) estimateOffset(text string, tokenIndex int) int {
	total := c.tok.Count(text)
	if total == 0 {
		return 0
	}
	return tokenIndex * len(text) / total
}

// mergeHeadings joins lines of fewer than headingWordLimit words with the
// following non-empty line and drops blank lines.
func mergeHeadings(lines []string) []string {
	var merged []string
	for i := 0; i < len(lines); {
		current := strings.TrimSpace(lines[i])
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if len(strings.Fields(current)) < headingWordLimit && next != "" {
				merged = append(merged, current+"\n"+next)
				i += 2
				continue
			}
		}
		if current != "" {
			merged = append(merged, current)
		}
		i++
	}
	return merged
}
