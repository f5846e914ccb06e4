package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunker(t *testing.T, maxTokens, overlapTokens int) *Chunker {
	t.Helper()
	tok, err := NewTokenizer()
	require.NoError(t, err)
	return NewChunker(tok, maxTokens, overlapTokens)
}

func TestSplit_Empty(t *testing.T) {
	c := newTestChunker(t, 512, 50)
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n  \n"))
}

func TestSplit_SingleParagraph(t *testing.T) {
	c := newTestChunker(t, 512, 50)
	text := "The quarterly revenue exceeded projections across all regions this year according to the finance team's consolidated report."

	pieces := c.Split(text)
	require.Len(t, pieces, 1)
	assert.Equal(t, text, pieces[0].Text)
	assert.Equal(t, 0, pieces[0].StartChar)
	assert.Equal(t, len(text), pieces[0].EndChar)
	assert.Positive(t, pieces[0].TokenCount)
}

func TestSplit_HeadingMergedWithBody(t *testing.T) {
	c := newTestChunker(t, 512, 50)
	text := "Refund Policy\nCustomers may request a full refund within thirty days of purchase provided the product is returned undamaged and with proof of payment."

	pieces := c.Split(text)
	require.Len(t, pieces, 1)
	assert.True(t, strings.HasPrefix(pieces[0].Text, "Refund Policy\nCustomers"))
}

func TestSplit_ShortParagraphsAccumulate(t *testing.T) {
	c := newTestChunker(t, 512, 50)
	// Each line is ten or more words so none is treated as a heading, yet
	// each is under thirty tokens, so they accumulate into one piece.
	lines := []string{
		"alpha beta gamma delta epsilon zeta eta theta iota kappa",
		"one two three four five six seven eight nine ten",
		"red orange yellow green blue indigo violet black white gray",
	}
	pieces := c.Split(strings.Join(lines, "\n"))
	require.Len(t, pieces, 1)
	for _, line := range lines {
		assert.Contains(t, pieces[0].Text, line)
	}
}

func TestSplit_LongParagraphWindowed(t *testing.T) {
	c := newTestChunker(t, 40, 10)
	words := make([]string, 200)
	for i := range words {
		words[i] = "analysis"
	}
	text := "prefix words to defeat the heading merge rule entirely here\n" + strings.Join(words, " ")

	pieces := c.Split(text)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, p.TokenCount, 40)
		assert.NotEmpty(t, p.Text)
	}
}

func TestSplit_SpansNonDecreasing(t *testing.T) {
	c := newTestChunker(t, 30, 5)
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("every sentence in this document carries exactly ten distinct words\n")
	}

	pieces := c.Split(b.String())
	require.NotEmpty(t, pieces)
	prev := 0
	for _, p := range pieces {
		assert.GreaterOrEqual(t, p.StartChar, prev)
		assert.Greater(t, p.EndChar, p.StartChar)
		prev = p.StartChar
	}
}

func TestSplit_OffsetsLocateText(t *testing.T) {
	c := newTestChunker(t, 512, 50)
	text := "Shipping Terms\nAll domestic orders ship within two business days and tracking numbers are emailed on dispatch to the address on file."

	pieces := c.Split(text)
	require.Len(t, pieces, 1)
	p := pieces[0]
	assert.Equal(t, p.Text, text[p.StartChar:p.EndChar])
}
