// Package chunk splits extracted text into token-bounded, structure-aware
// pieces for embedding.
package chunk

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const encodingName = "cl100k_base"

// Tokenizer wraps a BPE encoding. The offline loader keeps startup free of
// network fetches for the encoding tables.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

func NewTokenizer() (*Tokenizer, error) {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

func (t *Tokenizer) Count(text string) int {
	return len(t.Encode(text))
}
