package tokenizer

// Tokenizer is the common interface for all tokenizers in charlstm.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
	VocabSize() int
}
