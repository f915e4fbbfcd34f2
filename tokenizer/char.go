package tokenizer

import "strings"

// CharTokenizer maps every distinct character of a corpus to an integer id.
// Ids are assigned in order of first appearance, so two scans of the same
// corpus produce the same mapping. The mapping is a bijection: every id in
// [0, VocabSize) decodes to exactly one character.
type CharTokenizer struct {
	idOf   map[rune]int
	runeOf []rune
}

// NewCharTokenizer builds a tokenizer by scanning text once.
// An empty corpus yields a vocabulary of size 0; callers are expected to
// reject that before training.
func NewCharTokenizer(text string) *CharTokenizer {
	t := &CharTokenizer{idOf: make(map[rune]int)}
	for _, r := range text {
		if _, ok := t.idOf[r]; !ok {
			t.idOf[r] = len(t.runeOf)
			t.runeOf = append(t.runeOf, r)
		}
	}
	return t
}

// FromChars rebuilds a tokenizer from an id-ordered character list, as
// persisted inside a checkpoint. chars[i] becomes the character for id i.
func FromChars(chars []rune) *CharTokenizer {
	t := &CharTokenizer{
		idOf:   make(map[rune]int, len(chars)),
		runeOf: make([]rune, len(chars)),
	}
	copy(t.runeOf, chars)
	for i, r := range chars {
		t.idOf[r] = i
	}
	return t
}

// Chars returns the characters in id order. The returned slice is a copy.
func (t *CharTokenizer) Chars() []rune {
	out := make([]rune, len(t.runeOf))
	copy(out, t.runeOf)
	return out
}

// ID returns the id for a single character.
func (t *CharTokenizer) ID(r rune) (int, bool) {
	id, ok := t.idOf[r]
	return id, ok
}

// Encode converts text to ids. Characters outside the vocabulary are
// skipped; the corpus the tokenizer was built from never contains any.
func (t *CharTokenizer) Encode(text string) []int {
	ids := make([]int, 0, len(text))
	for _, r := range text {
		if id, ok := t.idOf[r]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Decode converts ids back to a string. Out-of-range ids are skipped.
func (t *CharTokenizer) Decode(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		if id >= 0 && id < len(t.runeOf) {
			sb.WriteRune(t.runeOf[id])
		}
	}
	return sb.String()
}

// DecodeID converts a single id to its character.
func (t *CharTokenizer) DecodeID(id int) string {
	if id < 0 || id >= len(t.runeOf) {
		return ""
	}
	return string(t.runeOf[id])
}

// VocabSize returns the number of distinct characters.
func (t *CharTokenizer) VocabSize() int {
	return len(t.runeOf)
}
