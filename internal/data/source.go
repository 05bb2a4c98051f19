// Package data loads pre-tokenized corpora and samples training batches.
//
// A dataset directory holds train.bin and val.bin (little-endian uint16
// token IDs) and optionally meta.json declaring the tokenizer's vocab
// size. Both shards are loaded into memory once; sampling is a slice
// copy, never file I/O.
package data

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// DefaultVocabSize is used when the dataset ships no meta.json. It is
// the GPT-2 vocabulary rounded up to a multiple of 64.
const DefaultVocabSize = 50304

const (
	TrainSplit = "train"
	ValSplit   = "val"
)

type meta struct {
	VocabSize int `json:"vocab_size"`
}

// Source samples fixed-geometry batches from an in-memory token corpus.
type Source struct {
	train     []uint16
	val       []uint16
	vocabSize int
	rng       *rand.Rand
}

// Open loads train.bin, val.bin and the optional meta.json from dir.
// The seed fixes the batch sampling sequence for reproducible runs.
func Open(dir string, seed int64) (*Source, error) {
	train, err := readTokens(filepath.Join(dir, "train.bin"))
	if err != nil {
		return nil, err
	}
	val, err := readTokens(filepath.Join(dir, "val.bin"))
	if err != nil {
		return nil, err
	}

	vocabSize := DefaultVocabSize
	metaBytes, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	switch {
	case err == nil:
		var m meta
		if err := json.Unmarshal(metaBytes, &m); err != nil {
			return nil, fmt.Errorf("data: parse meta.json: %w", err)
		}
		if m.VocabSize <= 0 {
			return nil, fmt.Errorf("data: meta.json vocab_size %d must be positive", m.VocabSize)
		}
		vocabSize = m.VocabSize
	case errors.Is(err, os.ErrNotExist):
		// fall back to the GPT-2 default
	default:
		return nil, fmt.Errorf("data: read meta.json: %w", err)
	}

	return &Source{
		train:     train,
		val:       val,
		vocabSize: vocabSize,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// VocabSize returns the tokenizer vocabulary size for this dataset.
func (s *Source) VocabSize() int { return s.vocabSize }

// Tokens returns the number of tokens in a split.
func (s *Source) Tokens(split string) int { return len(s.split(split)) }

func (s *Source) split(name string) []uint16 {
	if name == ValSplit {
		return s.val
	}
	return s.train
}

// Batch samples b random windows of t tokens from the split and returns
// flattened inputs with targets shifted one position ahead.
func (s *Source) Batch(split string, b, t int) (inputs, targets []int32, err error) {
	tokens := s.split(split)
	if len(tokens) < t+1 {
		return nil, nil, fmt.Errorf("data: split %q has %d tokens, need at least %d", split, len(tokens), t+1)
	}
	inputs = make([]int32, b*t)
	targets = make([]int32, b*t)
	for row := 0; row < b; row++ {
		start := s.rng.Intn(len(tokens) - t)
		for j := 0; j < t; j++ {
			inputs[row*t+j] = int32(tokens[start+j])
			targets[row*t+j] = int32(tokens[start+j+1])
		}
	}
	return inputs, targets, nil
}

func readTokens(path string) ([]uint16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("data: read %s: %w", filepath.Base(path), err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("data: %s has odd length %d", filepath.Base(path), len(raw))
	}
	tokens := make([]uint16, len(raw)/2)
	for i := range tokens {
		tokens[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return tokens, nil
}
