package data

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkoukk/tiktoken-go"
)

// Prepare tokenizes a plain-text corpus with the GPT-2 BPE and writes
// train.bin, val.bin and meta.json into outDir. valFraction of the
// token stream (from the end) becomes the validation split.
func Prepare(inputPath, outDir string, valFraction float64) error {
	if valFraction <= 0 || valFraction >= 1 {
		return fmt.Errorf("data: val fraction %v must be in (0, 1)", valFraction)
	}
	text, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("data: read corpus: %w", err)
	}

	enc, err := tiktoken.GetEncoding("gpt2")
	if err != nil {
		return fmt.Errorf("data: load gpt2 encoding: %w", err)
	}
	ids := enc.EncodeOrdinary(string(text))
	if len(ids) < 2 {
		return fmt.Errorf("data: corpus produced only %d tokens", len(ids))
	}

	split := len(ids) - int(float64(len(ids))*valFraction)
	if split < 1 {
		split = 1
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("data: create output dir: %w", err)
	}
	if err := writeTokens(filepath.Join(outDir, "train.bin"), ids[:split]); err != nil {
		return err
	}
	if err := writeTokens(filepath.Join(outDir, "val.bin"), ids[split:]); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(meta{VocabSize: DefaultVocabSize})
	if err != nil {
		return fmt.Errorf("data: marshal meta.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "meta.json"), metaJSON, 0o644); err != nil {
		return fmt.Errorf("data: write meta.json: %w", err)
	}
	return nil
}

func writeTokens(path string, ids []int) error {
	buf := make([]byte, 2*len(ids))
	for i, id := range ids {
		if id < 0 || id > 0xFFFF {
			return fmt.Errorf("data: token %d out of uint16 range", id)
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(id))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("data: write %s: %w", filepath.Base(path), err)
	}
	return nil
}
