// Package chunker splits a text corpus into fixed-size word chunks.
//
// The output feeds the persona preamble: chunks are serialized as a
// JSON array of strings that the prompt composer can sample from.
// This is an offline preprocessing step, not part of the request path.
package chunker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultChunkSize is the number of words per chunk.
const DefaultChunkSize = 1000

// ErrEmptyCorpus indicates the input text contains no words.
var ErrEmptyCorpus = errors.New("corpus contains no words")

// Chunk splits text on whitespace into chunks of at most size words.
// The final chunk may be shorter. size values below 1 fall back to
// DefaultChunkSize.
func Chunk(text string, size int) []string {
	if size < 1 {
		size = DefaultChunkSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// ChunkFile reads the corpus at inPath, chunks it, and writes the
// result to outPath as an indented JSON array of strings.
// Returns the number of chunks written.
func ChunkFile(inPath, outPath string, size int) (int, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return 0, fmt.Errorf("reading corpus: %w", err)
	}

	chunks := Chunk(string(data), size)
	if len(chunks) == 0 {
		return 0, ErrEmptyCorpus
	}

	out, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding chunks: %w", err)
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return 0, fmt.Errorf("writing chunks: %w", err)
	}
	return len(chunks), nil
}

// Load reads a chunks file produced by ChunkFile.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunks file: %w", err)
	}

	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parsing chunks file: %w", err)
	}
	return chunks, nil
}
