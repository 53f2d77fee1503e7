package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adjutantlabs/adjutant/internal/chunker"
)

func newChunkCmd() *cobra.Command {
	var (
		out  string
		size int
	)
	cmd := &cobra.Command{
		Use:   "chunk <corpus.txt>",
		Short: "Split a text corpus into knowledge chunks",
		Long: `Chunk splits a plain-text corpus into word-bounded chunks and
writes them as a JSON array. The serve command loads the output via
the chunks_file setting and folds the first few chunks into the
session persona.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := chunker.ChunkFile(args[0], out, size)
			if err != nil {
				return fmt.Errorf("chunking %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d chunks to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "chunks.json", "output file")
	cmd.Flags().IntVarP(&size, "size", "s", chunker.DefaultChunkSize, "chunk size in words")
	return cmd
}
