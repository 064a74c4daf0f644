// Command reconstruct runs block reconstruction on one file offline and
// prints the resulting document model as JSON.
//
//	reconstruct [-images] [-indent] <file>
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/idgen"
	"github.com/dgallion1/pdfread/internal/parser"
	"github.com/dgallion1/pdfread/internal/pipeline"
	"github.com/dgallion1/pdfread/internal/reconstruct"
)

type output struct {
	*docmodel.Document
	Report reconstruct.Report `json:"report"`
}

func main() {
	images := flag.Bool("images", false, "extract raster images from PDFs")
	indent := flag.Bool("indent", false, "indent JSON output")
	verbose := flag.Bool("v", false, "log skipped spans and blocks to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-images] [-indent] [-v] <file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), os.Stdout, flag.Arg(0), *images, *indent, log); err != nil {
		log.Error("reconstruct failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, path string, images, indent bool, log *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	p, err := parser.ForFile(path, parser.Options{ExtractImages: images})
	if err != nil {
		return err
	}
	src, err := p.Parse(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer src.Close()

	docID := pipeline.ContentHashHex(data)[:8]
	doc, rep, err := reconstruct.NewAssembler(idgen.Sequence(docID), log).Assemble(ctx, docID, src)
	if err != nil {
		return err
	}
	doc.Filename = filepath.Base(path)
	doc.ContentHash = pipeline.ContentHashHex(data)

	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(output{Document: doc, Report: rep})
}
