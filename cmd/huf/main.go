// Command huf compresses files with Huffman coding.
//
// Usage:
//
//	huf encode [-o output] [-session file.json] [-v] file...
//	huf decode [-o output] [-v] file...
//	huf inspect [-codes] file...
//
// Encode writes <file>.huf next to each input; decode strips the
// suffix again. Multiple files are processed concurrently. The
// -session flag additionally writes the whole encoding session (bit
// string, code table, frequencies, build steps, tree) as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lanhtutoicao123/huffcodec/hufcodec"
	"github.com/lanhtutoicao123/huffcodec/huffman"
)

const artifactSuffix = ".huf"

func main() {
	log := logrus.New()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(log, os.Args[2:])
	case "decode":
		err = runDecode(log, os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  huf encode [-o output] [-session file.json] [-v] file...
  huf decode [-o output] [-v] file...
  huf inspect [-codes] file...`)
}

func runEncode(log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	output := fs.String("o", "", "output path (single input only)")
	sessionPath := fs.String("session", "", "write the encoding session as JSON to this path")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)

	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	files := fs.Args()
	if len(files) == 0 {
		return errors.New("encode: no input files")
	}
	if *output != "" && len(files) > 1 {
		return errors.New("encode: -o requires a single input file")
	}
	if *sessionPath != "" && len(files) > 1 {
		return errors.New("encode: -session requires a single input file")
	}

	var inTotal, outTotal atomic.Uint64

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in, out, err := encodeFile(log, file, *output, *sessionPath)
			if err != nil {
				return err
			}
			inTotal.Add(in)
			outTotal.Add(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	in, out := inTotal.Load(), outTotal.Load()
	p := message.NewPrinter(language.English)
	p.Printf("%d file(s): %d bytes in, %d bytes out (%.2f%%)\n",
		len(files), in, out, percent(out, in))
	return nil
}

func encodeFile(log *logrus.Logger, path, output, sessionPath string) (uint64, uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	res, err := hufcodec.Encode(data)
	if err != nil {
		return 0, 0, fmt.Errorf("encode %s: %w", path, err)
	}

	if output == "" {
		output = path + artifactSuffix
	}
	f, err := os.Create(output)
	if err != nil {
		return 0, 0, err
	}
	written, err := res.Artifact.WriteTo(f)
	if err != nil {
		f.Close()
		return 0, 0, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, 0, err
	}
	log.WithField("file", path).Debugf("encoded %d bytes into %d (%.2f%%)",
		len(data), written, percent(uint64(written), uint64(len(data))))

	if sessionPath != "" {
		doc, err := json.MarshalIndent(newSession(res), "", "  ")
		if err != nil {
			return 0, 0, fmt.Errorf("session %s: %w", sessionPath, err)
		}
		if err := os.WriteFile(sessionPath, doc, 0o644); err != nil {
			return 0, 0, err
		}
		log.WithField("file", sessionPath).Debug("wrote encoding session")
	}

	return uint64(len(data)), uint64(written), nil
}

func runDecode(log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	output := fs.String("o", "", "output path (single input only)")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)

	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	files := fs.Args()
	if len(files) == 0 {
		return errors.New("decode: no input files")
	}
	if *output != "" && len(files) > 1 {
		return errors.New("decode: -o requires a single input file")
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return decodeFile(log, file, *output)
		})
	}
	return g.Wait()
}

func decodeFile(log *logrus.Logger, path, output string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	var a hufcodec.Artifact
	read, err := a.ReadFrom(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	data, err := hufcodec.Decode(&a)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if output == "" {
		output = decodedName(path)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	log.WithField("file", path).Debugf("decoded %d bytes into %d", read, len(data))
	return nil
}

// decodedName strips the artifact suffix, falling back to .out when
// the input does not carry it.
func decodedName(path string) string {
	if out := strings.TrimSuffix(path, artifactSuffix); out != path {
		return out
	}
	return path + ".out"
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	codes := fs.Bool("codes", false, "dump the code table")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("inspect: no input files")
	}

	p := message.NewPrinter(language.English)
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		var a hufcodec.Artifact
		read, err := a.ReadFrom(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("inspect %s: %w", path, err)
		}

		p.Printf("%s: %d bytes original, %d bits packed, crc32 %08x, %d codes (%.2f%%)\n",
			path, a.OrigLen, a.BitLen, a.Checksum, len(a.Codes),
			percent(uint64(read), a.OrigLen))

		if *codes {
			symbols := make([]huffman.Symbol, 0, len(a.Codes))
			for sym := range a.Codes {
				symbols = append(symbols, sym)
			}
			sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
			for _, sym := range symbols {
				fmt.Printf("  %#02x %-6q %s\n", sym, rune(sym), a.Codes[sym])
			}
		}
	}
	return nil
}

func percent(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
