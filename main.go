package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"valc/pkg/asm"
	"valc/pkg/compiler"
)

func main() {
	inPath := flag.String("in", "", "input source file path")
	outPath := flag.String("out", "", "output listing path (default: input with .vasm extension, - for stdout)")
	noComments := flag.Bool("no-comments", false, "omit # traceability lines from the listing")
	trace := flag.Bool("trace", false, "trace scope and loop-stack activity to stderr")
	dump := flag.Bool("dump", false, "print the typed tree and symbol table to stderr")
	check := flag.Bool("check", true, "run the finished listing through the listing checker")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <file>")
		flag.Usage()
		os.Exit(2)
	}

	source, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	opts := compiler.Options{Comments: !*noComments}
	if *trace {
		opts.Trace = compiler.NewTracer(os.Stderr)
	}

	listing, err := compile(string(source), opts, *dump)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
		os.Exit(exitCode(err))
	}

	if *check {
		l, err := asm.Read(listing)
		if err != nil {
			fmt.Fprintf(os.Stderr, "listing check failed: %v\n", err)
			os.Exit(3)
		}
		fmt.Fprintf(os.Stderr, "checked %d instructions, %d labels\n", len(l.Instructions), len(l.Labels))
	}

	output := *outPath
	if output == "" {
		output = defaultOutputPath(*inPath)
	}
	if err := writeListing(output, listing); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write listing %q: %v\n", output, err)
		os.Exit(1)
	}
	if output != "-" {
		fmt.Printf("compiled %s -> %s\n", *inPath, output)
	}
}

func compile(src string, opts compiler.Options, dump bool) (string, error) {
	s := compiler.NewSession(opts)
	root, err := s.Parse(src)
	if err != nil {
		return "", err
	}
	if dump {
		compiler.Dump(os.Stderr, root, 0)
		fmt.Fprint(os.Stderr, s.Symbols())
	}
	return compiler.Generate(root, s.Symbols(), opts)
}

// exitCode separates problems in the program being compiled from
// failures of the compiler itself.
func exitCode(err error) int {
	if compiler.IsInternal(err) {
		return 3
	}
	var cerr *compiler.Error
	if errors.As(err, &cerr) {
		return 1
	}
	return 3
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".vasm"
	}
	return strings.TrimSuffix(inPath, ext) + ".vasm"
}

func writeListing(path, listing string) error {
	if path == "-" {
		_, err := io.WriteString(os.Stdout, listing)
		return err
	}
	return os.WriteFile(path, []byte(listing), 0o644)
}
