package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"valc/pkg/compiler"
)

const (
	banner      = "valc repl. Declarations persist between inputs. Type :help for commands."
	historyFile = ".valc_history"
	promptMain  = "val> "
	promptCont  = "...> "
)

func main() {
	noComments := flag.Bool("no-comments", false, "omit # traceability lines from listings")
	trace := flag.Bool("trace", false, "trace scope and loop-stack activity to stderr")
	flag.Parse()

	opts := compiler.Options{Comments: !*noComments, Check: true}
	if *trace {
		opts.Trace = compiler.NewTracer(os.Stderr)
	}
	os.Exit(repl(compiler.NewSession(opts)))
}

func repl(s *compiler.Session) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		src, ok := readStatement(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}

		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			if quit := handleCommand(os.Stdout, s, strings.TrimSpace(src)); quit {
				return 0
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		listing, err := s.Compile(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Print(listing)
	}
}

func handleCommand(w io.Writer, s *compiler.Session, cmd string) (quit bool) {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":syms":
		fmt.Fprint(w, s.Symbols())
	case ":help":
		fmt.Fprintln(w, ":syms   show scopes, slots and open loops")
		fmt.Fprintln(w, ":quit   leave the repl")
	default:
		fmt.Fprintln(w, "unknown command. Type :help for a list.")
	}
	return false
}

// readStatement keeps prompting while the input has unclosed braces or
// parentheses.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// incomplete reports whether src opens more groups than it closes. Input
// that does not lex is handed to the compiler so the error gets reported.
func incomplete(src string) bool {
	tokens, err := compiler.Lex(src)
	if err != nil {
		return false
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case compiler.LBRACE, compiler.LPAREN:
			depth++
		case compiler.RBRACE, compiler.RPAREN:
			depth--
		}
	}
	return depth > 0
}
