package main

import (
	"fmt"
	"os"

	"valc/pkg/compiler"
)

const testSource = `val x = 10;
char c = 'x';
while (x > 0) {
	print x, c;
	x -= 1;
}
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	syms := compiler.NewSymbolTable()
	root, err := compiler.Parse(tokens, src, syms)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("AST")
	compiler.Dump(os.Stdout, root, 1)
	fmt.Println()

	// code Generation
	listing, err := compiler.Generate(root, syms, compiler.DefaultOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Println("Generated Listing")
	fmt.Print(listing)
	fmt.Println()
	fmt.Print(syms)
}
