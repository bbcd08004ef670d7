// Package compiler provides the semantic core of the val compiler: a typed
// AST whose nodes validate their operands when they are built and emit
// stack-machine instructions when they are processed, together with the
// symbol table that owns scopes, storage slots, labels and loop contexts.
//
// Pipeline: source → Lex → Parse (builds the typed tree) → Generate → instruction listing
package compiler
