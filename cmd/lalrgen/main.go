/*
Lalrgen reads a grammar file with embedded semantic actions and emits an
LALR(1) parser driver plus a human-readable report of the underlying LR
automaton.

Usage:

	lalrgen [flags] grammar-file

The flags are:

	-b
		Report only basis configurations in the .out report, not the full
		closure.

	-c
		Disable default-action table compression.

	-d DIR
		Output directory. Output files use the grammar file's basename.

	-g
		Reprint the grammar (symbol cross-reference and rule list) and do
		nothing else.

	-m
		Emit a separate token-define header file instead of folding the
		defines into the generated source.

	-q
		Suppress the .out report.

	-s
		Print terminal/nonterminal/rule/state/conflict counts to stdout.

	-t PATH
		Explicit template file path.

	-x, --version
		Print the version and exit.

	--cache PATH
		Cache the packed action table at PATH, keyed by a hash of the
		grammar source, so a repeat run over an unchanged grammar skips
		re-deriving it.

Exit status is errorcnt + conflictcnt.
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/cache"
	"github.com/dekarrin/lalrgen/internal/config"
	"github.com/dekarrin/lalrgen/internal/emit"
	"github.com/dekarrin/lalrgen/internal/gerr"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/gscan"
	"github.com/dekarrin/lalrgen/internal/lrtable"
	"github.com/dekarrin/lalrgen/internal/pack"
	"github.com/dekarrin/lalrgen/internal/report"
	"github.com/dekarrin/lalrgen/internal/version"
)

const (
	// ExitSuccess indicates the grammar compiled with no errors or
	// conflicts.
	ExitSuccess = iota

	// ExitUsageError indicates a bad invocation (missing/extra arguments).
	ExitUsageError

	// ExitHostError indicates a fatal I/O failure reading the grammar,
	// template, or writing output.
	ExitHostError
)

var (
	returnCode int = ExitSuccess

	flagBasisOnly  = pflag.BoolP("basis-only", "b", false, "Report only basis configurations, not the full closure")
	flagNoCompress = pflag.BoolP("no-compress", "c", false, "Disable default-action table compression")
	flagOutDir     = pflag.StringP("outdir", "d", "", "Output directory (defaults to the grammar file's directory)")
	flagReprint    = pflag.BoolP("reprint", "g", false, "Reprint the grammar and do nothing else")
	flagHeader     = pflag.BoolP("header", "m", false, "Emit a separate token-define header file")
	flagQuiet      = pflag.BoolP("quiet", "q", false, "Suppress the .out report")
	flagSummary    = pflag.BoolP("summary", "s", false, "Print symbol/rule/state/conflict counts")
	flagTemplate   = pflag.StringP("template", "t", "", "Explicit template file path")
	flagVersion    = pflag.BoolP("version", "x", false, "Print the version and exit")
	flagCache      = pflag.String("cache", "", "Cache the packed action table at this path, keyed by a grammar-source hash")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	args := pflag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "ERROR: exactly one grammar file must be given")
		returnCode = ExitUsageError
		return
	}
	grammarPath := args[0]

	src, err := os.ReadFile(grammarPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitHostError
		return
	}

	cfg, err := config.Load(filepath.Dir(grammarPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading %s: %s\n", config.FileName, err)
		returnCode = ExitHostError
		return
	}

	g, diags := gscan.Parse(string(src))

	// Declarations in the grammar file always win; the config file only
	// fills in what's left unset. g.StackSize is never the zero value (it
	// defaults to 100 in grammar.New), so an explicit `%stack_size 100`
	// declaration is indistinguishable from "unset" here and the config
	// file's stack_size is free to override it — a documented edge case,
	// not a bug.
	stackSize := g.StackSize
	if stackSize == 100 {
		stackSize = 0
	}
	cfg.ApplyTo(&stackSize, flagTemplate, &g.TokenPrefix)
	if stackSize != 0 {
		g.StackSize = stackSize
	}

	if err := g.Validate(); err != nil {
		// A failed Validate is a semantic grammar error (§7), not a host
		// I/O failure, so it accumulates in diags and drives the
		// errorcnt+conflictcnt exit status like any other grammar
		// diagnostic rather than the fixed ExitHostError code.
		diags.Add(gerr.At(0, "%s", err))
		for _, d := range diags.Errors() {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		returnCode = diags.ExitStatus()
		return
	}

	g.FinalizeSymbols()
	g.AssignPrecedence()
	g.ComputeLambdaAndFirst()
	emit.AssignDataTypeSlots(g)

	if *flagReprint {
		fmt.Print(report.Grammar(g))
		returnCode = diags.ExitStatus()
		return
	}

	b := automaton.Build(g)
	b.PropagateFollow()
	lrResult := lrtable.Generate(g, b)
	for i := 0; i < lrResult.Conflicts; i++ {
		diags.AddConflict()
	}
	for _, d := range g.UnreducibleRuleDiagnostics() {
		diags.Add(d)
	}

	outDir := *flagOutDir
	if outDir == "" {
		outDir = filepath.Dir(grammarPath)
	}
	base := strings.TrimSuffix(filepath.Base(grammarPath), filepath.Ext(grammarPath))
	outBase := filepath.Join(outDir, base)

	table, err := resolveTable(g, b, src, *flagCache, *flagNoCompress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitHostError
		return
	}

	parserName := base
	if g.Name != "" {
		parserName = g.Name
	}
	if err := emitParser(g, b, table, outBase, parserName, diags); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitHostError
		return
	}

	if !*flagQuiet {
		out := report.Out(g, b, report.Options{BasisOnly: *flagBasisOnly})
		if err := os.WriteFile(outBase+".out", []byte(out), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			returnCode = ExitHostError
			return
		}
	}

	if *flagSummary {
		fmt.Println(report.Summary(g, b, lrResult.Conflicts))
	}

	for _, d := range diags.Errors() {
		fmt.Fprintln(os.Stderr, d.Error())
	}

	returnCode = diags.ExitStatus()
}

// resolveTable returns the grammar's packed action table, consulting
// --cache first and falling back to a fresh compression+pack pass on a
// miss.
func resolveTable(g *grammar.Grammar, b *automaton.Builder, src []byte, cachePath string, noCompress bool) (*pack.Table, error) {
	hash := cache.Hash(string(src))

	if cachePath != "" {
		if t, ok, err := cache.Load(cachePath, hash); err != nil {
			return nil, err
		} else if ok {
			return t, nil
		}
	}

	if !noCompress {
		pack.CompressDefaults(g, b)
	}
	t := pack.Build(g, b)

	if cachePath != "" {
		if err := cache.Save(cachePath, hash, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// emitParser runs the template emitter and writes the .c (and, with -m, .h) output files.
func emitParser(g *grammar.Grammar, b *automaton.Builder, t *pack.Table, outBase, parserName string, diags *gerr.List) error {
	templatePath := *flagTemplate
	if templatePath == "" {
		return fmt.Errorf("no template file specified (use -t or a %s default)", config.FileName)
	}
	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}

	opts := emit.Options{}
	headerPath := outBase + ".h"
	if *flagHeader {
		opts.HeaderPath = headerPath
	}

	result, err := emit.Emit(g, b, t, string(tmpl), parserName, opts)
	if err != nil {
		return err
	}
	for _, d := range result.Diagnostics {
		diags.Add(d)
	}

	if err := os.WriteFile(outBase+".c", []byte(result.Body), 0o644); err != nil {
		return err
	}

	if *flagHeader {
		if emit.HeaderChanged(headerPath, result.HeaderContent, os.ReadFile) {
			if err := os.WriteFile(headerPath, []byte(result.HeaderContent), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}
