// Command jackc compiles one or more Jack translation units into
// textual VM code.
package main

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/teris-io/cli"

	"github.com/anttrn/jackc/internal/compiler"
	"github.com/anttrn/jackc/internal/lexer"
	"github.com/anttrn/jackc/internal/vmwriter"
)

var description = strings.ReplaceAll(`
jackc compiles Jack source files (the Nand2Tetris high-level language) into
textual VM code for the stack-based Hack virtual machine. Point it at a
single .jack file or at a directory, in which case every top-level .jack
entry is compiled (non-recursive).
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("inputs", "Files or directories to compile").AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("out-dir", "Write .vm files here instead of alongside each input").WithType(cli.TypeString)).
	WithOption(cli.NewOption("verbose", "Echo each file compiled and its output path").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("emit-xml", "Emit a structural .xml parse dump instead of VM code").WithType(cli.TypeBool)).
	WithAction(run)

func main() {
	os.Exit(app.Run(os.Args, os.Stdout))
}

func run(args []string, options map[string]string) int {
	if len(args) == 0 {
		log.Println("ERROR: no input file or directory given, use --help")
		return 1
	}

	_, verbose := options["verbose"]
	_, emitXML := options["emit-xml"]
	outDir := options["out-dir"]

	logger := log.New(os.Stdout, "", 0)
	if !verbose {
		logger.SetOutput(os.Stderr)
	}
	// Per-symbol engine traces are only emitted with --verbose.
	var traceLog compiler.Logger
	if verbose {
		traceLog = logger
	}

	var files []string
	for _, arg := range args {
		collected, err := collectFiles(arg)
		if err != nil {
			log.Printf("ERROR: %v", err)
			return 1
		}
		files = append(files, collected...)
	}
	sort.Strings(files)

	compiled := 0
	for _, path := range files {
		outPath, err := compileFile(path, outDir, emitXML, traceLog)
		if err != nil {
			log.Printf("FAILED %s: %v", path, err)
			return 1
		}
		if verbose {
			logger.Printf("compiled %s -> %s", path, outPath)
		}
		compiled++
	}

	logger.Printf("compiled %d file(s)", compiled)
	return 0
}

// collectFiles returns every *.jack entry under fileOrDir: the file
// itself if it is not a directory, or every top-level (non-recursive)
// *.jack entry of the directory otherwise.
func collectFiles(fileOrDir string) ([]string, error) {
	info, err := os.Stat(fileOrDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat %q", fileOrDir)
	}

	if !info.IsDir() {
		return []string{fileOrDir}, nil
	}

	entries, err := os.ReadDir(fileOrDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %q", fileOrDir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jack" {
			continue
		}
		files = append(files, filepath.Join(fileOrDir, entry.Name()))
	}
	return files, nil
}

func outputPath(inPath, outDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath)) + ext
	if outDir == "" {
		return filepath.Join(filepath.Dir(inPath), base)
	}
	return filepath.Join(outDir, base)
}

func compileFile(inPath, outDir string, emitXML bool, logger compiler.Logger) (string, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return "", errors.Wrapf(err, "opening %q", inPath)
	}
	defer in.Close()

	lex, err := lexer.New(in)
	if err != nil {
		return "", errors.Wrapf(err, "tokenizing %q", inPath)
	}

	ext := ".vm"
	if emitXML {
		ext = ".xml"
	}
	outPath := outputPath(inPath, outDir, ext)

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "opening %q for writing", outPath)
	}
	defer out.Close()

	if emitXML {
		err = compiler.NewXML(lex, out).CompileXML()
	} else {
		err = compiler.New(lex, vmwriter.New(out), logger).Compile()
	}
	if err != nil {
		os.Remove(outPath)
		return "", errors.Wrapf(err, "compiling %q", inPath)
	}
	return outPath, nil
}
