/*
Fernparsec compiles a lexical grammar and a raw grammar, then parses an input
file against the resulting operator-precedence grammar.

It reads the lexical grammar and grammar source from the given files, builds
a Pipeline, and prints the resulting parse tree to stdout. Pool thread count
and chunk size may be set on the command line or via an optional TOML config
file; the config file is overridden by any flag given explicitly. The lexer's
interesting start states and discarded terminals are set only in the config
file.

Usage:

	fernparsec [flags]

The flags are:

	-v, --version
		Give the current version of fernparsec and then exit.

	-l, --lex FILE
		Lexical grammar source (NAME = "regex" entries). Required.

	-g, --grammar FILE
		Raw `.g` grammar source. Required.

	-i, --input FILE
		Input to parse. Defaults to stdin.

	-c, --config FILE
		Optional TOML config file setting workers, chunk_size,
		interesting_start_states, and discard.

	-w, --workers N
		Lexer pool worker count. Defaults to 4, or the config file's value.

	-s, --chunk-size N
		Minimum chunk size in bytes for the chunker. Defaults to 4096, or the
		config file's value.

	--chunked
		Parse each chunk independently and assemble the results (spec's
		parallel merge policy) instead of reassembling one token stream
		first.

	--write-grammar FILE
		Write the normalized grammar back to FILE in `.g` syntax and exit,
		instead of parsing any input.
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/dawid33/fernparse"
	"github.com/dawid33/fernparse/internal/version"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitInitError indicates the pipeline could not be compiled from the
	// given grammar sources.
	ExitInitError

	// ExitParseError indicates the input failed to parse.
	ExitParseError

	// ExitUsageError indicates the flags given were insufficient to run.
	ExitUsageError
)

// config is the shape of an optional TOML config file (spec §1
// "Configuration"): pool thread count, chunk size, and interesting-start-
// state lists shouldn't be hardcoded.
type config struct {
	Workers                int      `toml:"workers"`
	ChunkSize              int      `toml:"chunk_size"`
	InterestingStartStates []string `toml:"interesting_start_states"`
	Discard                []string `toml:"discard"`
}

var (
	returnCode    = ExitSuccess
	flagVersion   = pflag.BoolP("version", "v", false, "Gives the version info")
	lexFile       = pflag.StringP("lex", "l", "", "Lexical grammar source file")
	grammarFile   = pflag.StringP("grammar", "g", "", "Raw grammar source file")
	inputFile     = pflag.StringP("input", "i", "", "Input file to parse; defaults to stdin")
	configFile    = pflag.StringP("config", "c", "", "Optional TOML config file")
	workers       = pflag.IntP("workers", "w", 0, "Lexer pool worker count")
	chunkSize     = pflag.IntP("chunk-size", "s", 0, "Minimum chunk size in bytes")
	chunked       = pflag.Bool("chunked", false, "Parse each chunk independently and assemble the results")
	writeGrammar  = pflag.String("write-grammar", "", "Write the normalized grammar to FILE and exit")
	defaultWorker = 4
	defaultChunk  = 4096
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if *lexFile == "" || *grammarFile == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --lex and --grammar are both required")
		returnCode = ExitUsageError
		return
	}

	cfg := config{Workers: defaultWorker, ChunkSize: defaultChunk}
	if *configFile != "" {
		if _, err := toml.DecodeFile(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: reading config file: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *chunkSize > 0 {
		cfg.ChunkSize = *chunkSize
	}

	lexSrc, err := os.ReadFile(*lexFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading lexical grammar: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	grammarSrc, err := os.ReadFile(*grammarFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading grammar: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	p, err := fernparse.New(string(lexSrc), string(grammarSrc), fernparse.Options{
		Workers:                cfg.Workers,
		InterestingStartStates: cfg.InterestingStartStates,
		Discard:                cfg.Discard,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer p.Close()

	if *writeGrammar != "" {
		f, err := os.Create(*writeGrammar)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		defer f.Close()
		if _, err := p.WriteGrammar(f); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
		}
		return
	}

	var input []byte
	if *inputFile == "" {
		input, err = io.ReadAll(os.Stdin)
	} else {
		input, err = os.ReadFile(*inputFile)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading input: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	var tree interface{ String() string }
	if *chunked {
		tree, err = p.ParseBytesChunked(input, cfg.ChunkSize)
	} else {
		tree, err = p.ParseBytes(input, cfg.ChunkSize)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitParseError
		return
	}

	fmt.Println(tree.String())
}
