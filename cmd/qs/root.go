package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/structqs"
	"github.com/wippyai/structqs/internal/parse"
)

// GlobalFlags holds the flags shared by every command.
type GlobalFlags struct {
	MaxDepth int
	MaxSize  int
	Verbose  bool
}

var (
	globalFlags GlobalFlags
	logger      = zap.NewNop()
	codec       = structqs.New(structqs.DefaultConfig())
)

var rootCmd = &cobra.Command{
	Use:   "qs",
	Short: "Decode, encode and inspect structured query strings",
	Long: `qs works with query strings that carry nested data:

  keyword=foo&limit=20&filter.category=A&filter.difficulty.to=800&tags=go,wasm

Dots in keys nest records, commas in values join sequences, and a key
written twice is reported as ambiguous instead of silently overwritten.

Examples:
  qs decode 'a=1&b.c=2'               # JSON on stdout
  echo '{"a":1,"b":{"c":2}}' | qs encode
  qs tree 'a=1&a=2&b.c=x'             # show the parsed tree
  qs inspect                          # interactive editor`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalFlags.Verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			structqs.SetLogger(l)
		}
		codec = structqs.New(codecConfig())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func codecConfig() structqs.Config {
	cfg := structqs.DefaultConfig()
	cfg.Logger = logger
	cfg.MaxDepth = globalFlags.MaxDepth
	cfg.MaxInputSize = globalFlags.MaxSize
	return cfg
}

func parseOptions() parse.Options {
	return parse.Options{
		Logger:       logger,
		MaxInputSize: globalFlags.MaxSize,
		MaxDepth:     globalFlags.MaxDepth,
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&globalFlags.MaxDepth, "max-depth", 0, "maximum number of segments in one key (0 = unlimited)")
	rootCmd.PersistentFlags().IntVar(&globalFlags.MaxSize, "max-size", 0, "maximum input size in bytes (0 = unlimited)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "log parser and codec diagnostics to stderr")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(inspectCmd)
}

// readQuery returns the query from args, or from stdin when no argument
// is given. A leading URL up to '?' and a trailing fragment are dropped.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	var s string
	if len(args) > 0 {
		s = args[0]
	} else {
		data, err := readStdin(cmd)
		if err != nil {
			return "", err
		}
		s = strings.TrimRight(string(data), "\r\n")
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return s, nil
}

func readStdin(cmd *cobra.Command) ([]byte, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, fmt.Errorf("no input: pass an argument or pipe data on stdin")
	}
	return io.ReadAll(in)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
