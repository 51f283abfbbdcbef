package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anistark/waspy/internal/frontend"
	"github.com/anistark/waspy/pkg/codegen"
	"github.com/anistark/waspy/pkg/semantic"
	"github.com/anistark/waspy/pkg/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outputFile   string
	debug        bool
	backend      string
	optimize     bool
	listBackends bool
	showVersion  bool
)

var rootCmd = &cobra.Command{
	Use:   "waspy [source file]",
	Short: "waspy " + version.GetVersion() + " — compiles a statically-annotated dynamic-language subset to WASM",
	Long: `waspy compiles a statically-annotated subset of a dynamic source
language into a standalone WASM 1.0 binary module: no host imports, no
garbage collector, exceptions that set flags instead of unwinding.

EXAMPLES:
  waspy add.py                  # compile to add.wasm
  waspy add.py -o out.wasm      # choose the output path
  waspy add.py -d               # log codegen diagnostics
  waspy --list-backends`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetFullVersion())
			return
		}
		if listBackends {
			fmt.Println("Available backends:")
			for _, b := range codegen.ListBackends() {
				fmt.Printf("  - %s\n", b)
			}
			return
		}
		if len(args) == 0 {
			cmd.Help()
			os.Exit(0)
		}
		if err := compile(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: input with a .wasm extension)")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&backend, "backend", "b", "wasm", "target backend")
	rootCmd.Flags().BoolVarP(&optimize, "optimize", "O", false, "run the module through the configured optimizer")
	rootCmd.Flags().BoolVar(&listBackends, "list-backends", false, "list available backends")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func compile(sourceFile string) error {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	src, err := os.ReadFile(sourceFile)
	if err != nil {
		return err
	}

	file, err := frontend.Parse(filepath.Base(sourceFile), string(src))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	module, err := semantic.Convert(file)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	b := codegen.GetBackend(backend, &codegen.BackendOptions{Debug: debug})
	if b == nil {
		return fmt.Errorf("unknown backend %q", backend)
	}

	out, err := b.Generate(module)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if optimize {
		out, err = (codegen.IdentityOptimizer{}).Optimize(out)
		if err != nil {
			return fmt.Errorf("optimize: %w", err)
		}
	}

	dest := outputFile
	if dest == "" {
		base := strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))
		dest = base + b.GetFileExtension()
	}
	if err := os.WriteFile(dest, out, 0644); err != nil {
		return err
	}
	if debug {
		fmt.Printf("wrote %s (%d bytes)\n", dest, len(out))
	}
	return nil
}
