// Command celestial runs the obfuscation pipeline over a source file from
// the command line, optionally watching it for changes and re-obfuscating
// on every save.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Loadstring-Afk/Celestial-SF/pkg/obfuscate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		profile string
		level   int
		seed    int64
		output  string
		watch   bool
	)

	root := &cobra.Command{
		Use:           "celestial <file>",
		Short:         "Obfuscate a source file",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			opts := obfuscate.Options{Profile: profile}
			if level != 0 {
				opts.ObfuscationLevel = level
			}

			run := func() error {
				return runOnce(inputPath, output, opts, uint64(seed))
			}

			if !watch {
				return run()
			}
			return watchAndRun(cmd, inputPath, run)
		},
	}

	root.Flags().StringVar(&profile, "profile", "basic", "obfuscation profile: basic|standard|professional|enterprise|military")
	root.Flags().IntVar(&level, "level", 0, "obfuscation level 1-10, overrides the profile default")
	root.Flags().Int64Var(&seed, "seed", 0, "oracle seed; same seed and input always produce the same output")
	root.Flags().StringVar(&output, "output", "", "output file path; defaults to stdout")
	root.Flags().BoolVar(&watch, "watch", false, "re-run on every change to the input file")

	return root
}

func runOnce(inputPath, outputPath string, opts obfuscate.Options, seed uint64) error {
	source, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	result, err := obfuscate.Obfuscate(source, opts, seed)
	if err != nil {
		return fmt.Errorf("obfuscating %s: %w", inputPath, err)
	}

	if outputPath == "" {
		fmt.Println(result.Code)
		fmt.Fprintf(os.Stderr, "size %d -> %d (%s), security level %d, checksum %s\n",
			result.OriginalSize, result.ObfuscatedSize, result.ExpansionRatio, result.SecurityLevel, result.Checksum)
		return nil
	}
	return os.WriteFile(outputPath, []byte(result.Code), 0o644)
}
