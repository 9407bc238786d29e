// Command univis is the visualizer CLI (C13-C14): it loads a reconstructed
// assembly file and an .asm file into the trace graph, reads the binary
// image, and shows the .edel source path in the Settings pane, then drives
// a tab-switcher pane over them.
// Grounded on cmd/cli/cmd/root.go's cobra-root shape, same as uniasm and
// unic; the pane switcher itself is grounded on
// smoynes-elsie/internal/tty's raw-terminal Console lifecycle.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/keurnel/uni/internal/binimage"
	"github.com/keurnel/uni/internal/toolchainver"
	"github.com/keurnel/uni/internal/trace"
	"github.com/keurnel/uni/internal/visualizer"
	"github.com/spf13/cobra"
)

var (
	flagAsm            string
	flagBin            string
	flagEdel           string
	flagReconstruction string
	flagStdout         string
	flagStdin          string
	flagBreakpoints    string
	flagMinVersion     string
)

var rootCmd = &cobra.Command{
	Use:     "univis [base]",
	Short:   "Visualize an assembled program against its source trace",
	Version: toolchainver.Version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := toolchainver.CheckMinimum(flagMinVersion); err != nil {
			return err
		}
		var base string
		if len(args) == 1 {
			base = args[0]
		}
		return run(base)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagAsm, "asm", "", "assembly (.asm) file (default <base>.asm)")
	rootCmd.Flags().StringVar(&flagBin, "bin", "", "binary image file (default <base>)")
	rootCmd.Flags().StringVar(&flagEdel, "edel", "", "high-level source file (default <base>.edel)")
	rootCmd.Flags().StringVar(&flagReconstruction, "reconstruction", "", "reconstructed assembly (.s) file (default <base>.s)")
	rootCmd.Flags().StringVar(&flagStdout, "stdout", "", "write a single static render to this path instead of driving an interactive console")
	rootCmd.Flags().StringVar(&flagStdin, "stdin", "", "read console key input from this path instead of the controlling terminal")
	rootCmd.Flags().StringVarP(&flagBreakpoints, "breakpoint", "b", "", "comma-separated instruction indices to set $pc breakpoints on")
	rootCmd.Flags().StringVar(&flagMinVersion, "min-version", "", "fail if this build is older than the given semantic version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(base string) error {
	paths := resolvePaths(base)

	g := trace.New()

	reconLines, err := readLines(paths.Reconstruction)
	if err != nil {
		return fmt.Errorf("reading %s: %w", paths.Reconstruction, err)
	}
	if err := g.LoadReconstructed(paths.Reconstruction, reconLines); err != nil {
		return err
	}

	if asmLines, err := readLines(paths.Asm); err == nil {
		g.LoadAssembly(paths.Asm, asmLines)
	}

	binData, err := os.ReadFile(paths.Bin)
	if err != nil {
		return fmt.Errorf("reading %s: %w", paths.Bin, err)
	}
	img, err := binimage.Read(binData)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", paths.Bin, err)
	}

	state := visualizer.New(g, img, paths, len(reconLines))

	if flagBreakpoints != "" {
		pcs, err := visualizer.ParseBreakpointList(flagBreakpoints)
		if err != nil {
			return err
		}
		state.SetBreakpoints(pcs)
	}

	if flagStdout != "" {
		f, err := os.Create(flagStdout)
		if err != nil {
			return fmt.Errorf("opening %s: %w", flagStdout, err)
		}
		defer f.Close()
		visualizer.RenderOnce(f, state)
		return nil
	}

	in := os.Stdin
	if flagStdin != "" {
		f, err := os.Open(flagStdin)
		if err != nil {
			return fmt.Errorf("opening %s: %w", flagStdin, err)
		}
		defer f.Close()
		in = f
	}

	console, err := visualizer.NewConsole(in, os.Stdout)
	if err != nil {
		if errors.Is(err, visualizer.ErrNoTTY) {
			visualizer.RenderOnce(os.Stdout, state)
			return nil
		}
		return err
	}
	defer console.Restore()

	return console.Run(state)
}

// resolvePaths fills in any flag left unset from base, per spec's
// "<base>.asm, <base>.edel, <base>.s, <base>" derivation rule.
func resolvePaths(base string) visualizer.Paths {
	p := visualizer.Paths{
		Asm:            flagAsm,
		Bin:            flagBin,
		Edel:           flagEdel,
		Reconstruction: flagReconstruction,
	}
	if base == "" {
		return p
	}
	if p.Asm == "" {
		p.Asm = base + ".asm"
	}
	if p.Edel == "" {
		p.Edel = base + ".edel"
	}
	if p.Reconstruction == "" {
		p.Reconstruction = base + ".s"
	}
	if p.Bin == "" {
		p.Bin = base
	}
	return p
}

func readLines(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("no path given")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
