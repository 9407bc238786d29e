// Command unic is the compiler CLI (C7-C12): lex, parse, and lower a
// source file through the four-phase AST pipeline into textual assembly,
// matching spec §6's flag contract. Grounded on cmd/cli/cmd/root.go's
// cobra-root shape, same as cmd/uniasm.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/keurnel/uni/internal/ast"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/parser"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/toolchain"
	"github.com/keurnel/uni/internal/toolchainver"
	"github.com/keurnel/uni/internal/ulog"
	"github.com/spf13/cobra"
)

// tc is the process-wide type graph and operator registry, built once
// before any file is compiled (internal/toolchain's happens-before
// contract). A single run of unic compiles one file, but the state is
// kept process-wide rather than per-run so a future batch/watch mode
// doesn't have to rebuild it per file.
var tc = toolchain.New()

var (
	flagDebug               bool
	flagDumpAST             bool
	flagOutput              string
	flagFunctionPlaceholder bool
	flagIndentation         bool
	flagAlwaysDefineSymbols bool
	flagLint                bool
	flagLintLevel           int
	flagMinVersion          string
)

var rootCmd = &cobra.Command{
	Use:     "unic <file>",
	Short:   "Compile a source file to textual assembly",
	Version: toolchainver.Version,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := toolchainver.CheckMinimum(flagMinVersion); err != nil {
			return err
		}
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagDumpAST, "ast", false, "dump the parsed AST instead of compiling")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "textual assembly output path (defaults to stdout)")
	rootCmd.Flags().BoolVar(&flagFunctionPlaceholder, "function-placeholder", true, "emit a stub body for declared-but-undefined functions")
	rootCmd.Flags().BoolVar(&flagIndentation, "indentation", true, "indent emitted instruction lines under their block label")
	rootCmd.Flags().BoolVar(&flagAlwaysDefineSymbols, "always-define-symbols", false, "require every declared function to have a real definition; overrides --function-placeholder")
	rootCmd.Flags().BoolVar(&flagLint, "lint", true, "print warning/note diagnostics alongside errors")
	rootCmd.Flags().IntVar(&flagLintLevel, "lint-level", 0, "minimum diagnostic level to print when --lint is set (0=note, 1=warning, 2=error)")
	rootCmd.Flags().StringVar(&flagMinVersion, "min-version", "", "fail if this build is older than the given semantic version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string) error {
	if flagDebug {
		ulog.LogLevel.Set(slog.LevelDebug)
	}
	log := ulog.DefaultLogger()

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	msgs := &diag.List{}

	units := parser.Parse(path, string(src), tc.Types, tc.Operators, msgs)
	log.Debug("parsed", "items", len(units))
	if msgs.HasError() {
		printDiagnostics(msgs)
		return fmt.Errorf("parsing failed")
	}

	if flagDumpAST {
		dumpAST(units, 0)
		printDiagnostics(msgs)
		return exitStatus(msgs)
	}

	tbl := symbols.NewTable()
	prog := program.New()
	ctx := ast.NewContext(tc.Types, tc.Operators, tbl, prog, msgs)

	// --always-define-symbols, when passed, forces the strict "every
	// declaration needs a definition elsewhere" behavior regardless of
	// --function-placeholder; otherwise --no-function-placeholder alone is
	// enough to ask for the same strictness. See DESIGN.md for this
	// resolution of the two flags' overlap.
	ctx.AlwaysDefineSymbols = flagAlwaysDefineSymbols || !flagFunctionPlaceholder

	runPhase := func(name string, fn func(ast.Node)) bool {
		for _, u := range units {
			if msgs.HasError() {
				break
			}
			fn(u)
		}
		log.Debug("phase complete", "phase", name, "errors", msgs.HasError())
		return !msgs.HasError()
	}

	ok := runPhase("collate_registry", func(n ast.Node) { n.CollateRegistry(ctx) }) &&
		runPhase("process", func(n ast.Node) { n.Process(ctx, ast.NoHint) }) &&
		runPhase("resolve", func(n ast.Node) { n.Resolve(ctx) }) &&
		runPhase("generate_code", func(n ast.Node) { n.GenerateCode(ctx) })

	printDiagnostics(msgs)
	if !ok {
		return fmt.Errorf("compilation failed")
	}

	text := renderProgram(prog, flagIndentation)
	if flagOutput == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(flagOutput, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", flagOutput, err)
	}
	log.Debug("wrote textual assembly", "path", flagOutput)
	return exitStatus(msgs)
}

// dumpAST prints a minimal textual trace of each top-level item's Go type
// and location, indented by depth (child nodes are not visited), enough to inspect parse results
// without a full pretty-printer (no dedicated render per node kind exists
// in internal/ast — adding 24 String() methods purely for --ast would be
// more speculative machinery than a debug flag warrants).
func dumpAST(nodes []ast.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		fmt.Printf("%s%T @ %s\n", indent, n, n.Loc())
	}
}

func printDiagnostics(msgs *diag.List) {
	if !flagLint {
		for _, m := range msgs.Items() {
			if m.Level == diag.Error {
				fmt.Fprintln(os.Stderr, m.String())
			}
		}
		return
	}
	for _, m := range msgs.Items() {
		if int(m.Level) >= flagLintLevel {
			fmt.Fprintln(os.Stderr, m.String())
		}
	}
}

func exitStatus(msgs *diag.List) error {
	if msgs.HasError() {
		return fmt.Errorf("completed with errors")
	}
	return nil
}

// renderProgram renders a program.Program's blocks back to textual
// assembly: one label per block, one line per emitted instruction or
// directive. There is no existing renderer in internal/program (it only
// models the in-memory block/line structure C12 consumes), so this is a
// small, self-contained printer local to the driver that needs it.
func renderProgram(p *program.Program, indent bool) string {
	var b strings.Builder
	prefix := ""
	if indent {
		prefix = "    "
	}
	for _, block := range p.Blocks() {
		fmt.Fprintf(&b, "%s:\n", block.Label)
		for _, line := range block.Lines {
			if line.IsDirective {
				fmt.Fprintf(&b, "%s%s\n", prefix, line.Directive)
				continue
			}
			fmt.Fprintf(&b, "%s%s\n", prefix, renderInstruction(line.Instruction))
		}
	}
	return b.String()
}

func renderInstruction(ins instr.Instruction) string {
	var b strings.Builder
	b.WriteString(ins.Signature.Mnemonic)
	b.WriteString(condSuffix(ins.Test))
	for _, dt := range ins.Datatypes {
		b.WriteByte('.')
		b.WriteString(datatypeSuffix(dt))
	}
	if len(ins.Args) > 0 {
		b.WriteByte(' ')
		for i, a := range ins.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(renderArgument(a))
		}
	}
	if ins.Comment != "" {
		b.WriteString(" ; ")
		b.WriteString(ins.Comment)
	}
	return b.String()
}

var condSuffixes = map[instr.CondTest]string{
	instr.TestZero:         "z",
	instr.TestNonZero:      "nz",
	instr.TestEqual:        "eq",
	instr.TestNotEqual:     "neq",
	instr.TestLess:         "lt",
	instr.TestLessEqual:    "lte",
	instr.TestGreater:      "gt",
	instr.TestGreaterEqual: "gte",
}

func condSuffix(t instr.CondTest) string {
	if t == instr.NoTest {
		return ""
	}
	return condSuffixes[t]
}

var datatypeSuffixes = map[instr.Datatype]string{
	instr.DTU32: "hu",
	instr.DTU64: "u",
	instr.DTS32: "hi",
	instr.DTS64: "i",
	instr.DTF32: "f",
	instr.DTD64: "d",
}

func datatypeSuffix(dt instr.Datatype) string {
	return datatypeSuffixes[dt]
}

var namedRegisters = map[uint8]string{
	59: "$rpc",
	60: "$sp",
	61: "$fp",
	62: "$ret",
	63: "$ip",
}

func renderArgument(a instr.Argument) string {
	switch a.Kind {
	case instr.KindImmediate:
		return strconv.FormatInt(a.Imm, 10)
	case instr.KindDecimalImmediate:
		return strconv.FormatFloat(a.Decimal, 'g', -1, 64)
	case instr.KindByte:
		return strconv.Itoa(int(a.Byte))
	case instr.KindAddress:
		return fmt.Sprintf("(0x%x)", a.Addr)
	case instr.KindRegister:
		return registerName(a.Reg)
	case instr.KindRegisterIndirect:
		return fmt.Sprintf("[%d](%s)", a.IndirectOffset, registerName(a.IndirectReg))
	case instr.KindLabel:
		text := a.Label
		if a.LabelOffset != 0 {
			text = fmt.Sprintf("%s%+d", text, a.LabelOffset)
		}
		return text
	default:
		return "?"
	}
}

func registerName(idx uint8) string {
	if name, ok := namedRegisters[idx]; ok {
		return name
	}
	return fmt.Sprintf("$r%d", idx)
}
