// Package preprocess implements the line-oriented textual pre-processor
// (%define, %macro/%end, %include, %rm, %stop) shared by the assembler
// front end. It consumes raw source text and produces a merged line list
// annotated with each line's original source location.
package preprocess

import "github.com/keurnel/uni/internal/diag"

// Line is one surviving line of pre-processed text paired with the location
// it originated from, before any later expansion moved it.
type Line struct {
	Loc  diag.Location
	Text string
}

// Constant is a %define'd name. Value is substituted verbatim, unanchored,
// wherever the name appears in later lines.
type Constant struct {
	Loc   diag.Location
	Value string
}

// Macro is a %macro ... %end block: an ordered, unique parameter list and a
// body of un-expanded lines, recorded at its declaration site.
type Macro struct {
	Loc    diag.Location
	Params []string
	Body   []string
}

// inclusion records where a canonical path was first %include'd, to detect
// cycles.
type inclusion struct {
	path string
	loc  diag.Location
}

// Data is the pre-processor's working state for one file (and, via Merge,
// everything spliced into it). LibPath is the `-l` library search directory
// used to resolve `lib:name` includes.
type Data struct {
	FilePath string
	LibPath  string

	Lines     []Line
	Constants map[string]Constant
	Macros    map[string]Macro

	included map[string]diag.Location // canonical path -> first inclusion site

	// currentMacro names the macro whose %macro...%end body is being
	// collected; collectingMacro is false (and currentMacro "") when no
	// macro definition is in progress. This replaces the
	// C++ source's raw pointer-into-map with an explicit state flag plus a
	// name, per the Design Note on "mutable current_macro pair pointer".
	currentMacro    string
	collectingMacro bool
}

// NewData creates pre-processor state for filePath, searching libPath for
// `lib:`-prefixed includes.
func NewData(filePath, libPath string) *Data {
	return &Data{
		FilePath:  filePath,
		LibPath:   libPath,
		Constants: make(map[string]Constant),
		Macros:    make(map[string]Macro),
		included:  make(map[string]diag.Location),
	}
}

// Merge splices other's lines into this Data at line index `at`, and unions
// constants and macros. Used when a %include's included file has finished
// pre-processing and must be spliced into the includer at the %include
// site.
func (d *Data) Merge(other *Data, at int) {
	merged := make([]Line, 0, len(d.Lines)+len(other.Lines))
	merged = append(merged, d.Lines[:at]...)
	merged = append(merged, other.Lines...)
	merged = append(merged, d.Lines[at:]...)
	d.Lines = merged

	for name, c := range other.Constants {
		d.Constants[name] = c
	}
	for name, m := range other.Macros {
		d.Macros[name] = m
	}
	for path, loc := range other.included {
		if _, ok := d.included[path]; !ok {
			d.included[path] = loc
		}
	}
}
