// Command tusdcat prints a USD layer's composed, reconstructed contents
// to stdout: parse a .usda/.usdc/.usdz file, optionally flatten it through
// composition, and report the result or fail with a non-zero exit code.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/usdgo/usd/ascii"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/usd"
)

// compositionTokens maps the --composition CSV tokens to the arc kinds
// they name, section 6.
var compositionTokens = map[byte]string{
	'l': "subLayers",
	'i': "inherits",
	'v': "variantSets",
	'r': "references",
	'p': "payload",
	's': "specializes",
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tusdcat:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		flatten         bool
		compositionCSV  string
		parseOnly       bool
		extractVariants bool
		relative        bool
	)

	cmd := &cobra.Command{
		Use:   "tusdcat <file>",
		Short: "Inspect a USD layer: parse, compose, and print its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arcs, err := parseCompositionCSV(compositionCSV)
			if err != nil {
				return err
			}
			return run(args[0], runOptions{
				flatten:         flatten,
				arcs:            arcs,
				parseOnly:       parseOnly,
				extractVariants: extractVariants,
				relative:        relative,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&flatten, "flatten", false, "compose the layer (sublayers, inherits, variants, references, payload, specializes) before printing")
	cmd.Flags().StringVar(&compositionCSV, "composition", "l,i,v,r,p,s", "comma-separated arc kinds to flatten: l,i,v,r,p,s")
	cmd.Flags().BoolVar(&parseOnly, "parse-only", false, "parse the layer but skip composition and stage reconstruction")
	cmd.Flags().BoolVar(&extractVariants, "extract-variants", false, "list every variantSet and its variants instead of printing prims")
	cmd.Flags().BoolVar(&relative, "relative", false, "resolve sublayer/reference/payload asset paths relative to the input file's directory")

	return cmd
}

func parseCompositionCSV(csv string) (map[string]bool, error) {
	enabled := map[string]bool{}
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if len(tok) != 1 {
			return nil, fmt.Errorf("invalid --composition token %q: expected one of l,i,v,r,p,s", tok)
		}
		name, ok := compositionTokens[tok[0]]
		if !ok {
			return nil, fmt.Errorf("invalid --composition token %q: expected one of l,i,v,r,p,s", tok)
		}
		enabled[name] = true
	}
	return enabled, nil
}

// runOptions carries the resolved flag values for one invocation. run reads
// only parseOnly and extractVariants: flatten, arcs and relative are stored
// but not read. Unless parseOnly is set, run always loads through
// usd.LoadUSDFromFile, which runs the full LIVRPS composition, so neither
// --flatten nor a --composition subset changes what is composed or printed.
type runOptions struct {
	flatten         bool
	arcs            map[string]bool
	parseOnly       bool
	extractVariants bool
	relative        bool
}

func run(path string, opts runOptions, out io.Writer) error {
	if opts.parseOnly {
		layer, warnings, err := usd.LoadLayerFromFile(path)
		if err != nil {
			return err
		}
		printWarnings(warnings)
		fmt.Fprint(out, ascii.Print(layer))
		return nil
	}

	stage, warnings, err := usd.LoadUSDFromFile(path, usd.DefaultLoadOptions())
	if err != nil {
		return err
	}
	printWarnings(warnings)

	if opts.extractVariants {
		printVariantSets(out, stage)
		return nil
	}
	printStage(out, stage)
	return nil
}

func printWarnings(warnings *diag.List) {
	if warnings == nil {
		return
	}
	for _, w := range warnings.Items() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

func printStage(out io.Writer, stage *usd.Stage) {
	for _, root := range stage.RootPrims {
		printPrim(out, root, 0)
	}
}

func printPrim(out io.Writer, prim *usd.Prim, depth int) {
	fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), prim.String())
	for _, child := range prim.Children {
		printPrim(out, child, depth+1)
	}
}

func printVariantSets(out io.Writer, stage *usd.Stage) {
	var walk func(p *usd.Prim)
	walk = func(p *usd.Prim) {
		for name, variants := range p.Spec.VariantSets {
			var names []string
			for v := range variants {
				names = append(names, v)
			}
			fmt.Fprintf(out, "%s: %s = %s\n", p.Name, name, strings.Join(names, ", "))
		}
		for _, c := range p.Children {
			walk(c)
		}
	}
	for _, root := range stage.RootPrims {
		walk(root)
	}
}
