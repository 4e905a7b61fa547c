//go:build mage

// Package main contains Mage build targets for instrument-engine developer tooling.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "instrument-engine"
	cmdPkg     = "./cmd/instrument-engine"
	samplesDir = "samples"
)

func binPath() string { return filepath.Join(binDir, binName) }

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := binPath()
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests of every package.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint runs go vet over every package.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Samples runs every subcommand of the CLI over the files in samples/.
func Samples() error {
	mg.Deps(Build)

	bin := binPath()
	in := func(name string) string { return filepath.Join(samplesDir, name) }
	cfgFlag := "--config=" + in("instrument-engine.yaml")
	def := "--definition=" + in("definition.yaml")
	entries := []string{in("entry-a.yaml"), in("entry-b.yaml")}

	steps := [][]string{
		{"validate-definition", cfgFlag, "--types", in("definition.yaml")},
		{"skeleton", cfgFlag, in("definition.yaml")},
		append([]string{"discrepancies", cfgFlag, def}, entries...),
		append([]string{"reconcile", cfgFlag, def, "--overrides=" + in("overrides.yaml")}, entries...),
	}
	for _, args := range steps {
		fmt.Printf("\n$ %s %s\n", binName, strings.Join(args, " "))
		if err := sh.RunV(bin, args...); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}

	// calculate needs the reconciled document on disk.
	resolved, err := sh.Output(bin, append([]string{"reconcile", cfgFlag, "--format=json", def, "--overrides=" + in("overrides.yaml")}, entries...)...)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	docPath := filepath.Join(binDir, "resolved.json")
	if err := os.WriteFile(docPath, []byte(resolved), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", docPath, err)
	}
	args := []string{"calculate", cfgFlag, def, "--calculations=" + in("calculations.yaml"), "--attach", docPath}
	fmt.Printf("\n$ %s %s\n", binName, strings.Join(args, " "))
	return sh.RunV(bin, args...)
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// skipDir reports directories Stats never descends into.
func skipDir(path string) bool {
	base := filepath.Base(path)
	return path != "." && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == binDir)
}

// countGoLines walks the directory tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) > 0 {
				total++
			}
		}
		return nil
	})
	return total, err
}

// countDocWords counts words in the Markdown files and samples.
func countDocWords(root string) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(bytes.Fields(data))
		return nil
	})
	return total, err
}
