//go:build mage

// Package main provides build targets for pantry using Mage.
//
// Usage:
//
//	mage build      Compile the pantry binary to bin/
//	mage test       Run all tests
//	mage race       Run all tests with the race detector
//	mage cover      Write coverage.out and print per-function coverage
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install pantry to GOPATH/bin
//	mage stats      Print Go lines of code per package
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo        = "go"
	binLint      = "golangci-lint"
	binaryName   = "pantry"
	binaryDir    = "bin"
	cmdDir       = "./cmd/pantry"
	coverProfile = "coverage.out"
)

// ldflags strips debug information from the binary.
var ldflags = "-s -w"

// Build compiles the pantry binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs all tests with the race detector.
func Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests with coverage and prints the per-function summary.
func Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile", coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", coverProfile)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	for _, path := range []string{binaryDir, coverProfile} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Stats prints Go lines of code per package directory, split into
// production and test lines.
func Stats() error {
	type counts struct{ prod, test int }
	byDir := map[string]*counts{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := byDir[dir]
		if !ok {
			c = &counts{}
			byDir[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var prod, test int
	for _, dir := range dirs {
		c := byDir[dir]
		fmt.Printf("%-24s %6d prod %6d test\n", dir, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-24s %6d prod %6d test\n", "total", prod, test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
