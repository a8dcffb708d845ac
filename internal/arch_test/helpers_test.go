// Package arch_test checks the layout rules of the internal packages: the
// import layering, exported documentation, package-level state and file size.
package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"
)

const internalImport = "github.com/papapumpkin/parallax/internal/"

// internalDir returns the absolute path of internal/, the parent of this
// test's directory.
func internalDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Dir(filepath.Dir(file))
}

// packages lists the internal package directories other than this one.
func packages(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(internalDir(t))
	if err != nil {
		t.Fatalf("reading internal/: %v", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "arch_test" {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// sourceFile is a parsed Go file of an internal package.
type sourceFile struct {
	path  string // relative to internal/
	test  bool
	lines int
	ast   *ast.File
	fset  *token.FileSet
}

// parsePackage parses every .go file in pkg, test files included.
func parsePackage(t *testing.T, pkg string) []sourceFile {
	t.Helper()
	dir := filepath.Join(internalDir(t), pkg)
	names, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		t.Fatalf("glob %s: %v", dir, err)
	}
	sort.Strings(names)

	out := make([]sourceFile, 0, len(names))
	for _, name := range names {
		src, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		out = append(out, sourceFile{
			path:  filepath.Join(pkg, filepath.Base(name)),
			test:  strings.HasSuffix(name, "_test.go"),
			lines: strings.Count(string(src), "\n"),
			ast:   f,
			fset:  fset,
		})
	}
	return out
}

// internalImports returns the internal packages imported by non-test files.
func internalImports(files []sourceFile) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		if f.test {
			continue
		}
		for _, imp := range f.ast.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil || !strings.HasPrefix(path, internalImport) {
				continue
			}
			seen[strings.SplitN(strings.TrimPrefix(path, internalImport), "/", 2)[0]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
