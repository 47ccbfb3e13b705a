package testlist

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/mod/modfile"
)

// TestFunction is a top-level test function declared in a _test.go file
type TestFunction struct {
	Name string
	File string
	Line int
}

// ModulePath returns the module path declared by the go.mod in dir
func ModulePath(dir string) (string, error) {
	goModPath := filepath.Join(dir, "go.mod")
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to find go.mod: %w", err)
	}
	modFile, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if modFile.Module == nil || modFile.Module.Mod.Path == "" {
		return "", fmt.Errorf("could not find module name in go.mod")
	}
	return modFile.Module.Mod.Path, nil
}

// PackageDir maps a package path, either relative ("./x") or inside the
// module rooted at workingDir, to its directory.
func PackageDir(pkgPath string, workingDir string) (string, error) {
	if pkgPath == "." || strings.HasPrefix(pkgPath, "./") {
		return filepath.Join(workingDir, pkgPath), nil
	}

	moduleName, err := ModulePath(workingDir)
	if err != nil {
		return "", err
	}
	if pkgPath != moduleName && !strings.HasPrefix(pkgPath, moduleName+"/") {
		return "", fmt.Errorf("package %s is not in module %s", pkgPath, moduleName)
	}
	return filepath.Join(workingDir, strings.TrimPrefix(pkgPath, moduleName)), nil
}

// FindTestFunctions returns the test functions of a package in file order.
// TestMain and names that go test would not run, like Testable, are skipped.
func FindTestFunctions(pkgPath string, workingDir string) ([]TestFunction, error) {
	pkgDir, err := PackageDir(pkgPath, workingDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}

	var testFunctions []TestFunction
	fset := token.NewFileSet()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		filePath := filepath.Join(pkgDir, entry.Name())
		f, err := parser.ParseFile(fset, filePath, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}

		for _, decl := range f.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || funcDecl.Recv != nil || !isTestName(funcDecl.Name.Name) {
				continue
			}
			if funcDecl.Type.Params == nil || funcDecl.Type.Params.NumFields() != 1 {
				continue
			}
			testFunctions = append(testFunctions, TestFunction{
				Name: funcDecl.Name.Name,
				File: entry.Name(),
				Line: fset.Position(funcDecl.Pos()).Line,
			})
		}
	}

	return testFunctions, nil
}

// isTestName applies the go test naming rule: Test followed by nothing or by
// a character that is not a lower case letter.
func isTestName(name string) bool {
	if !strings.HasPrefix(name, "Test") || name == "TestMain" {
		return false
	}
	if len(name) == len("Test") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name[len("Test"):])
	return !unicode.IsLower(r)
}

// FindTestPackages lists every directory below root (which may end in
// "/...") holding at least one _test.go file, as "./" paths relative to
// workingDir.
func FindTestPackages(root string, workingDir string) ([]string, error) {
	root = strings.TrimSuffix(root, "/...")
	if !filepath.IsAbs(root) {
		root = filepath.Join(workingDir, root)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	workingDir, err = filepath.Abs(workingDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory %s does not exist", root)
		}
		return nil, err
	}

	seen := make(map[string]bool)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(workingDir, filepath.Dir(path))
		if err != nil {
			return err
		}
		if rel == "." {
			seen["."] = true
		} else {
			seen["./"+filepath.ToSlash(rel)] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	packages := make([]string, 0, len(seen))
	for pkg := range seen {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)
	return packages, nil
}
