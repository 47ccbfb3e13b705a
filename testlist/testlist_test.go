package testlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(funcs []TestFunction) []string {
	out := make([]string, 0, len(funcs))
	for _, f := range funcs {
		out = append(out, f.Name)
	}
	return out
}

func TestFindTestFunctions(t *testing.T) {
	tests := []struct {
		name    string
		pkgPath string
		goMod   string
	}{
		{
			name:    "module path",
			pkgPath: "github.com/test/module/pkg",
			goMod:   "module github.com/test/module\n\ngo 1.21\n",
		},
		{
			name:    "relative path",
			pkgPath: "./pkg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if tt.goMod != "" {
				require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte(tt.goMod), 0644))
			}
			pkgDir := filepath.Join(tmpDir, "pkg")
			require.NoError(t, os.MkdirAll(pkgDir, 0755))
			createTestFiles(t, pkgDir)

			testFuncs, err := FindTestFunctions(tt.pkgPath, tmpDir)
			require.NoError(t, err)
			// ReadDir sorts files, so benchmark_test.go comes first
			assert.Equal(t, []string{"TestWithBenchmark", "TestWithMain", "TestNormal", "TestAnother", "Test_Underscore"}, names(testFuncs))
		})
	}
}

func TestFindTestFunctions_Positions(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	funcs, err := FindTestFunctions(".", tmpDir)
	require.NoError(t, err)
	require.NotEmpty(t, funcs)

	assert.Equal(t, TestFunction{Name: "TestWithBenchmark", File: "benchmark_test.go", Line: 5}, funcs[0])
}

func TestFindTestFunctionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		pkgPath string
		goMod   string
		wantErr string
	}{
		{
			name:    "missing go.mod for module path",
			pkgPath: "github.com/test/module/pkg",
			wantErr: "failed to find go.mod",
		},
		{
			name:    "invalid go.mod",
			pkgPath: "github.com/test/module/pkg",
			goMod:   "invalid content",
			wantErr: "failed to parse go.mod",
		},
		{
			name:    "package not in module",
			pkgPath: "github.com/other/module/pkg",
			goMod:   "module github.com/test/module\n\ngo 1.21\n",
			wantErr: "package github.com/other/module/pkg is not in module github.com/test/module",
		},
		{
			name:    "module prefix is not a path boundary",
			pkgPath: "github.com/test/modulefoo/pkg",
			goMod:   "module github.com/test/module\n\ngo 1.21\n",
			wantErr: "is not in module",
		},
		{
			name:    "relative path not found",
			pkgPath: "./nonexistent",
			wantErr: "failed to read package directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if tt.goMod != "" {
				require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte(tt.goMod), 0644))
			}

			_, err := FindTestFunctions(tt.pkgPath, tmpDir)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestModulePath(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte("module example.com/acceptance\n\ngo 1.22\n"), 0644))

	path, err := ModulePath(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/acceptance", path)

	dir, err := PackageDir("example.com/acceptance/base", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "base"), dir)

	dir, err = PackageDir("example.com/acceptance", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, dir)
}

func TestFindTestPackages(t *testing.T) {
	tmpDir := t.TempDir()
	testContent := "package test\nimport \"testing\"\nfunc TestExample(t *testing.T) {}\n"

	for _, dir := range []string{"pkg1", "pkg2", "subdir/pkg3", "testdata/fixture", ".hidden"} {
		full := filepath.Join(tmpDir, dir)
		require.NoError(t, os.MkdirAll(full, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(full, "x_test.go"), []byte(testContent), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "regular_file.go"), []byte("package main"), 0644))

	packages, err := FindTestPackages(tmpDir, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"./pkg1", "./pkg2", "./subdir/pkg3"}, packages)

	packages, err = FindTestPackages("./subdir/...", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"./subdir/pkg3"}, packages)
}

func TestFindTestPackages_Root(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root_test.go"), []byte("package root\n"), 0644))

	packages, err := FindTestPackages(tmpDir+"/...", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, packages)
}

func TestFindTestPackages_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	packages, err := FindTestPackages(tmpDir, tmpDir)
	require.NoError(t, err)
	assert.Empty(t, packages)

	_, err = FindTestPackages(filepath.Join(tmpDir, "nonexistent"), tmpDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestIsTestName(t *testing.T) {
	assert.True(t, isTestName("Test"))
	assert.True(t, isTestName("TestFoo"))
	assert.True(t, isTestName("Test_foo"))
	assert.True(t, isTestName("Test1"))
	assert.False(t, isTestName("Testable"))
	assert.False(t, isTestName("TestMain"))
	assert.False(t, isTestName("BenchmarkFoo"))
}

func createTestFiles(t *testing.T, pkgDir string) {
	testFiles := map[string]string{
		"normal_test.go": `package pkg

func TestNormal(t *testing.T)      {}
func TestAnother(t *testing.T)     {}
func Test_Underscore(t *testing.T) {}
func Testable()                    {}
func helper(t *testing.T)          {}
`,
		"main_test.go": `package pkg

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func TestWithMain(t *testing.T) {}
`,
		"benchmark_test.go": `package pkg

func BenchmarkSomething(b *testing.B) {}

func TestWithBenchmark(t *testing.T) {}
`,
	}

	for filename, content := range testFiles {
		require.NoError(t, os.WriteFile(filepath.Join(pkgDir, filename), []byte(content), 0644))
	}
}
