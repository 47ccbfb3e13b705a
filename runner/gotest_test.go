package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingStream = `{"Action":"start","Package":"example.com/pkg"}
{"Action":"run","Package":"example.com/pkg","Test":"TestFees"}
{"Action":"output","Package":"example.com/pkg","Test":"TestFees","Output":"=== RUN   TestFees\n"}
{"Action":"run","Package":"example.com/pkg","Test":"TestFees/base"}
{"Action":"output","Package":"example.com/pkg","Test":"TestFees/base","Output":"    fees_test.go:12: \u001b[31mbase fee too low\u001b[0m\n"}
{"Action":"fail","Package":"example.com/pkg","Test":"TestFees/base","Elapsed":0.01}
{"Action":"fail","Package":"example.com/pkg","Test":"TestFees","Elapsed":0.02}
not json
{"Action":"fail","Package":"example.com/pkg","Elapsed":0.03}
`

const buildFailStream = `{"ImportPath":"example.com/pkg [example.com/pkg.test]","Action":"build-output","Output":"# example.com/pkg [example.com/pkg.test]\n"}
{"ImportPath":"example.com/pkg [example.com/pkg.test]","Action":"build-output","Output":"./fees_test.go:9:2: undefined: baseFee\n"}
{"ImportPath":"example.com/pkg [example.com/pkg.test]","Action":"build-fail"}
{"Action":"start","Package":"example.com/pkg"}
{"Action":"output","Package":"example.com/pkg","Output":"FAIL\texample.com/pkg [build failed]\n"}
{"Action":"fail","Package":"example.com/pkg","Elapsed":0,"FailedBuild":"example.com/pkg [example.com/pkg.test]"}
`

// fakeGoBinary writes an executable that prints stream and exits with code
func fakeGoBinary(t *testing.T, stream string, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake go binary needs a POSIX shell")
	}
	dir := t.TempDir()
	streamFile := filepath.Join(dir, "stream.json")
	require.NoError(t, os.WriteFile(streamFile, []byte(stream), 0644))
	script := fmt.Sprintf("#!/bin/sh\ncat '%s'\nexit %d\n", streamFile, code)
	binary := filepath.Join(dir, "go")
	require.NoError(t, os.WriteFile(binary, []byte(script), 0755))
	return binary
}

func TestSummarize(t *testing.T) {
	t.Run("failing test", func(t *testing.T) {
		s := summarize(failingStream, "TestFees")
		assert.Equal(t, ActionFail, s.status)
		assert.Equal(t, 2, s.finished)
		assert.Equal(t, "fees_test.go:12: base fee too low", s.reason())
	})

	t.Run("package mode", func(t *testing.T) {
		s := summarize(failingStream, "")
		assert.Equal(t, ActionFail, s.status)
	})

	t.Run("skipped test", func(t *testing.T) {
		stream := `{"Action":"run","Test":"TestLater"}
{"Action":"output","Test":"TestLater","Output":"    later_test.go:5: needs a devnet\n"}
{"Action":"skip","Test":"TestLater"}
`
		s := summarize(stream, "TestLater")
		assert.Equal(t, ActionSkip, s.status)
		assert.Equal(t, "later_test.go:5: needs a devnet", s.reason())
	})

	t.Run("build failure", func(t *testing.T) {
		s := summarize(buildFailStream, "TestFees")
		assert.True(t, s.buildFailed)
		assert.Empty(t, s.status)
		assert.Contains(t, s.buildReason(), "undefined: baseFee")

		pkg := summarize(buildFailStream, "")
		assert.True(t, pkg.buildFailed)
		assert.Equal(t, ActionFail, pkg.status)
	})

	t.Run("build failure without build events", func(t *testing.T) {
		stream := `{"Action":"output","Package":"example.com/pkg","Output":"FAIL\texample.com/pkg [build failed]\n"}
{"Action":"fail","Package":"example.com/pkg"}
`
		s := summarize(stream, "")
		assert.True(t, s.buildFailed)
		assert.Empty(t, s.buildReason())
	})

	t.Run("no events", func(t *testing.T) {
		s := summarize("", "TestMissing")
		assert.Empty(t, s.status)
		assert.Zero(t, s.finished)
	})
}

func TestGoTest_Args(t *testing.T) {
	single := GoTest{Package: "./pkg/fees", Name: "TestFees"}
	assert.Equal(t, []string{"test", "-json", "-count", "1", "./pkg/fees", "-run", "^TestFees$"}, single.args())

	pkg := GoTest{Package: "./pkg/fees"}
	assert.Equal(t, []string{"test", "-json", "-count", "1", "./pkg/fees"}, pkg.args())
	require.NotNil(t, pkg.Method())
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(8)
	n, err := b.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.False(t, b.Truncated())

	_, err = b.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, "lo world", b.String())
	assert.True(t, b.Truncated())

	big := newTailBuffer(0)
	_, _ = big.Write([]byte(strings.Repeat("x", 10)))
	assert.Equal(t, 10, len(big.String()))
}

func TestGoTest_BuildFailureIsError(t *testing.T) {
	binary := fakeGoBinary(t, buildFailStream, 1)

	ids := types.NewSequenceIDs("", 0)
	suite := types.NewSuite(ids, "pkg").Add(
		types.NewLeaf(ids, "TestFees", GoTest{GoBinary: binary, Package: "./pkg", Name: "TestFees"}.Method()),
		types.NewLeaf(ids, "run_all", GoTest{GoBinary: binary, Package: "./pkg"}.Method()),
	)

	result, err := Run(context.Background(), suite, nil, testOptions())
	require.NoError(t, err)
	require.Len(t, result.Children, 2)

	for _, child := range result.Children {
		assert.Equal(t, types.Error, child.State, child.Test.Name())
		assert.Contains(t, child.Message, "test compilation failed", child.Test.Name())
		assert.Contains(t, child.Message, "undefined: baseFee", child.Test.Name())
	}
	assert.Equal(t, types.Failure, result.State)
}

func TestGoTest_PassingStream(t *testing.T) {
	stream := `{"Action":"run","Test":"TestFees"}
{"Action":"pass","Test":"TestFees","Elapsed":0.01}
{"Action":"pass","Package":"example.com/pkg","Elapsed":0.02}
`
	binary := fakeGoBinary(t, stream, 0)
	result := runSingle(t, GoTest{GoBinary: binary, Package: "./pkg", Name: "TestFees"}.Method())

	assert.Equal(t, types.Success, result.State)
	assert.Equal(t, 1, result.AssertCount)
}
