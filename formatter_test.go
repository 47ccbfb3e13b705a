package testengine

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-testengine/types"
)

type bufferWriter struct {
	strings.Builder
}

func (b *bufferWriter) Write(content string) error {
	_, err := b.WriteString(content)
	return err
}

func TestConsoleResultFormatter_FormatResults(t *testing.T) {
	out := &bufferWriter{}
	formatter := &ConsoleResultFormatter{
		logger: log.New(),
		writer: out,
	}

	require.NoError(t, formatter.FormatResults(leafResult(types.Failure), "run-1"))
	table := out.String()
	assert.Contains(t, strings.ToUpper(table), strings.ToUpper(resultsTitle))
	assert.Contains(t, table, "smoke")
	assert.Contains(t, table, "TestDeposit")
	assert.Contains(t, table, "FAIL")
}

func TestConsoleResultFormatter_NilResult(t *testing.T) {
	formatter := NewConsoleResultFormatter(log.New())
	assert.Error(t, formatter.FormatResults(nil, "run-1"))
}
