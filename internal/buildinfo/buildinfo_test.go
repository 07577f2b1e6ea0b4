package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	Version, Date, Commit = "v1.0.0", "2026-01-01", "abc123"

	var buf bytes.Buffer
	PrintBuildData(&buf)

	assert.Equal(t, "Build version: v1.0.0\nBuild date: 2026-01-01\nBuild commit: abc123\n", buf.String())
}
