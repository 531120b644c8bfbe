package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "version"), "quill version 0.1.0")
}

func TestExec_NodeInfo(t *testing.T) {
	out := run(t, "exec", "get_node_info", `{"nodeId":"1:2"}`, "-q")
	assert.Contains(t, out, `"characters": "Hello World"`)
}

func TestExec_BatchRendersReport(t *testing.T) {
	out := run(t, "exec", "set_multiple_text_contents",
		`{"nodeId":"1:1","text":[{"nodeId":"1:2","text":"Hi"},{"nodeId":"9:9","text":"x"}]}`, "-q")
	assert.Contains(t, out, "**1** of 2 applied")
}

func TestScan(t *testing.T) {
	out := run(t, "scan", "-q")
	assert.Contains(t, out, "| 1:2 |")
}

func TestOutline(t *testing.T) {
	out := run(t, "outline", "--highlight", "Title", "-q")
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "class n_1_2 match;")
}
