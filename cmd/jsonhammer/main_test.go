package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alexflint/go-arg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, argv ...string) args {
	t.Helper()
	var a args
	p, err := arg.NewParser(arg.Config{}, &a)
	require.NoError(t, err)
	require.NoError(t, p.Parse(argv))
	return a
}

func TestParseDefaults(t *testing.T) {
	a := parse(t)

	assert.Equal(t, "settings.json", a.Settings)
	o := a.overrides()
	assert.Nil(t, o.Copies)
	assert.Nil(t, o.OutputDir)
	assert.Nil(t, o.MaxThreads)
	assert.Nil(t, o.Gateway)
	assert.Nil(t, o.Seed)
}

func TestParseOverrides(t *testing.T) {
	a := parse(t, "-c", "5", "-o", "build", "-m", "8", "-g", "http://localhost:5001", "--seed", "42", "-d")

	o := a.overrides()
	require.NotNil(t, o.Copies)
	assert.Equal(t, 5, *o.Copies)
	assert.Equal(t, "build", *o.OutputDir)
	assert.Equal(t, 8, *o.MaxThreads)
	assert.Equal(t, "http://localhost:5001", *o.Gateway)
	assert.Equal(t, int64(42), *o.Seed)
	assert.True(t, a.Debug)
}

func TestThreadsWinsOverMaxThreads(t *testing.T) {
	a := parse(t, "-m", "8", "-t", "2")
	assert.Equal(t, 2, *a.overrides().MaxThreads)
}

func TestParseRejectsNonNumericCopies(t *testing.T) {
	var a args
	p, err := arg.NewParser(arg.Config{}, &a)
	require.NoError(t, err)
	assert.Error(t, p.Parse([]string{"-c", "many"}))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	printBanner(&buf)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, banner))
	assert.Contains(t, out, "\n"+version+"\n")
	assert.False(t, strings.HasSuffix(out, "\n\n\n"))
}
