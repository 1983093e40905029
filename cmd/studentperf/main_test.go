package main

import (
	"testing"

	"studentperf/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "import", "train", "compare", "predict", "effects", "intervals", "models", "report", "delete", "demo"} {
		assert.Contains(t, names, want)
	}
}

func TestParseStudentIDs(t *testing.T) {
	ids, err := parseStudentIDs([]string{"3", " 7"})
	require.NoError(t, err)
	assert.Equal(t, []core.StudentID{3, 7}, ids)

	_, err = parseStudentIDs([]string{"x"})
	assert.Error(t, err)
}

func TestDemo(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")
	root := newRootCmd()
	root.SetArgs([]string{"demo", "--students", "150", "--log-level", "error"})
	require.NoError(t, root.Execute())
}
