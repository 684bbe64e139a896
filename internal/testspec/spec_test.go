package testspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "add.yaml")
	content := `id: add-basic
description: "constant folds an arithmetic form"
source: "(+ 1 2)"
strategy: ir
optimize_level: basic
expected_value: "3"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := LoadSpec(path)
	require.NoError(t, err)
	require.Equal(t, "add-basic", s.ID)
	require.Equal(t, "(+ 1 2)", s.Source)
	require.Equal(t, "3", s.ExpectedValue)
}

func TestLoadSpec_MissingID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: \"1\"\n"), 0644))

	_, err := LoadSpec(path)
	require.Error(t, err)
}

func TestLoadSpecs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("id: a\nsource: \"1\"\nexpected_value: \"1\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("id: b\nsource: \"2\"\nexpected_value: \"2\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))

	specs, err := LoadSpecs(dir)
	require.NoError(t, err)
	require.Len(t, specs, 2)
}
