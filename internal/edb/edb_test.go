package edb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeEDB(t *testing.T, dir string, templates map[string][]byte, order []string) (string, string) {
	t.Helper()
	edbPath := filepath.Join(dir, "enroll.edb")
	manPath := filepath.Join(dir, "enroll.manifest")
	w, err := Create(edbPath, manPath)
	require.NoError(t, err)
	for _, id := range order {
		require.NoError(t, w.Append(id, templates[id]))
	}
	require.Equal(t, len(order), w.Count())
	require.NoError(t, w.Close())
	return edbPath, manPath
}

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	templates := map[string][]byte{
		"s1": []byte("alpha"),
		"s2": {},
		"s3": []byte("gamma-gamma"),
	}
	order := []string{"s1", "s2", "s3"}
	edbPath, manPath := writeEDB(t, dir, templates, order)

	manifest, err := os.ReadFile(manPath)
	require.NoError(t, err)
	require.Equal(t, "s1 5 0\ns2 0 5\ns3 11 5\n", string(manifest))

	r, err := Open(edbPath, manPath)
	require.NoError(t, err)
	defer r.Close()

	entries := r.Entries()
	require.Len(t, entries, 3)
	for i, e := range entries {
		require.Equal(t, order[i], e.TemplateID)
		data, err := r.Read(e)
		require.NoError(t, err)
		require.Equal(t, len(templates[e.TemplateID]), len(data))
		if len(data) > 0 {
			require.Equal(t, templates[e.TemplateID], data)
		}
	}
}

func TestAppendRejectsBadID(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "e"), filepath.Join(dir, "m"))
	require.NoError(t, err)
	defer w.Close()

	require.ErrorIs(t, w.Append("", []byte("x")), ErrInvalidID)
	require.ErrorIs(t, w.Append("has space", []byte("x")), ErrInvalidID)
}

func TestParseManifestErrors(t *testing.T) {
	_, err := ParseManifest(strings.NewReader("s1 5\n"))
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = ParseManifest(strings.NewReader("s1 five 0\n"))
	require.ErrorIs(t, err, ErrCorrupt)

	entries, err := ParseManifest(strings.NewReader("\ns1 1 0\n\n"))
	require.NoError(t, err)
	require.Equal(t, []Entry{{TemplateID: "s1", Size: 1, Offset: 0}}, entries)
}

func TestOpenDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	edbPath := filepath.Join(dir, "enroll.edb")
	manPath := filepath.Join(dir, "enroll.manifest")
	require.NoError(t, os.WriteFile(edbPath, []byte("abcdef"), 0o600))

	require.NoError(t, os.WriteFile(manPath, []byte("s1 3 0\ns2 3 4\n"), 0o600))
	_, err := Open(edbPath, manPath)
	require.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, os.WriteFile(manPath, []byte("s1 3 0\n"), 0o600))
	_, err = Open(edbPath, manPath)
	require.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, os.WriteFile(manPath, []byte("s1 3 0\ns2 3 3\n"), 0o600))
	r, err := Open(edbPath, manPath)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestOpenMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "nope.edb"), filepath.Join(dir, "nope.manifest"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
