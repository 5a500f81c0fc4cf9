package descriptor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDecode(t *testing.T) {
	t.Run("Windows1251", func(t *testing.T) {
		raw, err := charmap.Windows1251.NewEncoder().String("[Comment]\nОбразец кварца\n")
		require.NoError(t, err)
		text, err := Decode([]byte(raw), "windows-1251")
		require.NoError(t, err)
		assert.Equal(t, "[Comment]\nОбразец кварца\n", text)
	})
	t.Run("DefaultUTF8StripsBOM", func(t *testing.T) {
		text, err := Decode([]byte("\xef\xbb\xbf[General]\n"), "")
		require.NoError(t, err)
		assert.Equal(t, "[General]\n", text)
	})
	t.Run("UnknownLabel", func(t *testing.T) {
		_, err := Decode([]byte("x"), "klingon-8")
		assert.ErrorIs(t, err, ErrUnknownEncoding)
	})
}

func TestKnownEncoding(t *testing.T) {
	assert.True(t, KnownEncoding("utf-8"))
	assert.True(t, KnownEncoding(" Windows-1251 "))
	assert.False(t, KnownEncoding("klingon-8"))
	assert.False(t, KnownEncoding(""))
}

func TestRead(t *testing.T) {
	raw, err := charmap.KOI8R.NewEncoder().String("[comment]\nпривет\n[intervals]\n1;2;0.1;0;0;0;0;0;1;raw\n")
	require.NoError(t, err)
	desc, err := Read(strings.NewReader(raw), "koi8-r")
	require.NoError(t, err)
	assert.Equal(t, []string{"привет"}, desc.Comments)
	assert.Len(t, desc.Intervals, 1)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "scan.dsc")
	require.NoError(t, os.WriteFile(valid, []byte(sampleDescriptor), 0o644))
	desc, err := Load(valid, "utf-8")
	require.NoError(t, err)
	assert.Len(t, desc.Intervals, 2)

	empty := filepath.Join(dir, "empty.dsc")
	require.NoError(t, os.WriteFile(empty, []byte("[General]\nmethod=1\n"), 0o644))
	desc, err = Load(empty, "utf-8")
	assert.ErrorIs(t, err, ErrNoIntervals)
	assert.Equal(t, "1", desc.General["method"])

	_, err = Load(filepath.Join(dir, "missing.dsc"), "utf-8")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
