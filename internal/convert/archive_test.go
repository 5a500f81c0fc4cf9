package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

func twoOutputs() model.ConversionResult {
	return model.ConversionResult{Outputs: []model.Output{
		{Name: "s_r01.asc", Content: "1.0000 2.0\n"},
		{Name: "s_r02.asc", Content: "3.0000 4.0\n"},
	}}
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, twoOutputs().Outputs))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "s_r01.asc", zr.File[0].Name)
	assert.Equal(t, "s_r02.asc", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer func() {
		_ = rc.Close()
	}()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "3.0000 4.0\n", string(content))
}

func TestWriteOutputs(t *testing.T) {
	t.Run("SingleFile", func(t *testing.T) {
		dir := t.TempDir()
		result := model.ConversionResult{Outputs: twoOutputs().Outputs[:1]}
		paths, err := WriteOutputs(result, WriteOptions{Dir: dir, Base: "s"})
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join(dir, "s_r01.asc")}, paths)
		data, err := os.ReadFile(paths[0])
		require.NoError(t, err)
		assert.Equal(t, "1.0000 2.0\n", string(data))
	})
	t.Run("SeveralBecomeArchive", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := WriteOutputs(twoOutputs(), WriteOptions{Dir: dir, Base: "s"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "s_converted.zip")}, paths)
	})
	t.Run("ForceZip", func(t *testing.T) {
		dir := t.TempDir()
		result := model.ConversionResult{Outputs: twoOutputs().Outputs[:1]}
		paths, err := WriteOutputs(result, WriteOptions{Dir: dir, Base: "s", ForceZip: true})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "s_converted.zip")}, paths)
	})
	t.Run("NoZip", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		paths, err := WriteOutputs(twoOutputs(), WriteOptions{Dir: dir, Base: "s", NoZip: true})
		require.NoError(t, err)
		assert.Len(t, paths, 2)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
	t.Run("RegularPermissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permissions")
		}
		dir := t.TempDir()
		paths, err := WriteOutputs(twoOutputs(), WriteOptions{Dir: dir, Base: "s", NoZip: true})
		require.NoError(t, err)
		for _, p := range paths {
			info, err := os.Stat(p)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o644), info.Mode().Perm(), p)
		}
	})
	t.Run("Nothing", func(t *testing.T) {
		paths, err := WriteOutputs(model.ConversionResult{}, WriteOptions{Dir: t.TempDir(), Base: "s"})
		require.NoError(t, err)
		assert.Nil(t, paths)
	})
}
