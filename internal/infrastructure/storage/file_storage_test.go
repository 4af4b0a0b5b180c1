package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveAndRead(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := zap.NewDevelopment()
	fs := NewLocalFileStorage(tempDir, logger)
	ctx := context.Background()

	t.Run("creates parent directories", func(t *testing.T) {
		err := fs.Save(ctx, filepath.Join("folders", "f1", "facture.pdf"), []byte("PDF content"))
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(tempDir, "folders", "f1", "facture.pdf"))

		content, err := fs.Read(ctx, filepath.Join("folders", "f1", "facture.pdf"))
		require.NoError(t, err)
		assert.Equal(t, []byte("PDF content"), content)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "quitus/q.xlsx", []byte("original")))
		require.NoError(t, fs.Save(ctx, "quitus/q.xlsx", []byte("updated")))

		content, err := os.ReadFile(filepath.Join(tempDir, "quitus", "q.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Join(tempDir, "quitus"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestLocalFileStorage_RejectsEscapes(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	err := fs.Save(ctx, "../outside.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrPathEscape)

	_, err = fs.Read(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrPathEscape)

	assert.ErrorIs(t, fs.Delete(ctx, ""), ErrPathEscape, "the root itself is not a file")
	assert.False(t, fs.Exists(ctx, "../outside.txt"))
}

func TestLocalFileStorage_Delete(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "a/b.txt", []byte("x")))
	assert.True(t, fs.Exists(ctx, "a/b.txt"))

	require.NoError(t, fs.Delete(ctx, "a/b.txt"))
	assert.False(t, fs.Exists(ctx, "a/b.txt"))

	assert.NoError(t, fs.Delete(ctx, "a/b.txt"), "deleting a missing file is idempotent")
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"facture.pdf", "facture.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\x\Bon de commande.pdf`, "Bon de commande.pdf"},
		{"état<>de|frais?.xlsx", "étatdefrais.xlsx"},
		{"..", "document"},
		{"", "document"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}
