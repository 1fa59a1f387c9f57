package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add opus table", "add_opus_table"},
		{"Add-Opus-Table", "add_opus_table"},
		{"ADD_OPUS_TABLE", "add_opus_table"},
		{"add__opus__table", "add_opus_table"},
		{"Index 2 bulls", "index_2_bulls"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create clients", "Client directory")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_clients.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_clients.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: create clients")
	assert.Contains(t, string(up), "-- Client directory")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Rollback: create clients")

	second, err := CreateMigration(dir, "add bull index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_add_bull_index.up.sql", filepath.Base(second.UpPath))
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_ContinuesAfterHighestVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_legacy.up.sql"), nil, 0o644))

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint(8), mf.Version)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_create_ledger.up.sql",
		"000002_create_ledger.down.sql",
		"000001_create_directory.up.sql",
		"000001_create_directory.down.sql",
		"000003_only_up.up.sql",
		"README.md",
		"notes.sql",
		"abc_bad_version.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000004_dir.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, Migration{Version: 1, Name: "create_directory", HasUp: true, HasDown: true}, migrations[0])
	assert.Equal(t, "000002_create_ledger", migrations[1].FileBase())
	assert.True(t, migrations[2].HasUp)
	assert.False(t, migrations[2].HasDown)
}

func TestListMigrations_DuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_a.up.sql"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_b.up.sql"), nil, 0o644))

	_, err := ListMigrations(dir)
	assert.Error(t, err)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

// The shipped schema must be a gapless sequence of reversible migrations.
func TestShippedMigrations(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, uint(i+1), m.Version, m.FileBase())
		assert.True(t, m.HasUp, m.FileBase())
		assert.True(t, m.HasDown, m.FileBase())
	}
}

func TestWithMigrationsTable(t *testing.T) {
	assert.Equal(t,
		"postgres://u@h/db?x-migrations-table="+DefaultTable,
		withMigrationsTable("postgres://u@h/db"))
	assert.Equal(t,
		"postgres://u@h/db?sslmode=disable&x-migrations-table="+DefaultTable,
		withMigrationsTable("postgres://u@h/db?sslmode=disable"))
	assert.Equal(t,
		"postgres://u@h/db?x-migrations-table=custom",
		withMigrationsTable("postgres://u@h/db?x-migrations-table=custom"))
}
