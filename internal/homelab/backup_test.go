package homelab

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupName(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	name := backupName(ts)
	assert.Equal(t, "homelab-backup-20240315-103000.tar.gz", name)
	assert.Regexp(t, backupNameRe, name)
}

func TestBackupNameRe(t *testing.T) {
	assert.True(t, backupNameRe.MatchString("homelab-backup-20240315-103000.tar.gz"))
	assert.False(t, backupNameRe.MatchString("homelab-backup-20240315.tar.gz"))
	assert.False(t, backupNameRe.MatchString("notes.txt"))
	assert.False(t, backupNameRe.MatchString("homelab-backup-20240315-103000.tar.gz.bak"))
}

func testBackupConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	return Config{
		HomelabRoot:   root,
		InstanceRoot:  filepath.Join(root, "instances"),
		BackupRoot:    filepath.Join(root, "backups"),
		RetentionDays: 7,
	}
}

func TestCreateAndRestoreBackup(t *testing.T) {
	cfg := testBackupConfig(t)

	envContent := "DOMAIN=example.com\nACME_EMAIL=ops@example.com\n"
	composeContent := "services:\n  traefik:\n    image: traefik:v3.1\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.HomelabRoot, ".env"), []byte(envContent), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.HomelabRoot, "compose.yml"), []byte(composeContent), 0o640))

	// One installed instance with its own config.
	instDir := filepath.Join(cfg.InstanceRoot, "mysql-dev")
	require.NoError(t, os.MkdirAll(instDir, 0o750))
	instEnv := "MYSQL_ROOT_PASSWORD=secret\nINSTANCE_NAME=dev\n"
	require.NoError(t, os.WriteFile(filepath.Join(instDir, ".env"), []byte(instEnv), 0o640))

	archive, err := CreateBackup(cfg, false)
	require.NoError(t, err)
	assert.Regexp(t, backupNameRe, filepath.Base(archive))
	assert.FileExists(t, archive)

	// Restore into a fresh tree and compare byte-for-byte.
	restored := testBackupConfig(t)
	require.NoError(t, os.MkdirAll(restored.HomelabRoot, 0o750))
	require.NoError(t, RestoreBackup(restored, archive, false))

	got, err := os.ReadFile(filepath.Join(restored.HomelabRoot, ".env"))
	require.NoError(t, err)
	assert.Equal(t, envContent, string(got))

	got, err = os.ReadFile(filepath.Join(restored.HomelabRoot, "compose.yml"))
	require.NoError(t, err)
	assert.Equal(t, composeContent, string(got))

	got, err = os.ReadFile(filepath.Join(restored.InstanceRoot, "mysql-dev", ".env"))
	require.NoError(t, err)
	assert.Equal(t, instEnv, string(got))
}

func TestListBackupsSortsNewestFirst(t *testing.T) {
	cfg := testBackupConfig(t)
	require.NoError(t, os.MkdirAll(cfg.BackupRoot, 0o750))

	for _, name := range []string{
		"homelab-backup-20240101-000000.tar.gz",
		"homelab-backup-20240301-000000.tar.gz",
		"homelab-backup-20240201-000000.tar.gz",
		"unrelated-file.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.BackupRoot, name), []byte("x"), 0o640))
	}

	backups, err := ListBackups(cfg)
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "homelab-backup-20240301-000000.tar.gz", backups[0].Name)
	assert.Equal(t, "homelab-backup-20240201-000000.tar.gz", backups[1].Name)
	assert.Equal(t, "homelab-backup-20240101-000000.tar.gz", backups[2].Name)
}

func TestListBackupsMissingRoot(t *testing.T) {
	cfg := testBackupConfig(t)
	backups, err := ListBackups(cfg)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestCleanupBackupsRespectsRetention(t *testing.T) {
	cfg := testBackupConfig(t)
	cfg.RetentionDays = 7
	require.NoError(t, os.MkdirAll(cfg.BackupRoot, 0o750))

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	old := backupName(now.AddDate(0, 0, -10))
	edge := backupName(now.AddDate(0, 0, -7).Add(time.Hour))
	fresh := backupName(now.AddDate(0, 0, -1))
	keepMe := "keep-me.tar.gz"

	for _, name := range []string{old, edge, fresh, keepMe} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.BackupRoot, name), []byte("x"), 0o640))
	}

	removed, err := CleanupBackups(cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, filepath.Join(cfg.BackupRoot, old))
	assert.FileExists(t, filepath.Join(cfg.BackupRoot, edge))
	assert.FileExists(t, filepath.Join(cfg.BackupRoot, fresh))
	assert.FileExists(t, filepath.Join(cfg.BackupRoot, keepMe))
}

func TestMoveFileAcrossDirs(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.txt")
	dst := filepath.Join(t.TempDir(), "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o640))

	require.NoError(t, moveFile(src, dst))
	assert.NoFileExists(t, src)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}
