package homelab

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jhoonb/archivex"
)

const backupTimeLayout = "20060102-150405"

var backupNameRe = regexp.MustCompile(`^homelab-backup-(\d{8}-\d{6})\.tar\.gz$`)

// timeNow is swappable in tests.
var timeNow = time.Now

func backupName(t time.Time) string {
	return fmt.Sprintf("homelab-backup-%s.tar.gz", t.UTC().Format(backupTimeLayout))
}

// CreateBackup stages the stack and instance config files (and optionally
// per-volume tarballs produced by an ephemeral Alpine container) into a
// temp tree, archives it, and moves the archive into the backup root.
func CreateBackup(cfg Config, includeVolumes bool) (string, error) {
	if err := ensureDir(cfg.BackupRoot, 0o750); err != nil {
		return "", err
	}

	staging, err := os.MkdirTemp("", "homelab-backup-*")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	contentDir := filepath.Join(staging, "backup")
	if err := stageConfigFiles(cfg, filepath.Join(contentDir, "config")); err != nil {
		return "", err
	}

	if includeVolumes {
		if err := stageVolumes(cfg, filepath.Join(contentDir, "volumes")); err != nil {
			return "", err
		}
	}

	archivePath := filepath.Join(staging, "archive.tar.gz")
	tarFile := new(archivex.TarFile)
	if err := tarFile.Create(archivePath); err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	if err := tarFile.AddAll(contentDir, false); err != nil {
		tarFile.Close()
		return "", fmt.Errorf("archive staging dir: %w", err)
	}
	if err := tarFile.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	target := filepath.Join(cfg.BackupRoot, backupName(timeNow()))
	if err := moveFile(archivePath, target); err != nil {
		return "", fmt.Errorf("store archive: %w", err)
	}
	return target, nil
}

func stageConfigFiles(cfg Config, dst string) error {
	if err := ensureDir(dst, 0o750); err != nil {
		return err
	}

	for _, name := range []string{"compose.yml", "compose.override.yml", ".env", "enabled.yml"} {
		src := filepath.Join(cfg.HomelabRoot, name)
		if !fileExists(src) {
			continue
		}
		if err := copyFile(src, filepath.Join(dst, name)); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}

	for _, inst := range InstalledInstances(cfg, "") {
		instDir := filepath.Join(cfg.InstanceRoot, inst)
		for _, name := range []string{"compose.yml", ".env"} {
			src := filepath.Join(instDir, name)
			if !fileExists(src) {
				continue
			}
			target := filepath.Join(dst, "instances", inst, name)
			if err := copyFile(src, target); err != nil {
				return fmt.Errorf("stage %s/%s: %w", inst, name, err)
			}
		}
	}
	return nil
}

// stageVolumes dumps each role volume through a throwaway Alpine container
// so the host never touches the volume filesystem directly.
func stageVolumes(cfg Config, dst string) error {
	if _, err := exec.LookPath("docker"); err != nil {
		fmt.Printf("%s docker not found, skipping volume backup\n", color.YellowString("!"))
		return nil
	}
	if err := ensureDir(dst, 0o750); err != nil {
		return err
	}

	for _, inst := range InstalledInstances(cfg, "") {
		role := roleOf(inst)
		if role == "" {
			continue
		}
		for _, vol := range RoleCatalog[role].Volumes {
			volume := inst + "_" + vol
			if !dockerVolumeExists(volume) {
				fmt.Printf("%s volume %s not found, skipping\n", color.YellowString("!"), volume)
				continue
			}
			out := volume + ".tar.gz"
			err := RunCmdStream("docker", "run", "--rm",
				"-v", volume+":/source:ro",
				"-v", dst+":/backup",
				"alpine",
				"tar", "czf", "/backup/"+out, "-C", "/source", ".")
			if err != nil {
				return fmt.Errorf("backup volume %s: %w", volume, err)
			}
			fmt.Printf("%s backed up volume %s\n", color.GreenString("✓"), volume)
		}
	}
	return nil
}

func dockerVolumeExists(name string) bool {
	_, err := RunCmdCapture("docker", "volume", "inspect", name)
	return err == nil
}

type BackupEntry struct {
	Name      string
	Path      string
	Timestamp time.Time
	Size      int64
}

func ListBackups(cfg Config) ([]BackupEntry, error) {
	entries, err := os.ReadDir(cfg.BackupRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []BackupEntry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := backupNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		ts, err := time.ParseInLocation(backupTimeLayout, m[1], time.UTC)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupEntry{
			Name:      entry.Name(),
			Path:      filepath.Join(cfg.BackupRoot, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// CleanupBackups removes archives older than the retention window. Files
// that do not match the backup name pattern are never touched.
func CleanupBackups(cfg Config, now time.Time) (int, error) {
	backups, err := ListBackups(cfg)
	if err != nil {
		return 0, err
	}

	cutoff := now.UTC().AddDate(0, 0, -cfg.RetentionDays)
	removed := 0
	for _, b := range backups {
		if !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", b.Name, err)
		}
		removed++
	}
	return removed, nil
}

// RestoreBackup extracts config files back under the stack and instance
// roots and pushes volume tarballs back through an ephemeral Alpine
// container.
func RestoreBackup(cfg Config, archivePath string, restoreVolumes bool) error {
	reader, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	gzipReader, err := gzip.NewReader(reader)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		name := filepath.ToSlash(header.Name)
		info := header.FileInfo()
		if info.IsDir() {
			continue
		}

		switch {
		case strings.HasPrefix(name, "config/instances/"):
			rel := strings.TrimPrefix(name, "config/instances/")
			dest := filepath.Join(cfg.InstanceRoot, filepath.FromSlash(rel))
			fmt.Printf("%s restoring %s\n", color.GreenString("→"), dest)
			if err := extractFile(dest, tarReader, info); err != nil {
				return err
			}

		case strings.HasPrefix(name, "config/"):
			rel := strings.TrimPrefix(name, "config/")
			dest := filepath.Join(cfg.HomelabRoot, filepath.FromSlash(rel))
			fmt.Printf("%s restoring %s\n", color.GreenString("→"), dest)
			if err := extractFile(dest, tarReader, info); err != nil {
				return err
			}

		case strings.HasPrefix(name, "volumes/"):
			if !restoreVolumes {
				continue
			}
			if err := restoreVolume(strings.TrimPrefix(name, "volumes/"), tarReader); err != nil {
				return err
			}
		}
	}
	return nil
}

func extractFile(dest string, src io.Reader, info os.FileInfo) error {
	if err := ensureDir(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, src)
	return err
}

func restoreVolume(tarball string, src io.Reader) error {
	volume := strings.TrimSuffix(tarball, ".tar.gz")
	if volume == tarball {
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "homelab-restore-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, tarball)
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmpFile, src); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	fmt.Printf("%s restoring volume %s\n", color.GreenString("→"), volume)
	err = RunCmdStream("docker", "run", "--rm",
		"-v", volume+":/target",
		"-v", tmpDir+":/backup:ro",
		"alpine",
		"sh", "-c", "rm -rf /target/* && tar xzf /backup/"+tarball+" -C /target")
	if err != nil {
		return fmt.Errorf("restore volume %s: %w", volume, err)
	}
	return nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy.
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
