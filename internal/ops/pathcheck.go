package ops

import (
	"os"
	"path/filepath"
	"strings"
)

// IsWritable reports whether path exists and can be written to.
// Directories are probed by creating and removing a temporary file; regular
// files are probed by opening them write-only. It never returns an error:
// any failure is reported as false.
func IsWritable(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.IsDir() {
		probe, err := os.CreateTemp(path, ".skim-probe-*")
		if err != nil {
			return false
		}
		name := probe.Name()
		probe.Close()
		_ = os.Remove(name)
		return true
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// HasWriteAccess reports whether path is an existing directory with a write
// permission bit set. It only stats the path and leaves the folder untouched;
// IsWritable is the authoritative check.
func HasWriteAccess(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o222 != 0
}

// DefaultOutputDir returns the platform documents folder (~/Documents) when it
// exists, else the home directory, else the system temp directory.
func DefaultOutputDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return os.TempDir()
	}

	docs := filepath.Join(homeDir, "Documents")
	if info, err := os.Stat(docs); err == nil && info.IsDir() {
		return docs
	}
	return homeDir
}

// SanitizeForFilename sanitizes a string for safe use in a filename.
// Removes/replaces characters that could be used for path traversal or injection.
func SanitizeForFilename(s string) string {
	// Replace path separators with dashes
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")

	// Replace ".." sequences (could be embedded)
	s = strings.ReplaceAll(s, "..", "-")

	// Remove null bytes and other control characters
	var result strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	s = result.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}

	s = strings.TrimSpace(strings.Trim(s, "-"))

	if s == "" {
		s = "unnamed"
	}

	return s
}
