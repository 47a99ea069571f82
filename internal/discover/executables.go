// Package discover enumerates executable candidates on the local system:
// binaries reachable through PATH and applications declared by freedesktop
// .desktop entries. Scanners are one-shot and tolerate per-entry failures.
package discover

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileType classifies an executable by its leading magic bytes. Informational
// only; it never affects ranking.
type FileType string

const (
	TypeELF    FileType = "elf"
	TypeMachO  FileType = "mach-o"
	TypeScript FileType = "script"
	TypeOther  FileType = "other"
)

var magicNumbers = []struct {
	Type  FileType
	Magic []byte
}{
	{TypeELF, []byte{0x7f, 0x45, 0x4c, 0x46}},
	{TypeMachO, []byte{0xfe, 0xed, 0xfa, 0xce}},
	{TypeMachO, []byte{0xfe, 0xed, 0xfa, 0xcf}},
	{TypeScript, []byte("#!")},
}

// User-specific executable directories that may not be on PATH.
var additionalUnixPaths = []string{"~/.local/bin", "~/bin", "/snap/bin"}

// Executable is one discovered program.
type Executable struct {
	Name string
	Path string
	Type FileType
}

// Executables scans every directory on PATH plus the fixed user directories.
// Unreadable directories and entries are skipped; the result is sorted by
// path and deduplicated by symlink-resolved canonical path.
func Executables() []Executable {
	dirs := filepath.SplitList(os.Getenv("PATH"))
	for _, p := range additionalUnixPaths {
		dirs = append(dirs, expandTilde(p))
	}
	return ExecutablesIn(dirs)
}

// ExecutablesIn scans an explicit list of directories.
func ExecutablesIn(dirs []string) []Executable {
	var out []Executable
	seen := make(map[string]bool)

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		scanExecutableDir(dir, &out, seen)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func scanExecutableDir(dir string, out *[]Executable, seen map[string]bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		canonical, err := filepath.EvalSymlinks(path)
		if err != nil {
			// broken symlink or similar; skip
			continue
		}
		if seen[canonical] {
			continue
		}

		if !isExecutable(canonical) {
			continue
		}

		fileType, ok := sniffType(canonical)
		if !ok {
			continue
		}

		seen[canonical] = true
		*out = append(*out, Executable{
			Name: filepath.Base(canonical),
			Path: canonical,
			Type: fileType,
		})
	}
}

// isExecutable requires a regular file with execute and read bits set.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.Mode().IsRegular() {
		return false
	}
	mode := info.Mode().Perm()
	return mode&0111 != 0 && mode&0444 != 0
}

// sniffType reads the first 4 bytes and matches them against known magic
// numbers. Files too short to read even a script shebang are skipped.
func sniffType(path string) (FileType, bool) {
	f, err := os.Open(path)
	if err != nil {
		return TypeOther, false
	}
	defer f.Close()

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	if err != nil || n < 2 {
		return TypeOther, false
	}
	buf = buf[:n]

	for _, m := range magicNumbers {
		if bytes.HasPrefix(buf, m.Magic) {
			return m.Type, true
		}
	}
	return TypeOther, true
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
