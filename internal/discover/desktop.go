package discover

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Standard XDG locations for .desktop files. Entries containing a glob are
// expanded at scan time.
var desktopEntryPaths = []string{
	"~/.local/share/applications",                 // user-specific applications
	"/usr/share/applications",                     // system-wide applications
	"/usr/local/share/applications",               // locally installed applications
	"/var/lib/snapd/desktop/applications",         // snap applications
	"/var/lib/flatpak/exports/share/applications", // flatpak applications
	"~/.var/app/*/desktop",                        // per-user flatpak applications
	"/opt/*/share/applications",                   // applications installed in /opt
	"/usr/share/gnome/applications",               // GNOME-specific applications
	"/usr/share/kde4/applications",                // KDE4 applications
	"/usr/share/kde/applications",                 // KDE applications
}

// https://specifications.freedesktop.org/desktop-entry-spec/latest/exec-variables.html
var fieldCodes = []string{
	"%f", "%F", "%u", "%U", "%d", "%D", "%n", "%N", "%i", "%c", "%k", "%v", "%m",
}

// Field codes that mean the application can take a file or URL argument.
var argumentFieldCodes = []string{"%f", "%F", "%u", "%U"}

// DesktopEntry is a parsed, valid application entry.
type DesktopEntry struct {
	Name        string
	Exec        string // field codes stripped
	Icon        string
	Filename    string
	Categories  []string
	AcceptsArgs bool
}

// DesktopEntries scans the standard XDG locations for application entries.
// Malformed files are silently discarded.
func DesktopEntries() []DesktopEntry {
	var dirs []string
	for _, p := range desktopEntryPaths {
		p = expandTilde(p)
		if strings.Contains(p, "*") {
			matches, err := filepath.Glob(p)
			if err != nil {
				continue
			}
			dirs = append(dirs, matches...)
			continue
		}
		dirs = append(dirs, p)
	}
	return DesktopEntriesIn(dirs)
}

// DesktopEntriesIn scans an explicit list of directories.
func DesktopEntriesIn(dirs []string) []DesktopEntry {
	var out []DesktopEntry
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if filepath.Ext(entry.Name()) != ".desktop" {
				continue
			}
			if de, ok := parseDesktopFile(filepath.Join(dir, entry.Name())); ok {
				out = append(out, de)
			}
		}
	}
	return out
}

// parseDesktopFile reads the [Desktop Entry] section of one file. Entries
// that are not applications, or that lack a name or exec line, are invalid.
func parseDesktopFile(path string) (DesktopEntry, bool) {
	f, err := os.Open(path)
	if err != nil {
		return DesktopEntry{}, false
	}
	defer f.Close()

	var name, exec, icon, entryType string
	var categories []string
	inDesktopEntry := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "[Desktop Entry]":
			inDesktopEntry = true
		case strings.HasPrefix(line, "["):
			inDesktopEntry = false
		case inDesktopEntry:
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			switch key {
			case "Name":
				name = value
			case "Exec":
				exec = value
			case "Icon":
				icon = value
			case "Type":
				entryType = value
			case "Categories":
				for _, c := range strings.Split(value, ";") {
					if c = strings.TrimSpace(c); c != "" {
						categories = append(categories, c)
					}
				}
			}
		}
	}
	if scanner.Err() != nil {
		return DesktopEntry{}, false
	}

	if entryType != "Application" || name == "" || exec == "" {
		return DesktopEntry{}, false
	}

	return DesktopEntry{
		Name:        name,
		Exec:        stripFieldCodes(exec),
		Icon:        icon,
		Filename:    filepath.Base(path),
		Categories:  categories,
		AcceptsArgs: acceptsArguments(exec, categories),
	}, true
}

// acceptsArguments is true only for web browsers whose Exec line declares a
// file or URL placeholder as a standalone token. Browsers are the one class
// allowed to receive free text appended at launch.
func acceptsArguments(rawExec string, categories []string) bool {
	isBrowser := false
	for _, c := range categories {
		if c == "WebBrowser" {
			isBrowser = true
			break
		}
	}
	if !isBrowser {
		return false
	}

	for _, part := range strings.Fields(rawExec) {
		for _, code := range argumentFieldCodes {
			if part == code {
				return true
			}
		}
	}
	return false
}

func stripFieldCodes(exec string) string {
	for _, code := range fieldCodes {
		exec = strings.ReplaceAll(exec, code, "")
	}
	return strings.Join(strings.Fields(exec), " ")
}
