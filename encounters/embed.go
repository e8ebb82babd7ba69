package encounters

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

//go:embed data/*.yaml data/scripts/*.tengo
var DataFS embed.FS

// DefaultDir is where encounter files are looked up on disk before falling
// back to the embedded copies.
const DefaultDir = "encounters/data"

// Library resolves encounter and script files. Files under Dir shadow the
// embedded ones so definitions can be edited without rebuilding.
type Library struct {
	Dir string
}

// Load reads an encounter or script file. Encounter names may omit the
// .yaml extension.
func (l Library) Load(name string) ([]byte, error) {
	clean := cleanDataPath(name)
	if l.Dir != "" {
		if data, err := os.ReadFile(l.diskPath(clean)); err == nil {
			return data, nil
		}
	}
	return DataFS.ReadFile("data/" + clean)
}

// ModTime reports the modification time of the disk override, if any.
func (l Library) ModTime(name string) (time.Time, bool) {
	if l.Dir == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(l.diskPath(cleanDataPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Names lists the encounters available embedded or on disk, sorted.
func (l Library) Names() ([]string, error) {
	seen := map[string]bool{}
	entries, err := fs.ReadDir(DataFS, "data")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() && isSpecFile(e.Name()) {
			seen[encounterName(e.Name())] = true
		}
	}
	if l.Dir != "" {
		if entries, err := os.ReadDir(l.Dir); err == nil {
			for _, e := range entries {
				if !e.IsDir() && isSpecFile(e.Name()) {
					seen[encounterName(e.Name())] = true
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

func (l Library) diskPath(clean string) string {
	return filepath.Join(l.Dir, filepath.FromSlash(clean))
}

func cleanDataPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, DefaultDir+"/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "data/"); ok {
		s = after
	}
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}

// encounterName strips directories and the extension from a file path.
func encounterName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
