// CLAUDE:SUMMARY Walks a state root and classifies {STATE}_{County}_{inv|sta|res}[_NNN].txt files into a deterministic worklist.
package storet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// ErrRootNotFound is returned when the input root directory does not exist.
var ErrRootNotFound = errors.New("input root directory not found")

// FileRef is one discovered source file.
type FileRef struct {
	Role   Role
	County string
	Path   string
}

// Worklist holds discovered files per role in lexicographic path order.
type Worklist struct {
	Root       string
	Inventory  []FileRef
	Stations   []FileRef
	Results    []FileRef
	Unreadable []string // directories that could not be listed
}

// Files returns the files for role.
func (w *Worklist) Files(role Role) []FileRef {
	switch role {
	case RoleInventory:
		return w.Inventory
	case RoleStation:
		return w.Stations
	case RoleResult:
		return w.Results
	}
	return nil
}

// ResolveRoot returns root/stateName when that directory exists, otherwise
// root itself. The returned directory is guaranteed to exist.
func ResolveRoot(root, stateName string) (string, error) {
	if stateName != "" {
		nested := filepath.Join(root, stateName)
		if fi, err := os.Stat(nested); err == nil && fi.IsDir() {
			return nested, nil
		}
	}
	fi, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return "", fmt.Errorf("stat root %s: %w", root, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("input root %s is not a directory", root)
	}
	return root, nil
}

func filePattern(stateAbbr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(stateAbbr) + `_(.+?)_(inv|sta|res)(?:_(\d+))?\.txt$`)
}

// Discover walks root and classifies STORET files for stateAbbr. Inventory
// files are taken from the root itself; station and result files from
// {STATE}_{County}/ subdirectories. Anything else is ignored.
func Discover(root, stateAbbr string) (*Worklist, error) {
	stateAbbr = strings.ToUpper(stateAbbr)
	fi, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("input root %s is not a directory", root)
	}

	pat := filePattern(stateAbbr)
	dirPrefix := strings.ToLower(stateAbbr + "_")
	wl := &Worklist{Root: root}

	// WalkDir orders by name within each directory; the full-path sort below
	// fixes processing order.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("read root %s: %w", root, err)
			}
			wl.Unreadable = append(wl.Unreadable, path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))

		if d.IsDir() {
			if depth > 0 || !strings.HasPrefix(strings.ToLower(d.Name()), dirPrefix) {
				return fs.SkipDir
			}
			return nil
		}

		m := pat.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		role := roleFromSuffix(m[2])
		switch {
		case role == RoleInventory && depth == 0:
			wl.Inventory = append(wl.Inventory, FileRef{Role: role, County: countyName(m[1]), Path: path})
		case role != RoleInventory && depth == 1:
			ref := FileRef{Role: role, County: countyFromDir(filepath.Base(filepath.Dir(path)), stateAbbr), Path: path}
			if ref.County == "" {
				ref.County = countyName(m[1])
			}
			if role == RoleStation {
				wl.Stations = append(wl.Stations, ref)
			} else {
				wl.Results = append(wl.Results, ref)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, refs := range [][]FileRef{wl.Inventory, wl.Stations, wl.Results} {
		sortByPath(refs)
	}
	return wl, nil
}

// sortByPath orders refs lexicographically by full path, so WA_San-Juan/
// files come before WA_San/ ones ('-' < '/').
func sortByPath(refs []FileRef) {
	slices.SortFunc(refs, func(a, b FileRef) int { return strings.Compare(a.Path, b.Path) })
}

func roleFromSuffix(s string) Role {
	switch strings.ToLower(s) {
	case "inv":
		return RoleInventory
	case "sta":
		return RoleStation
	default:
		return RoleResult
	}
}

// countyFromDir extracts the county from a {STATE}_{County} directory name.
func countyFromDir(dir, stateAbbr string) string {
	if len(dir) <= len(stateAbbr)+1 || !strings.EqualFold(dir[:len(stateAbbr)+1], stateAbbr+"_") {
		return ""
	}
	return countyName(dir[len(stateAbbr)+1:])
}

func countyName(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
