package storet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("h\n-\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"WA_Adams_inv.txt",
		"WA_Grays_Harbor_inv.txt",
		"WA_Adams/WA_Adams_sta_001.txt",
		"WA_Adams/WA_Adams_res_002.txt",
		"WA_Adams/WA_Adams_res_001.txt",
		"WA_Grays_Harbor/WA_Grays_Harbor_sta_001.txt",
		"WA_Grays_Harbor/WA_Grays_Harbor_res_001.txt",
		// Ignored: wrong state, wrong place, wrong shape.
		"OR_Lane_inv.txt",
		"WA_Adams/WA_Adams_inv.txt",
		"WA_Adams_res_001.txt",
		"WA_Adams/nested/WA_Adams_res_003.txt",
		"WA_Adams/readme.txt",
		"notes/WA_Adams_sta_001.txt",
	} {
		touch(t, filepath.Join(root, p))
	}

	wl, err := Discover(root, "wa")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(wl.Inventory) != 2 {
		t.Fatalf("inventory = %+v, want 2", wl.Inventory)
	}
	if wl.Inventory[0].County != "Adams" || wl.Inventory[1].County != "Grays Harbor" {
		t.Errorf("inventory counties = %q, %q", wl.Inventory[0].County, wl.Inventory[1].County)
	}

	if len(wl.Stations) != 2 {
		t.Fatalf("stations = %+v, want 2", wl.Stations)
	}
	if wl.Stations[1].County != "Grays Harbor" {
		t.Errorf("station county = %q, want Grays Harbor", wl.Stations[1].County)
	}

	if len(wl.Results) != 3 {
		t.Fatalf("results = %+v, want 3", wl.Results)
	}
	wantOrder := []string{
		filepath.Join(root, "WA_Adams/WA_Adams_res_001.txt"),
		filepath.Join(root, "WA_Adams/WA_Adams_res_002.txt"),
		filepath.Join(root, "WA_Grays_Harbor/WA_Grays_Harbor_res_001.txt"),
	}
	for i, want := range wantOrder {
		if wl.Results[i].Path != want {
			t.Errorf("results[%d] = %s, want %s", i, wl.Results[i].Path, want)
		}
		if wl.Results[i].Role != RoleResult {
			t.Errorf("results[%d].Role = %v", i, wl.Results[i].Role)
		}
	}
}

func TestDiscover_EmptyRoles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "WA_Adams_inv.txt"))

	wl, err := Discover(root, "WA")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(wl.Inventory) != 1 || len(wl.Stations) != 0 || len(wl.Results) != 0 {
		t.Fatalf("worklist = %+v", wl)
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), "WA")
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("err = %v, want ErrRootNotFound", err)
	}
}

func TestResolveRoot(t *testing.T) {
	base := t.TempDir()

	got, err := ResolveRoot(base, "Washington")
	if err != nil || got != base {
		t.Fatalf("ResolveRoot without nested dir = %q, %v", got, err)
	}

	nested := filepath.Join(base, "Washington")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err = ResolveRoot(base, "Washington")
	if err != nil || got != nested {
		t.Fatalf("ResolveRoot with nested dir = %q, %v", got, err)
	}

	if _, err := ResolveRoot(filepath.Join(base, "missing"), "Washington"); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("missing root err = %v", err)
	}
}

func TestDiscover_SortsByFullPath(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"WA_San/WA_San_sta_001.txt",
		"WA_San-Juan/WA_San-Juan_sta_001.txt",
		"WA_San/WA_San_res_001.txt",
		"WA_San-Juan/WA_San-Juan_res_001.txt",
	} {
		touch(t, filepath.Join(root, p))
	}

	wl, err := Discover(root, "WA")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	for _, refs := range [][]FileRef{wl.Stations, wl.Results} {
		if len(refs) != 2 {
			t.Fatalf("refs = %+v, want 2", refs)
		}
		if refs[0].County != "San-Juan" || refs[1].County != "San" {
			t.Errorf("order = %q, %q; want San-Juan before San", refs[0].Path, refs[1].Path)
		}
		if refs[0].Path >= refs[1].Path {
			t.Errorf("paths not sorted: %q >= %q", refs[0].Path, refs[1].Path)
		}
	}
}
