package walk

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tferro/esmcat/internal/testutil"
)

func fixtureRoot(t *testing.T, dir string, depth int, include, exclude []string) *Root {
	t.Helper()
	root, err := NewRoot(dir, depth, include, exclude, nil)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	return root
}

func TestNewRoot_MissingLocation(t *testing.T) {
	if _, err := NewRoot(filepath.Join(t.TempDir(), "nope"), 0, nil, nil, nil); err == nil {
		t.Fatal("missing root must be a construction-time error")
	}
}

func TestNewRoot_NegativeDepth(t *testing.T) {
	if _, err := NewRoot(t.TempDir(), -1, nil, nil, nil); err == nil {
		t.Fatal("negative depth must be rejected")
	}
}

func TestNewRoot_BadPattern(t *testing.T) {
	if _, err := NewRoot(t.TempDir(), 0, []string{"[oops"}, nil, nil); err == nil {
		t.Fatal("malformed include pattern must be rejected at construction")
	}
}

func TestWalk_FindsFilesAtDepth(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir,
		"groupA/x.nc",
		"groupA/y.nc",
		"groupB/z.nc",
	)
	w := NewWalker(nil)
	assets, err := w.Walk(context.Background(), fixtureRoot(t, dir, 1, []string{"*.nc"}, nil))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{
		filepath.Join(dir, "groupA", "x.nc"),
		filepath.Join(dir, "groupA", "y.nc"),
		filepath.Join(dir, "groupB", "z.nc"),
	}
	if !reflect.DeepEqual(assets, want) {
		t.Errorf("assets = %v, want %v", assets, want)
	}
}

func TestWalk_DepthSkipsShallowFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir,
		"toplevel.nc",
		"groupA/x.nc",
	)
	w := NewWalker(nil)
	assets, err := w.Walk(context.Background(), fixtureRoot(t, dir, 1, []string{"*.nc"}, nil))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(assets) != 1 || filepath.Base(assets[0]) != "x.nc" {
		t.Errorf("depth 1 should skip files directly under the root, got %v", assets)
	}
}

func TestWalk_Idempotent(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir,
		"b/2.nc", "a/1.nc", "c/3.nc", "a/0.nc",
	)
	w := NewWalker(nil)
	root := fixtureRoot(t, dir, 0, []string{"*.nc"}, nil)

	first, err := w.Walk(context.Background(), root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	second, err := w.Walk(context.Background(), root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two walks over an unchanged tree differ: %v vs %v", first, second)
	}
	if !sortedStrings(first) {
		t.Errorf("walk result not lexicographically sorted: %v", first)
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

func TestWalk_ExcludedDirectoryIsPruned(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir,
		"keep/a.nc",
		"skip-me/hidden/b.nc",
		"skip-me/c.nc",
	)
	w := NewWalker(nil)
	root := fixtureRoot(t, dir, 0, []string{"*.nc"}, []string{"*skip-me*"})
	assets, err := w.Walk(context.Background(), root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(assets) != 1 || filepath.Base(assets[0]) != "a.nc" {
		t.Errorf("excluded subtree leaked into results: %v", assets)
	}
}

func TestWalk_ConsolidatedStoreIsSingleAsset(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir,
		"grid/store.zarr/.zmetadata",
		"grid/store.zarr/temp/0.0",
		"grid/plain/d.nc",
	)
	w := NewWalker(nil)
	// No include filter: the store directory itself is the asset.
	root := fixtureRoot(t, dir, 0, nil, nil)
	assets, err := w.Walk(context.Background(), root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{
		filepath.Join(dir, "grid", "plain", "d.nc"),
		filepath.Join(dir, "grid", "store.zarr"),
	}
	if !reflect.DeepEqual(assets, want) {
		t.Errorf("assets = %v, want %v", assets, want)
	}
}

func TestWalkAll_MergesAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir,
		"groupA/x.nc",
		"groupB/z.nc",
	)
	w := NewWalker(nil)
	r1 := fixtureRoot(t, dir, 0, []string{"*.nc"}, nil)
	r2 := fixtureRoot(t, dir, 0, []string{"*.nc"}, nil)
	assets, err := w.WalkAll(context.Background(), []*Root{r1, r2})
	if err != nil {
		t.Fatalf("WalkAll: %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("overlapping roots must deduplicate, got %v", assets)
	}
	if !sortedStrings(assets) {
		t.Errorf("merged result not sorted: %v", assets)
	}
}

func TestWalk_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, "a/1.nc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWalker(nil)
	if _, err := w.Walk(ctx, fixtureRoot(t, dir, 0, nil, nil)); err == nil {
		t.Error("cancelled context should abort the walk")
	}
}
