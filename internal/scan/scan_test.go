package scan_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/bigdu/internal/node"
	"github.com/idelchi/bigdu/internal/scan"
)

// fixture creates files with the given sizes under a fresh temporary root.
func fixture(t *testing.T, files map[string]int) string {
	t.Helper()

	root := t.TempDir()

	for name, size := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}

	return root
}

// wide builds a tree broad and deep enough to exercise the worker pool.
func wide(t *testing.T) (string, int64, int64) {
	t.Helper()

	files := make(map[string]int)

	var total, largest int64

	for d := range 8 {
		for f := range 12 {
			size := (d+1)*100 + f
			name := fmt.Sprintf("d%d/s%d/f%d.bin", d, f%3, f)
			files[name] = size
			total += int64(size)
			largest = max(largest, int64(size))
		}
	}

	files["top.bin"] = 5000
	total += 5000
	largest = 5000

	return fixture(t, files), total, largest
}

func printed(res *scan.Result, cutoff int64) []string {
	var out []string

	res.Root.Visit(cutoff, func(n *node.Node) {
		out = append(out, n.Kind.String()+" "+n.Path)
	})

	sort.Strings(out)

	return out
}

// sumFiles checks that every directory's size equals the sum of the files beneath it.
func sumFiles(t *testing.T, n *node.Node) int64 {
	t.Helper()

	if !n.IsDir() {
		return n.Size()
	}

	var sum int64
	for _, c := range n.Children() {
		sum += sumFiles(t, c)
	}

	assert.Equal(t, sum, n.Size(), n.Path)

	return sum
}

func TestRunSingleFile(t *testing.T) {
	root := fixture(t, map[string]int{"file": 1000})

	res, err := scan.Run(context.Background(), scan.Options{Path: root}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), res.Largest)
	assert.Equal(t, int64(1000), res.Total)

	cutoff := scan.Cutoff(res.Largest, 50)
	assert.Equal(t, int64(500), cutoff)
	assert.Contains(t, printed(res, cutoff), "f "+filepath.Join(root, "file"))
}

func TestRunTwoFiles(t *testing.T) {
	root := fixture(t, map[string]int{"dir/small": 100, "dir/big": 10000})

	res, err := scan.Run(context.Background(), scan.Options{Path: filepath.Join(root, "dir")}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10100), res.Total)
	assert.Equal(t, int64(10000), res.Largest)

	dir := filepath.Join(root, "dir")
	assert.Equal(t,
		[]string{"d " + dir, "f " + filepath.Join(dir, "big")},
		printed(res, scan.Cutoff(res.Largest, 50)),
	)
}

func TestRunEmptyDirectory(t *testing.T) {
	root := t.TempDir()

	res, err := scan.Run(context.Background(), scan.Options{Path: root}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(0), res.Total)
	assert.Equal(t, int64(0), res.Largest)
	assert.Equal(t, []string{"d " + root}, printed(res, 0))
	assert.Empty(t, printed(res, 1))
}

func TestRunIgnoreMode(t *testing.T) {
	root := fixture(t, map[string]int{
		"keep.bin":        300,
		"huge.log":        9000,
		"sub/.cache/blob": 7000,
		"sub/data.bin":    200,
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o644))

	gitignoreSize := int64(len("*.log\n"))

	res, err := scan.Run(context.Background(), scan.Options{Path: root, Ignore: true}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(500), res.Total)
	assert.Equal(t, int64(300), res.Largest)
	assert.NotContains(t, printed(res, 0), "f "+filepath.Join(root, "huge.log"))
	assert.Contains(t, printed(res, 0), "d "+filepath.Join(root, "sub"), "per-directory breakdown kept")

	res, err = scan.Run(context.Background(), scan.Options{Path: root}, nil)
	require.NoError(t, err)

	assert.Equal(t, 500+9000+7000+gitignoreSize, res.Total)
	assert.Equal(t, int64(9000), res.Largest)
	assert.Contains(t, printed(res, 0), "f "+filepath.Join(root, "huge.log"))
}

func TestRunSizesAreSums(t *testing.T) {
	root, total, largest := wide(t)

	for _, flat := range []bool{false, true} {
		t.Run(fmt.Sprintf("flat=%v", flat), func(t *testing.T) {
			res, err := scan.Run(context.Background(), scan.Options{Path: root, Flat: flat, Workers: 3}, nil)
			require.NoError(t, err)

			assert.Equal(t, total, res.Total)
			assert.Equal(t, largest, res.Largest)
			assert.Equal(t, total, sumFiles(t, res.Root))
			assert.Equal(t, 97, res.Files)
			assert.Equal(t, 8+8*3, res.Dirs)
		})
	}
}

func TestRunIdempotent(t *testing.T) {
	root, _, _ := wide(t)

	first, err := scan.Run(context.Background(), scan.Options{Path: root}, nil)
	require.NoError(t, err)

	second, err := scan.Run(context.Background(), scan.Options{Path: root, Workers: 1}, nil)
	require.NoError(t, err)

	flat, err := scan.Run(context.Background(), scan.Options{Path: root, Flat: true}, nil)
	require.NoError(t, err)

	cutoff := scan.Cutoff(first.Largest, 10)

	for _, other := range []*scan.Result{second, flat} {
		assert.Equal(t, first.Total, other.Total)
		assert.Equal(t, first.Largest, other.Largest)
		assert.Equal(t, printed(first, cutoff), printed(other, cutoff))
	}
}

func TestRunCutoffAboveTotal(t *testing.T) {
	root := fixture(t, map[string]int{"a": 10, "b": 20})

	res, err := scan.Run(context.Background(), scan.Options{Path: root}, nil)
	require.NoError(t, err)

	assert.Empty(t, printed(res, res.Total+1))
	assert.Equal(t, []string{"d " + root}, printed(res, res.Total))
}

func TestRunFatalErrors(t *testing.T) {
	root := fixture(t, map[string]int{"file": 1})

	tests := []struct {
		name string
		path string
	}{
		{name: "missing root", path: filepath.Join(root, "missing")},
		{name: "root is a file", path: filepath.Join(root, "file")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := scan.Run(context.Background(), scan.Options{Path: tt.path}, nil)

			require.Error(t, err)
			assert.Nil(t, res)
		})
	}
}

func TestRunSkipsUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := fixture(t, map[string]int{"ok/a": 10, "locked/b": 20})
	locked := filepath.Join(root, "locked")

	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := scan.Run(context.Background(), scan.Options{Path: root}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10), res.Total)
	assert.Equal(t, int64(1), res.Skipped)

	res, err = scan.Run(context.Background(), scan.Options{Path: root, Flat: true}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10), res.Total)
}

func TestCutoff(t *testing.T) {
	assert.Equal(t, int64(500), scan.Cutoff(1000, 50))
	assert.Equal(t, int64(0), scan.Cutoff(1000, 0))
	assert.Equal(t, int64(1000), scan.Cutoff(1000, 100))
	assert.Equal(t, int64(250), scan.Cutoff(1000, 25))
	assert.Equal(t, int64(0), scan.Cutoff(0, 50))
}

func TestCutoffSaturates(t *testing.T) {
	tests := []struct {
		name    string
		largest int64
		percent float64
		want    int64
	}{
		{name: "huge percent", largest: 20, percent: 1e20, want: math.MaxInt64},
		{name: "infinite percent", largest: 20, percent: math.Inf(1), want: math.MaxInt64},
		{name: "largest file and large percent", largest: math.MaxInt64 / 2, percent: 400, want: math.MaxInt64},
		{name: "nan percent", largest: 20, percent: math.NaN(), want: 0},
		{name: "infinite percent of nothing", largest: 0, percent: math.Inf(1), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scan.Cutoff(tt.largest, tt.percent))
		})
	}
}

func TestRunHugePercentPrintsNothing(t *testing.T) {
	root := fixture(t, map[string]int{"a": 10, "sub/b": 20})

	res, err := scan.Run(context.Background(), scan.Options{Path: root}, nil)
	require.NoError(t, err)

	assert.Empty(t, printed(res, scan.Cutoff(res.Largest, 1e20)))
	assert.Empty(t, printed(res, scan.Cutoff(res.Largest, math.Inf(1))))
}
