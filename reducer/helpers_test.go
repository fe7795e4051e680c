package reducer

import (
	"bytes"
	"errors"
	"image"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"testing"

	"image-size-reducer/internal/format"
	"image-size-reducer/internal/statistics"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const scratchDir = "/scratch"

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0}
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
)

var errFakeEncode = errors.New("fake encode failure")

// encodeCall is one Encode observed by fakeCodec.
type encodeCall struct {
	Format    format.Format
	Intensity int
	Width     int
	Height    int
}

// fakeCodec decodes any stream into a blank image of a fixed size and encodes
// into a byte count chosen by sizeOf, so the search policy can be tested
// without real encoders.
type fakeCodec struct {
	mu sync.Mutex

	width, height int
	sizeOf        func(f format.Format, w, h, intensity int) int
	failEncodeAt  int // 1-based Encode call that fails, 0 = never
	failScale     bool

	encodes []encodeCall
	scales  []int
}

func (c *fakeCodec) Decode(r io.Reader) (image.Image, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return image.NewNRGBA(image.Rect(0, 0, c.width, c.height)), nil
}

func (c *fakeCodec) Encode(w io.Writer, img image.Image, f format.Format, intensity int) error {
	c.mu.Lock()
	b := img.Bounds()
	c.encodes = append(c.encodes, encodeCall{Format: f, Intensity: intensity, Width: b.Dx(), Height: b.Dy()})
	n := len(c.encodes)
	c.mu.Unlock()

	if c.failEncodeAt > 0 && n == c.failEncodeAt {
		return errFakeEncode
	}
	_, err := w.Write(bytes.Repeat([]byte{0xAB}, c.sizeOf(f, b.Dx(), b.Dy(), intensity)))
	return err
}

func (c *fakeCodec) Scale(img image.Image, width int) (image.Image, error) {
	c.mu.Lock()
	c.scales = append(c.scales, width)
	c.mu.Unlock()

	if c.failScale {
		return nil, errors.New("fake scale failure")
	}
	b := img.Bounds()
	height := int(math.Round(float64(width) * float64(b.Dy()) / float64(b.Dx())))
	return image.NewNRGBA(image.Rect(0, 0, width, max(1, height))), nil
}

func (c *fakeCodec) intensities() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.encodes))
	for i, e := range c.encodes {
		out[i] = e.Intensity
	}
	return out
}

// pixelSize encodes to one byte per pixel regardless of intensity.
func pixelSize(_ format.Format, w, h, _ int) int {
	return w * h
}

// constantSize always encodes to n bytes.
func constantSize(n int) func(format.Format, int, int, int) int {
	return func(format.Format, int, int, int) int { return n }
}

type fixture struct {
	fs      afero.Fs
	codec   *fakeCodec
	stats   *statistics.Statistics
	reducer *Reducer
}

func newFixture(t *testing.T, c *fakeCodec) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(scratchDir, 0755))
	require.NoError(t, fs.MkdirAll("/in", 0755))
	require.NoError(t, fs.MkdirAll("/out", 0755))

	stats := statistics.NewStatistics()
	r := New(c, fs, nil, stats)
	r.SetScratchDir(scratchDir)
	return &fixture{fs: fs, codec: c, stats: stats, reducer: r}
}

// writeSource writes a file of exactly size bytes starting with magic.
func (f *fixture) writeSource(t *testing.T, path string, magic []byte, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	copy(data, magic)
	for i := len(magic); i < size; i++ {
		data[i] = byte(i % 251)
	}
	require.NoError(t, afero.WriteFile(f.fs, path, data, 0644))
	return data
}

func (f *fixture) requireNoScratch(t *testing.T) {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, scratchDir)
	require.NoError(t, err)
	require.Empty(t, entries, "scratch files left behind")
}

func (f *fixture) targetExists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(f.fs, path)
	require.NoError(t, err)
	return ok
}

func (f *fixture) fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := f.fs.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

var errFaultyFs = errors.New("simulated filesystem failure")

// faultyFs wraps an afero.Fs and fails the operations selected by fails.
// op is one of "stat", "create", "open", "openfile" or "remove".
type faultyFs struct {
	afero.Fs
	fails func(op, name string) bool
}

func (f *faultyFs) check(op, name string) error {
	if f.fails != nil && f.fails(op, name) {
		return &os.PathError{Op: op, Path: name, Err: errFaultyFs}
	}
	return nil
}

func (f *faultyFs) Stat(name string) (os.FileInfo, error) {
	if err := f.check("stat", name); err != nil {
		return nil, err
	}
	return f.Fs.Stat(name)
}

func (f *faultyFs) Create(name string) (afero.File, error) {
	if err := f.check("create", name); err != nil {
		return nil, err
	}
	return f.Fs.Create(name)
}

func (f *faultyFs) Open(name string) (afero.File, error) {
	if err := f.check("open", name); err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := f.check("openfile", name); err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *faultyFs) Remove(name string) error {
	if err := f.check("remove", name); err != nil {
		return err
	}
	return f.Fs.Remove(name)
}

// newFaultyFixture is newFixture on a filesystem failing the operations selected by fails.
func newFaultyFixture(t *testing.T, c *fakeCodec, fails func(op, name string) bool) *fixture {
	t.Helper()
	f := newFixture(t, c)
	f.fs = &faultyFs{Fs: f.fs, fails: fails}
	f.reducer = New(c, f.fs, nil, f.stats)
	f.reducer.SetScratchDir(scratchDir)
	return f
}

func isScratch(name string) bool {
	return strings.HasPrefix(name, scratchDir+"/")
}
