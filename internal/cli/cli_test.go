package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qri-io/rsprod-go"
	"github.com/qri-io/rsprod-go/arrowio"
	"github.com/qri-io/rsprod-go/netcdf"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() netcdf.Option {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return netcdf.WithLogger(l)
}

// writeProduct stores a small product in dir and returns its path
func writeProduct(t *testing.T, dir string) string {
	t.Helper()
	p := rsprod.NewProduct("granule")
	require.NoError(t, p.Attrs().SetText("title", "cli test"))

	dims, err := rsprod.NewDims([]string{"time", "x"}, []int{2, 3}, []bool{true, false})
	require.NoError(t, err)
	data, err := rsprod.ValueOf(rsprod.Float32, 1, 2, -999, 4, 5, 6)
	require.NoError(t, err)
	temp, err := rsprod.NewStandardField("temp", dims, data, rsprod.StandardAttrs{
		Units:     "K",
		FillValue: rsprod.NewScalar(rsprod.Float32, -999),
	})
	require.NoError(t, err)
	require.NoError(t, p.Add(temp))

	xdims, err := rsprod.NewDims([]string{"x"}, []int{3}, nil)
	require.NoError(t, err)
	label, err := rsprod.NewField("label", xdims, nil, rsprod.TextValue("abc"))
	require.NoError(t, err)
	require.NoError(t, p.Add(label))

	path := filepath.Join(dir, "granule.nc")
	require.NoError(t, netcdf.WriteFile(path, p, quiet()))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "rsprod v"+rsprod.Version+"\n", out)
}

func TestDescribe(t *testing.T) {
	path := writeProduct(t, t.TempDir())
	out, err := run(t, "describe", path)
	require.NoError(t, err)

	var meta rsprod.ProductMeta
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, "granule", meta.Name)
	require.Len(t, meta.Fields, 2)
	assert.Equal(t, "temp", meta.Fields[0].Name)
	assert.Equal(t, rsprod.Float32, meta.Fields[0].Kind)

	out, err = run(t, "describe", "--dims", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
}

func TestDump(t *testing.T) {
	path := writeProduct(t, t.TempDir())
	out, err := run(t, "dump", "--var", "label", path)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)

	out, err = run(t, "dump", "-v", "temp", "--spew", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[]float32")

	_, err = run(t, "dump", "--var", "missing", path)
	assert.Error(t, err)
	_, err = run(t, "dump", path)
	assert.Error(t, err)
}

func TestPackUnpack(t *testing.T) {
	dir := t.TempDir()
	path := writeProduct(t, dir)
	packed := filepath.Join(dir, "packed.nc")
	_, err := run(t, "pack", "--var", "temp", "--kind", "short", "--scale", "0.5", path, packed)
	require.NoError(t, err)

	p, err := netcdf.ReadFile(packed, quiet())
	require.NoError(t, err)
	temp, ok := p.Field("temp")
	require.True(t, ok)
	assert.Equal(t, rsprod.Int16, temp.Kind())
	scale, err := temp.Attrs().Scalar(rsprod.AttrScaleFactor)
	require.NoError(t, err)
	assert.Equal(t, rsprod.NewScalar(rsprod.Float32, 0.5), scale)
	vals, err := rsprod.Slice[int16](temp.Data())
	require.NoError(t, err)
	assert.Equal(t, []int16{2, 4, -999, 8, 10, 12}, vals)

	unpacked := filepath.Join(dir, "unpacked.nc.gz")
	_, err = run(t, "unpack", packed, unpacked)
	require.NoError(t, err)

	p, err = netcdf.ReadFile(unpacked, quiet())
	require.NoError(t, err)
	temp, ok = p.Field("temp")
	require.True(t, ok)
	assert.Equal(t, rsprod.Float32, temp.Kind())
	assert.False(t, temp.Attrs().Exists(rsprod.AttrScaleFactor))
	fvals, err := rsprod.Slice[float32](temp.Data())
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, -999, 4, 5, 6}, fvals)
}

func TestUnpackTarget(t *testing.T) {
	dir := t.TempDir()
	path := writeProduct(t, dir)
	out := filepath.Join(dir, "double.nc")
	_, err := run(t, "unpack", "--unpack-target", "double", path, out)
	require.NoError(t, err)

	p, err := netcdf.ReadFile(out, quiet())
	require.NoError(t, err)
	temp, _ := p.Field("temp")
	assert.Equal(t, rsprod.Float64, temp.Kind())
	label, _ := p.Field("label")
	assert.Equal(t, rsprod.Char, label.Kind())
}

func TestStats(t *testing.T) {
	path := writeProduct(t, t.TempDir())
	out, err := run(t, "stats", path)
	require.NoError(t, err)

	var got map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Contains(t, got, "temp")
	assert.NotContains(t, got, "label")
	s := got["temp"]
	assert.Equal(t, 5.0, s["count"])
	assert.Equal(t, 1.0, s["fill"])
	assert.Equal(t, 1.0, s["min"])
	assert.Equal(t, 6.0, s["max"])
	assert.InDelta(t, 3.6, s["mean"], 1e-9)
	assert.Equal(t, 5.0, s["argmax"])
}

func TestArrow(t *testing.T) {
	dir := t.TempDir()
	path := writeProduct(t, dir)
	out := filepath.Join(dir, "granule.arrow")
	_, err := run(t, "arrow", path, out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	recs, err := arrowio.ReadIPC(f)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	defer recs[0].Release()
	assert.Equal(t, "temp", recs[0].ColumnName(0))
	assert.Equal(t, int64(6), recs[0].NumRows())
}

func TestArchiveRestore(t *testing.T) {
	dir := t.TempDir()
	path := writeProduct(t, dir)
	archive := filepath.Join(dir, "archive")

	_, err := run(t, "archive", "--compression", "gzip", "--path", "granules/a", path, archive)
	require.NoError(t, err)
	_, err = run(t, "archive", "--path", "granules/a", path, archive)
	assert.True(t, errors.Is(err, rsprod.ErrExists), err)
	_, err = run(t, "archive", "--force", "--path", "granules/a", path, archive)
	require.NoError(t, err)

	restored := filepath.Join(dir, "restored.nc")
	_, err = run(t, "restore", "--path", "granules/a", archive, restored)
	require.NoError(t, err)

	want, err := netcdf.ReadFile(path, quiet())
	require.NoError(t, err)
	got, err := netcdf.ReadFile(restored, quiet())
	require.NoError(t, err)
	wm, err := want.Meta()
	require.NoError(t, err)
	gm, err := got.Meta()
	require.NoError(t, err)
	assert.Equal(t, wm.Fields, gm.Fields)
	assert.Equal(t, wm.Attributes, gm.Attributes)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "rsprod.toml")
	require.NoError(t, os.WriteFile(conf, []byte(`
unpack_target = "float"
write_null_terminator = true
compression = "gzip"
log_level = "warn"
`), 0644))

	a := &app{cfg: viper.New()}
	a.cfg.Set("config", conf)
	c, err := a.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, &rsprod.Config{
		UnpackTarget:        rsprod.Float32,
		WriteNullTerminator: true,
		Compression:         "gzip",
		LogLevel:            "warn",
	}, c)

	// the environment overrides the file
	t.Setenv("RSPROD_COMPRESSION", "zst")
	out, err := run(t, "archive", "--config", conf, writeProduct(t, dir), filepath.Join(dir, "archive"))
	require.NoError(t, err)
	assert.Empty(t, out)

	store, err := rsprod.NewLocalStore(filepath.Join(dir, "archive"))
	require.NoError(t, err)
	f, err := store.Get("product/" + rsprod.MetaKey)
	require.NoError(t, err)
	defer f.Close()
	var meta struct {
		Compressor rsprod.Codec `json:"compressor"`
	}
	require.NoError(t, json.NewDecoder(f).Decode(&meta))
	assert.Equal(t, rsprod.Zstd, meta.Compressor)
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "version", "--compression", "lz4")
	assert.Error(t, err)
	_, err = run(t, "version", "--log-level", "loud")
	assert.Error(t, err)
	_, err = run(t, "version", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
