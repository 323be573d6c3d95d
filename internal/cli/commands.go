package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/qri-io/rsprod-go"
	"github.com/qri-io/rsprod-go/arrowio"
	"github.com/qri-io/rsprod-go/netcdf"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

func (a *app) read(path string, opts ...netcdf.Option) (*rsprod.Product, error) {
	return netcdf.ReadFile(path, append([]netcdf.Option{netcdf.WithLogger(a.log)}, opts...)...)
}

func (a *app) write(path string, p *rsprod.Product) error {
	return netcdf.WriteFile(path, p, netcdf.WithLogger(a.log), netcdf.WriteNullTerminator(a.conf.WriteNullTerminator))
}

// field looks up the field named by --var
func (a *app) field(p *rsprod.Product) (*rsprod.Field, error) {
	name := a.cfg.GetString("var")
	if name == "" {
		return nil, fmt.Errorf("rsprod: --var is required")
	}
	f, ok := p.Field(name)
	if !ok {
		return nil, fmt.Errorf("rsprod: no field %q in %s", name, p.Name)
	}
	return f, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "Describe a product's dimensions, attributes and fields.",
		Long: `describe prints the description of the product in FILE as JSON. With
--dims only the product's dimensions are listed, one per line.`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.read(args[0])
			if err != nil {
				return err
			}
			if a.cfg.GetBool("dims") {
				dims, err := p.Dimensions()
				if err != nil {
					return err
				}
				for i := 0; i < dims.Len(); i++ {
					fmt.Fprintln(cmd.OutOrStdout(), dims.At(i))
				}
				return nil
			}
			meta, err := p.Meta()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), meta)
		},
	}
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the elements of a field.",
		Long: `dump prints the elements of the field named by --var. Text fields are
printed one record per line.`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.read(args[0])
			if err != nil {
				return err
			}
			f, err := a.field(p)
			if err != nil {
				return err
			}
			if !f.HasData() {
				return fmt.Errorf("rsprod: field %q has no data", f.Name())
			}
			if a.cfg.GetBool("spew") {
				spew.Fdump(cmd.OutOrStdout(), f.Data().Values())
				return nil
			}
			if f.Kind() == rsprod.Char {
				lines, err := f.Strings()
				if err != nil {
					return err
				}
				for _, l := range lines {
					fmt.Fprintln(cmd.OutOrStdout(), l)
				}
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Data())
			return nil
		},
	}
}

func (a *app) packCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack IN OUT",
		Short: "Pack a field into a smaller kind.",
		Long: `pack converts the field named by --var into --kind, storing
(x - offset) / scale when --scale or --offset is given, and writes the
product to OUT.`,
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.read(args[0])
			if err != nil {
				return err
			}
			f, err := a.field(p)
			if err != nil {
				return err
			}
			k, err := rsprod.ParseKind(a.cfg.GetString("kind"))
			if err != nil {
				return err
			}

			var opts []rsprod.PackOption
			if a.cfg.IsSet("scale") {
				scale, err := cast.ToFloat64E(a.cfg.Get("scale"))
				if err != nil {
					return fmt.Errorf("rsprod: scale: %v", err)
				}
				opts = append(opts, rsprod.WithScale(scale))
			}
			if a.cfg.IsSet("offset") {
				offset, err := cast.ToFloat64E(a.cfg.Get("offset"))
				if err != nil {
					return fmt.Errorf("rsprod: offset: %v", err)
				}
				opts = append(opts, rsprod.WithOffset(offset))
			}
			if err := f.Pack(k, opts...); err != nil {
				return err
			}
			a.log.WithField("variable", f.Name()).Infof("packed into %s", k)
			return a.write(args[1], p)
		},
	}
}

func (a *app) unpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack IN OUT",
		Short: "Unpack every field of a product.",
		Long: `unpack applies the scale_factor and add_offset of every field and writes
the product to OUT. Fields without calibration attributes are cast to
--unpack-target.`,
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.read(args[0], netcdf.WithConfig(a.conf))
			if err != nil {
				return err
			}
			return a.write(args[1], p)
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Summarize the physical values of fields.",
		Long: `stats prints the count, fill count, extrema and mean of the unpacked
values of the field named by --var, or of every numeric field, as JSON.`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.read(args[0])
			if err != nil {
				return err
			}
			fields := p.Fields()
			if a.cfg.GetString("var") != "" {
				f, err := a.field(p)
				if err != nil {
					return err
				}
				fields = []*rsprod.Field{f}
			}

			out := map[string]rsprod.Stats{}
			for _, f := range fields {
				if !f.HasData() || f.Kind() == rsprod.Char {
					continue
				}
				s, err := f.Stats()
				if err != nil {
					return err
				}
				out[f.Name()] = s
			}
			return writeJSON(cmd.OutOrStdout(), jsonStats(out))
		},
	}
}

// jsonStats makes the non-finite members of stats printable
func jsonStats(stats map[string]rsprod.Stats) map[string]interface{} {
	out := make(map[string]interface{}, len(stats))
	for name, s := range stats {
		out[name] = map[string]interface{}{
			"count":  s.Count,
			"fill":   s.Fill,
			"min":    jsonNumber(s.Min),
			"max":    jsonNumber(s.Max),
			"mean":   jsonNumber(s.Mean),
			"argmin": s.ArgMin,
			"argmax": s.ArgMax,
		}
	}
	return out
}

func jsonNumber(x float64) interface{} {
	switch {
	case math.IsNaN(x):
		return rsprod.FillValueNaN
	case math.IsInf(x, 1):
		return rsprod.FillValueInfinity
	case math.IsInf(x, -1):
		return rsprod.FillValueNegativeInfinity
	}
	return x
}

func (a *app) arrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arrow IN OUT",
		Short: "Export fields as an Arrow IPC stream.",
		Long: `arrow writes the largest group of fields sharing the same dimensions to
OUT as an Apache Arrow IPC stream, one column per field.`,
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.read(args[0])
			if err != nil {
				return err
			}
			rec, err := arrowio.ProductRecord(p, nil)
			if err != nil {
				return err
			}
			defer rec.Release()

			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := arrowio.WriteIPC(f, rec); err != nil {
				f.Close()
				return err
			}
			a.log.WithField("columns", rec.NumCols()).Info("wrote arrow stream")
			return f.Close()
		},
	}
}

func (a *app) archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive FILE DIR",
		Short: "Store a product in a directory archive.",
		Long: `archive stores the product in FILE under --path in the archive rooted at
DIR, compressing its fields with the configured codec. An existing archive
is only replaced with --force.`,
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.read(args[0])
			if err != nil {
				return err
			}
			store, err := rsprod.NewLocalStore(args[1])
			if err != nil {
				return err
			}
			codec, err := a.conf.Codec()
			if err != nil {
				return err
			}
			mode := rsprod.ModeWriteFail
			if a.cfg.GetBool("force") {
				mode = rsprod.ModeWrite
			}
			return rsprod.WriteArchive(store, a.cfg.GetString("path"), p, codec, mode)
		},
	}
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "restore DIR OUT",
		Short:             "Write an archived product back to a NetCDF file.",
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rsprod.NewLocalStore(args[0])
			if err != nil {
				return err
			}
			p, err := rsprod.ReadArchive(store, a.cfg.GetString("path"))
			if err != nil {
				return err
			}
			return a.write(args[1], p)
		},
	}
}
