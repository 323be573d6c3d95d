// Package cli holds the rsprod command-line interface
package cli

import (
	"fmt"
	"strings"

	"github.com/qri-io/rsprod-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that override configuration,
// eg. RSPROD_UNPACK_TARGET
const EnvPrefix = "RSPROD"

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// app is the state shared by one command tree
type app struct {
	cfg  *viper.Viper
	conf *rsprod.Config
	log  *logrus.Logger
}

// NewRoot builds the rsprod command tree. Settings come from, in increasing
// precedence, the defaults, the TOML file named by --config, RSPROD_*
// environment variables and command-line flags.
func NewRoot() *cobra.Command {
	a := &app{cfg: viper.New(), log: logrus.New()}

	root := &cobra.Command{
		Use:   "rsprod",
		Short: "Inspect and convert remote sensing products.",
		Long: `rsprod reads remote sensing products stored as NetCDF classic files,
optionally gzip or zstd compressed, and describes, packs, unpacks, summarizes
and exports their fields.

Configuration can be changed by using a TOML configuration file (and providing
the path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RSPROD_var' where 'var' is
the upper-cased name of the flag, dashes replaced by underscores.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setConfig(cmd)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rsprod v%s\n", rsprod.Version)
		},
		DisableAutoGenTag: true,
	}

	describeCmd := a.describeCmd()
	dumpCmd := a.dumpCmd()
	packCmd := a.packCmd()
	unpackCmd := a.unpackCmd()
	statsCmd := a.statsCmd()
	arrowCmd := a.arrowCmd()
	archiveCmd := a.archiveCmd()
	restoreCmd := a.restoreCmd()

	options := []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name: "log-level",
			usage: `
              log-level is the logrus level of diagnostic output.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name: "unpack-target",
			usage: `
              unpack-target is the kind fields without calibration
              attributes are cast to when unpacking. "none" leaves them as
              they are.`,
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name: "nul-terminator",
			usage: `
              nul-terminator appends a NUL byte to text attributes when
              writing NetCDF files.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name: "compression",
			usage: `
              compression is the codec of archived fields: "none", "gzip"
              or "zst".`,
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name: "var",
			usage: `
              var names the field to work on.`,
			shorthand:  "v",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{dumpCmd.Flags(), packCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "dims",
			usage: `
              dims lists the product's dimensions instead of its full
              description.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{describeCmd.Flags()},
		},
		{
			name: "spew",
			usage: `
              spew dumps the Go representation of the field's elements.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{dumpCmd.Flags()},
		},
		{
			name: "kind",
			usage: `
              kind is the kind packed data is stored as, eg. "short".`,
			shorthand:  "k",
			defaultVal: "short",
			flagsets:   []*pflag.FlagSet{packCmd.Flags()},
		},
		{
			name: "scale",
			usage: `
              scale is the scale factor of a pack. Packed values are
              (x - offset) / scale.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{packCmd.Flags()},
		},
		{
			name: "offset",
			usage: `
              offset is the offset of a pack.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{packCmd.Flags()},
		},
		{
			name: "path",
			usage: `
              path is the location of the product inside an archive.`,
			defaultVal: "product",
			flagsets:   []*pflag.FlagSet{archiveCmd.Flags(), restoreCmd.Flags()},
		},
		{
			name: "force",
			usage: `
              force overwrites an existing archive.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{archiveCmd.Flags()},
		},
	}

	a.cfg.SetEnvPrefix(EnvPrefix)
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // the flag only needs creating once
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			a.cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	root.AddCommand(versionCmd, describeCmd, dumpCmd, packCmd, unpackCmd, statsCmd, arrowCmd, archiveCmd, restoreCmd)
	return root
}

// setConfig reads the configuration file, if there is one, applies
// environment and flag overrides and sets up logging
func (a *app) setConfig(cmd *cobra.Command) error {
	conf, err := a.loadConfig()
	if err != nil {
		return err
	}
	lvl, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		return fmt.Errorf("rsprod: %v", err)
	}
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(lvl)
	a.conf = conf
	a.log.WithField("config", a.cfg.GetString("config")).Debug("configured")
	return nil
}

func (a *app) loadConfig() (*rsprod.Config, error) {
	conf := rsprod.DefaultConfig()
	if path := a.cfg.GetString("config"); path != "" {
		var err error
		if conf, err = rsprod.LoadConfig(path); err != nil {
			return nil, fmt.Errorf("rsprod: problem reading configuration file: %v", err)
		}
	}

	if a.cfg.IsSet("unpack-target") {
		k, err := rsprod.ParseKind(a.cfg.GetString("unpack-target"))
		if err != nil {
			return nil, err
		}
		conf.UnpackTarget = k
	}
	if a.cfg.IsSet("nul-terminator") {
		on, err := cast.ToBoolE(a.cfg.Get("nul-terminator"))
		if err != nil {
			return nil, fmt.Errorf("rsprod: nul-terminator: %v", err)
		}
		conf.WriteNullTerminator = on
	}
	if a.cfg.IsSet("compression") {
		conf.Compression = a.cfg.GetString("compression")
	}
	if a.cfg.IsSet("log-level") {
		conf.LogLevel = a.cfg.GetString("log-level")
	}
	if _, err := conf.Codec(); err != nil {
		return nil, err
	}
	return conf, nil
}
