package rsprod

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds process-wide settings for reading and writing products
type Config struct {
	// UnpackTarget is the kind fields without calibration attributes are cast
	// to on read. "none" leaves them alone.
	UnpackTarget Kind `toml:"unpack_target"`
	// WriteNullTerminator appends a NUL byte to text attributes on write
	WriteNullTerminator bool `toml:"write_null_terminator"`
	// Compression is the codec id for stored products: "", "gzip" or "zst"
	Compression string `toml:"compression"`
	// LogLevel is a logrus level name
	LogLevel string `toml:"log_level"`
}

// DefaultConfig is the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		UnpackTarget: KindNone,
		LogLevel:     "info",
	}
}

// Codec is the compression codec named by the config
func (c *Config) Codec() (Codec, error) {
	switch c.Compression {
	case "", "none":
		return NoCompression, nil
	case Gzip.ID, "gz":
		return Gzip, nil
	case Zstd.ID, "zstd":
		return Zstd, nil
	}
	return Codec{}, fmt.Errorf("unknown compression %q", c.Compression)
}

// DecodeConfig reads TOML configuration from r on top of the defaults
func DecodeConfig(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := c.Codec(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfig reads the TOML configuration file at path
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeConfig(f)
}
