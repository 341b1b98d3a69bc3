package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Common holds the settings every command shares.
type Common struct {
	LogLevel    string
	LogFormat   string
	Pushgateway string
	Progress    bool
	Workers     int
}

// CHIRPSConfig configures the precipitation stacking job.
type CHIRPSConfig struct {
	Common
	DataDir string
	Output  string
	TmpDir  string
	Deflate int
}

// TOAConfig configures the MERRA-2 TOA radiation job.
type TOAConfig struct {
	Common
	DataDir   string
	Year      int
	Output    string
	Variables []string
	Deflate   int
}

// DownloadConfig configures the MERRA-2 granule download.
type DownloadConfig struct {
	Common
	ShortName   string
	Start       time.Time
	End         time.Time
	Dir         string
	Concurrency int
	CMRURL      string
	Token       string
	Username    string
	Password    string
	NetrcPath   string
}

// LoadCommon reads and validates the shared settings.
func LoadCommon(v *viper.Viper) (Common, error) {
	c := Common{
		LogLevel:    v.GetString("log-level"),
		LogFormat:   v.GetString("log-format"),
		Pushgateway: v.GetString("pushgateway"),
		Progress:    v.GetBool("progress"),
		Workers:     v.GetInt("workers"),
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Common{}, fmt.Errorf("invalid log-level %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return Common{}, fmt.Errorf("invalid log-format %q", c.LogFormat)
	}
	if c.Workers < 1 {
		return Common{}, fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return c, nil
}

func loadDeflate(v *viper.Viper) (int, error) {
	d := v.GetInt("deflate")
	if d < 0 || d > 9 {
		return 0, fmt.Errorf("deflate must be within [0, 9], got %d", d)
	}
	return d, nil
}

// LoadCHIRPS reads and validates the settings of the chirps command.
func LoadCHIRPS(v *viper.Viper) (*CHIRPSConfig, error) {
	common, err := LoadCommon(v)
	if err != nil {
		return nil, err
	}
	deflate, err := loadDeflate(v)
	if err != nil {
		return nil, err
	}
	cfg := &CHIRPSConfig{
		Common:  common,
		DataDir: v.GetString("chirps-dir"),
		Output:  v.GetString("chirps-output"),
		TmpDir:  v.GetString("tmp-dir"),
		Deflate: deflate,
	}
	if cfg.DataDir == "" {
		return nil, errors.New("chirps-dir is required")
	}
	if cfg.Output == "" {
		return nil, errors.New("chirps-output is required")
	}
	return cfg, nil
}

// LoadTOA reads and validates the settings of the toa command.
func LoadTOA(v *viper.Viper) (*TOAConfig, error) {
	common, err := LoadCommon(v)
	if err != nil {
		return nil, err
	}
	deflate, err := loadDeflate(v)
	if err != nil {
		return nil, err
	}
	cfg := &TOAConfig{
		Common:    common,
		DataDir:   v.GetString("merra2-dir"),
		Year:      v.GetInt("year"),
		Output:    v.GetString("toa-output"),
		Variables: stringList(v, "variables"),
		Deflate:   deflate,
	}
	if cfg.DataDir == "" {
		return nil, errors.New("merra2-dir is required")
	}
	if err := checkYear(cfg.Year); err != nil {
		return nil, err
	}
	if len(cfg.Variables) == 0 {
		return nil, errors.New("variables must name at least one MERRA-2 variable")
	}
	if cfg.Output == "" {
		cfg.Output = filepath.Join("data", fmt.Sprintf("MERRA2_%d_with_TOA-radiation.nc", cfg.Year))
	}
	return cfg, nil
}

// LoadDownload reads and validates the settings of the download command.
func LoadDownload(v *viper.Viper) (*DownloadConfig, error) {
	common, err := LoadCommon(v)
	if err != nil {
		return nil, err
	}
	year := v.GetInt("year")
	if err := checkYear(year); err != nil {
		return nil, err
	}
	cfg := &DownloadConfig{
		Common:      common,
		ShortName:   v.GetString("short-name"),
		Dir:         v.GetString("merra2-dir"),
		Concurrency: v.GetInt("concurrency"),
		CMRURL:      v.GetString("cmr-url"),
		Token:       v.GetString("earthdata-token"),
		Username:    v.GetString("earthdata-username"),
		Password:    v.GetString("earthdata-password"),
		NetrcPath:   v.GetString("netrc"),
	}
	if cfg.Start, err = parseDay(v.GetString("start"), time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	if cfg.End, err = parseDay(v.GetString("end"), time.Date(year, time.May, 31, 0, 0, 0, 0, time.UTC)); err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}
	if cfg.End.Before(cfg.Start) {
		return nil, fmt.Errorf("end %s is before start %s", cfg.End.Format(time.DateOnly), cfg.Start.Format(time.DateOnly))
	}
	if cfg.ShortName == "" {
		return nil, errors.New("short-name is required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("merra2-dir is required")
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	return cfg, nil
}

// stringList reads a list option. Flags arrive split on commas, but
// environment values only split on whitespace, so every element is split on
// commas again.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func checkYear(year int) error {
	if year < 1980 || year > 9999 {
		return fmt.Errorf("invalid year %d: MERRA-2 starts in 1980", year)
	}
	return nil
}

func parseDay(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.Parse(time.DateOnly, s)
}
