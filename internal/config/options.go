// Package config turns command-line flags, CLIMPREP_* environment variables
// and an optional config file into typed job settings.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Command names, used to pick which options a flag set receives.
const (
	Root     = "root"
	CHIRPS   = "chirps"
	TOA      = "toa"
	Download = "download"
)

// EnvPrefix is prepended to every option name to form its environment
// variable, e.g. CLIMPREP_LOG_LEVEL.
const EnvPrefix = "CLIMPREP"

type option struct {
	name, usage string
	defaultVal  any
	commands    []string
	// env lists extra environment variables that set this option.
	env []string
}

var options = []option{
	{name: "config", usage: "configuration file (toml, yaml or json)", defaultVal: "", commands: []string{Root}},
	{name: "log-level", usage: "log level: debug, info, warn or error", defaultVal: "info", commands: []string{Root}},
	{name: "log-format", usage: "log format: text or json", defaultVal: "text", commands: []string{Root}},
	{name: "pushgateway", usage: "Prometheus Pushgateway URL to push job metrics to; empty disables", defaultVal: "", commands: []string{Root}},
	{name: "progress", usage: "draw a terminal progress bar instead of logging progress lines", defaultVal: false, commands: []string{Root}},
	{name: "workers", usage: "number of goroutines evaluating the TOA field", defaultVal: runtime.NumCPU(), commands: []string{Root}},

	{name: "deflate", usage: "zlib compression level of the netCDF output, 0 to 9", defaultVal: 5, commands: []string{CHIRPS, TOA}},
	{name: "year", usage: "year of MERRA-2 data to download or process", defaultVal: 2023, commands: []string{TOA, Download}},

	{name: "chirps-dir", usage: "directory holding chirps-v2.0.YYYY.MM.tif.gz files", defaultVal: ".", commands: []string{CHIRPS}},
	{name: "chirps-output", usage: "netCDF file to write the precipitation stack to", defaultVal: "CHIRPS-v2_Africa_monthly.nc", commands: []string{CHIRPS}},
	{name: "tmp-dir", usage: "directory for decompressed rasters; system default when empty", defaultVal: "", commands: []string{CHIRPS}},

	{name: "merra2-dir", usage: "directory holding MERRA-2 M2SDNXSLV granules", defaultVal: "./data_raw/MERRA2", commands: []string{TOA, Download}},
	{name: "toa-output", usage: "netCDF file to write; ./data/MERRA2_<year>_with_TOA-radiation.nc when empty", defaultVal: "", commands: []string{TOA}},
	{name: "variables", usage: "MERRA-2 variables copied into the TOA output", defaultVal: []string{"T2MMAX", "T2MMEAN", "T2MMIN"}, commands: []string{TOA}},

	{name: "short-name", usage: "CMR collection short name", defaultVal: "M2SDNXSLV", commands: []string{Download}},
	{name: "start", usage: "first day to download (YYYY-MM-DD); January 1 of --year when empty", defaultVal: "", commands: []string{Download}},
	{name: "end", usage: "last day to download (YYYY-MM-DD); May 31 of --year when empty", defaultVal: "", commands: []string{Download}},
	{name: "concurrency", usage: "number of concurrent downloads", defaultVal: 4, commands: []string{Download}},
	{name: "cmr-url", usage: "CMR search endpoint", defaultVal: "https://cmr.earthdata.nasa.gov", commands: []string{Download}},
	{name: "earthdata-token", usage: "Earthdata Login bearer token", defaultVal: "", commands: []string{Download}, env: []string{"EARTHDATA_TOKEN"}},
	{name: "earthdata-username", usage: "Earthdata Login username", defaultVal: "", commands: []string{Download}, env: []string{"EARTHDATA_USERNAME"}},
	{name: "earthdata-password", usage: "Earthdata Login password", defaultVal: "", commands: []string{Download}, env: []string{"EARTHDATA_PASSWORD"}},
	{name: "netrc", usage: "netrc file with Earthdata Login credentials; ~/.netrc when empty", defaultVal: "", commands: []string{Download}},
}

// Register adds the flags of the named command to fs.
func Register(command string, fs *pflag.FlagSet) {
	for _, o := range options {
		if !contains(o.commands, command) {
			continue
		}
		switch d := o.defaultVal.(type) {
		case string:
			fs.String(o.name, d, o.usage)
		case bool:
			fs.Bool(o.name, d, o.usage)
		case int:
			fs.Int(o.name, d, o.usage)
		case []string:
			fs.StringSlice(o.name, d, o.usage)
		default:
			panic(fmt.Sprintf("option %s: unsupported default %T", o.name, d))
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// New returns a viper instance reading the given flag sets, the environment
// and, when --config is set, the config file. Precedence is flag, then
// environment, then file, then the flag default.
func New(flagSets ...*pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, o := range options {
		if len(o.env) == 0 {
			continue
		}
		keys := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(o.name, "-", "_"))}, o.env...)
		if err := v.BindEnv(append([]string{o.name}, keys...)...); err != nil {
			return nil, err
		}
	}
	for _, fs := range flagSets {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}
