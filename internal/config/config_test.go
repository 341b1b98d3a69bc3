package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, command string, args ...string) *viper.Viper {
	t.Helper()
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	Register(Root, fs)
	Register(command, fs)
	require.NoError(t, fs.Parse(args))
	v, err := New(fs)
	require.NoError(t, err)
	return v
}

func TestLoadTOA_Defaults(t *testing.T) {
	cfg, err := LoadTOA(newViper(t, TOA))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Pushgateway)
	assert.False(t, cfg.Progress)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "./data_raw/MERRA2", cfg.DataDir)
	assert.Equal(t, 2023, cfg.Year)
	assert.Equal(t, filepath.Join("data", "MERRA2_2023_with_TOA-radiation.nc"), cfg.Output)
	assert.Equal(t, []string{"T2MMAX", "T2MMEAN", "T2MMIN"}, cfg.Variables)
	assert.Equal(t, 5, cfg.Deflate)
}

func TestLoadTOA_EnvAndFlags(t *testing.T) {
	t.Setenv("CLIMPREP_MERRA2_DIR", "/data/merra2")
	t.Setenv("CLIMPREP_YEAR", "2021")
	t.Setenv("CLIMPREP_LOG_FORMAT", "json")

	cfg, err := LoadTOA(newViper(t, TOA, "--year", "2022", "--variables", "T2MMEAN", "--deflate", "0"))
	require.NoError(t, err)
	assert.Equal(t, "/data/merra2", cfg.DataDir)
	assert.Equal(t, 2022, cfg.Year, "flags win over the environment")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"T2MMEAN"}, cfg.Variables)
	assert.Equal(t, 0, cfg.Deflate)
	assert.Equal(t, filepath.Join("data", "MERRA2_2022_with_TOA-radiation.nc"), cfg.Output)
}

func TestLoadTOA_VariablesFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want []string
	}{
		{"T2MMAX,T2MMEAN", []string{"T2MMAX", "T2MMEAN"}},
		{"T2MMAX, T2MMEAN", []string{"T2MMAX", "T2MMEAN"}},
		{"T2MMAX T2MMIN", []string{"T2MMAX", "T2MMIN"}},
		{"T2MMIN", []string{"T2MMIN"}},
	}
	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv("CLIMPREP_MERRA2_DIR", "/data/merra2")
			t.Setenv("CLIMPREP_VARIABLES", tc.env)
			cfg, err := LoadTOA(newViper(t, TOA))
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Variables)
		})
	}
}

func TestLoadTOA_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "climprep.toml")
	require.NoError(t, os.WriteFile(path, []byte("log-level = \"debug\"\nyear = 2020\ntoa-output = \"out.nc\"\n"), 0o644))

	cfg, err := LoadTOA(newViper(t, TOA, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2020, cfg.Year)
	assert.Equal(t, "out.nc", cfg.Output)
}

func TestNew_MissingConfigFile(t *testing.T) {
	fs := pflag.NewFlagSet("x", pflag.ContinueOnError)
	Register(Root, fs)
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}))
	_, err := New(fs)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		command string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{"log level", TOA, map[string]string{"CLIMPREP_LOG_LEVEL": "loud"}, nil, "log-level"},
		{"log format", CHIRPS, nil, []string{"--log-format", "xml"}, "log-format"},
		{"workers", TOA, nil, []string{"--workers", "0"}, "workers"},
		{"deflate", CHIRPS, nil, []string{"--deflate", "10"}, "deflate"},
		{"year", TOA, nil, []string{"--year", "1970"}, "year"},
		{"chirps output", CHIRPS, nil, []string{"--chirps-output", ""}, "chirps-output"},
		{"start", Download, nil, []string{"--start", "01/02/2023"}, "start"},
		{"end before start", Download, nil, []string{"--start", "2023-03-01", "--end", "2023-02-01"}, "before"},
		{"concurrency", Download, nil, []string{"--concurrency", "0"}, "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			v := newViper(t, tt.command, tt.args...)
			var err error
			switch tt.command {
			case TOA:
				_, err = LoadTOA(v)
			case CHIRPS:
				_, err = LoadCHIRPS(v)
			case Download:
				_, err = LoadDownload(v)
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCHIRPS_Defaults(t *testing.T) {
	cfg, err := LoadCHIRPS(newViper(t, CHIRPS, "--chirps-dir", "/tmp/chirps"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/chirps", cfg.DataDir)
	assert.Equal(t, "CHIRPS-v2_Africa_monthly.nc", cfg.Output)
	assert.Empty(t, cfg.TmpDir)
	assert.Equal(t, 5, cfg.Deflate)
}

func TestLoadDownload_Defaults(t *testing.T) {
	cfg, err := LoadDownload(newViper(t, Download, "--year", "2022"))
	require.NoError(t, err)
	assert.Equal(t, "M2SDNXSLV", cfg.ShortName)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Start)
	assert.Equal(t, time.Date(2022, 5, 31, 0, 0, 0, 0, time.UTC), cfg.End)
	assert.Equal(t, "./data_raw/MERRA2", cfg.Dir)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "https://cmr.earthdata.nasa.gov", cfg.CMRURL)
}

func TestLoadDownload_EarthdataEnv(t *testing.T) {
	t.Setenv("EARTHDATA_USERNAME", "alice")
	t.Setenv("EARTHDATA_PASSWORD", "secret")
	t.Setenv("CLIMPREP_EARTHDATA_TOKEN", "tok")

	cfg, err := LoadDownload(newViper(t, Download))
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "tok", cfg.Token)
}

func TestRegister_OnlyCommandFlags(t *testing.T) {
	fs := pflag.NewFlagSet("chirps", pflag.ContinueOnError)
	Register(CHIRPS, fs)
	assert.NotNil(t, fs.Lookup("chirps-dir"))
	assert.NotNil(t, fs.Lookup("deflate"))
	assert.Nil(t, fs.Lookup("year"))
	assert.Nil(t, fs.Lookup("log-level"))
}
