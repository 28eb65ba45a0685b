package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.PathLength == nil || *cfg.PathLength != 10 {
		t.Errorf("Expected PathLength 10, got %v", cfg.PathLength)
	}
	if cfg.WallFraction == nil || *cfg.WallFraction != 0.25 {
		t.Errorf("Expected WallFraction 0.25, got %v", cfg.WallFraction)
	}
	if cfg.Listen == nil || *cfg.Listen != ":8080" {
		t.Errorf("Expected Listen ':8080', got %v", cfg.Listen)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults() failed validation: %v", err)
	}
}

func TestEmpty_GettersFallBack(t *testing.T) {
	cfg := Empty()

	if got := cfg.GetGenerateDimension(); got != 4 {
		t.Errorf("GetGenerateDimension() = %d, want 4", got)
	}
	if got := cfg.GetWallFraction(); got != 0.25 {
		t.Errorf("GetWallFraction() = %f, want 0.25", got)
	}
	if got := cfg.GetPathLength(); got != 10 {
		t.Errorf("GetPathLength() = %d, want 10", got)
	}
	if got := cfg.GetSeed(); got != 0 {
		t.Errorf("GetSeed() = %d, want 0", got)
	}
	if got := cfg.GetListen(); got != ":8080" {
		t.Errorf("GetListen() = %q, want :8080", got)
	}
	for name, got := range map[string]string{
		"map_file":      cfg.GetMapFile(),
		"database_path": cfg.GetDatabasePath(),
		"plot_dir":      cfg.GetPlotDir(),
		"report_path":   cfg.GetReportPath(),
		"log_file":      cfg.GetLogFile(),
	} {
		if got != "" {
			t.Errorf("%s = %q, want empty", name, got)
		}
	}
}

func TestLoad_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.json")
	testJSON := `{
  "map_file": "maps/a.txt",
  "seed": 42,
  "path_length": 25
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "maps/a.txt", cfg.GetMapFile())
	assert.Equal(t, int64(42), cfg.GetSeed())
	assert.Equal(t, 25, cfg.GetPathLength())
	// Omitted fields keep their defaults.
	assert.Nil(t, cfg.WallFraction)
	assert.Equal(t, 0.25, cfg.GetWallFraction())
}

func TestLoad_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.yaml")
	testYAML := "generate_dimension: 6\nwall_fraction: 0.1\nlisten: \"127.0.0.1:9000\"\ndatabase_path: runs.db\n"
	require.NoError(t, os.WriteFile(configPath, []byte(testYAML), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.GetGenerateDimension())
	assert.Equal(t, 0.1, cfg.GetWallFraction())
	assert.Equal(t, "127.0.0.1:9000", cfg.GetListen())
	assert.Equal(t, "runs.db", cfg.GetDatabasePath())
}

func TestLoad_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"wrong extension", write("run.toml", "seed = 1")},
		{"missing file", filepath.Join(tmpDir, "absent.json")},
		{"bad json", write("bad.json", "{")},
		{"bad yaml", write("bad.yml", "seed: [1")},
		{"zero path length", write("zero.json", `{"path_length": 0}`)},
		{"wall fraction of one", write("walls.yaml", "wall_fraction: 1")},
		{"empty listen", write("listen.json", `{"listen": ""}`)},
		{"zero dimension", write("dim.json", `{"generate_dimension": 0}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Errorf("Load(%s) returned nil error", tt.path)
			}
		})
	}
}

func TestLoad_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "huge.json")
	big := make([]byte, maxFileSize+1)
	for i := range big {
		big[i] = ' '
	}
	require.NoError(t, os.WriteFile(p, big, 0644))

	_, err := Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestMerge(t *testing.T) {
	base := Defaults()
	base.Merge(&RunConfig{Seed: ptrInt64(7), MapFile: ptrString("m.txt")})

	assert.Equal(t, int64(7), base.GetSeed())
	assert.Equal(t, "m.txt", base.GetMapFile())
	assert.Equal(t, 10, base.GetPathLength())

	base.Merge(nil)
	assert.Equal(t, int64(7), base.GetSeed())
}

func TestCheckedInDefaultsMatchCode(t *testing.T) {
	cfg, err := Load("../../" + DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}
