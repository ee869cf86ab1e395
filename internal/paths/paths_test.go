package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withPlatform swaps the platform lookups for the duration of a test.
func withPlatform(t *testing.T, goos, home, cwd string) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })

	platformDir.goos = goos
	platformDir.homeDir = func() (string, error) { return home, nil }
	platformDir.userConfigDir = func() (string, error) { return filepath.Join(home, "Library", "Application Support"), nil }
	platformDir.getwd = func() (string, error) { return cwd, nil }
}

func TestDefaultDirs_Linux(t *testing.T) {
	withPlatform(t, "linux", "/home/ada", "/work")

	t.Run("XDG set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

		cfg, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/pantry", cfg)

		data, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/pantry", data)
	})

	t.Run("XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")

		cfg, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ada/.config/pantry", cfg)

		data, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ada/.local/share/pantry", data)
	})
}

func TestDefaultDirs_Darwin(t *testing.T) {
	withPlatform(t, "darwin", "/Users/ada", "/work")

	cfg, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/Users/ada/Library/Application Support/pantry", cfg)

	data, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, cfg, data)
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	withPlatform(t, "linux", "", "/work")
	t.Setenv("XDG_CONFIG_HOME", "")
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	withPlatform(t, "linux", "/home/ada", "/work")
	t.Setenv("XDG_CONFIG_HOME", "")

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		got, err := ResolveConfigDir("/flag/config")
		require.NoError(t, err)
		assert.Equal(t, "/flag/config", got)
	})

	t.Run("env over default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "/env/config", got)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "/home/ada/.config/pantry", got)
	})

	t.Run("relative flag made absolute", func(t *testing.T) {
		got, err := ResolveConfigDir("rel/config")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestResolveDataDir(t *testing.T) {
	withPlatform(t, "linux", "/home/ada", "/work")

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag wins", "/flag", "/config", "/env", "/flag"},
		{"config over env", "", "/config", "/env", "/config"},
		{"env", "", "", "/env", "/env"},
		{"cwd default", "", "", "", "/work/.pantry-db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFiles(t *testing.T) {
	withPlatform(t, "linux", "/home/ada", "/work")
	assert.Equal(t, "/etc/pantry/config.yaml", ConfigFile("/etc/pantry"))
	assert.Equal(t, "/work/.env", EnvFile())
}
