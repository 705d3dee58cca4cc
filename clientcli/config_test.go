package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/zipstream/clientcli"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{"empty", "", false},
		{"http", "http://localhost:8080", false},
		{"https with path", "https://photos.example.com/zip", false},
		{"missing scheme", "localhost:8080", true},
		{"unsupported scheme", "ftp://localhost", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &clientcli.Config{Endpoint: tt.endpoint}
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, clientcli.ErrInvalidEndpoint)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := &clientcli.Config{}
	withDefaults := cfg.WithDefaults()

	assert.Equal(t, clientcli.DefaultEndpoint, withDefaults.Endpoint)
	assert.Empty(t, cfg.Endpoint, "original config is not mutated")
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("valid config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `profiles:
  - name: local
    endpoint: http://localhost:8080
  - name: prod
    endpoint: https://photos.example.com
    default: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		require.Len(t, cfg.Profiles, 2)

		p, err := cfg.GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)
		assert.Equal(t, "prod", cfg.DefaultName())

		p, err = cfg.GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", p.Endpoint)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("profiles: [unterminated"), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.Error(t, err)
	})
}

func TestConfigFile_Profiles(t *testing.T) {
	t.Run("no profiles", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{}

		_, err := cfg.GetProfile("")
		assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
		assert.Empty(t, cfg.DefaultName())
	})

	t.Run("first profile is default when none marked", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "a", Endpoint: "http://a"},
			{Name: "b", Endpoint: "http://b"},
		}}

		assert.Equal(t, "a", cfg.DefaultName())
	})

	t.Run("put adds and replaces", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{}

		assert.False(t, cfg.PutProfile(clientcli.Profile{Name: "a", Endpoint: "http://a", Default: true}))
		assert.False(t, cfg.PutProfile(clientcli.Profile{Name: "b", Endpoint: "http://b"}))
		assert.True(t, cfg.PutProfile(clientcli.Profile{Name: "b", Endpoint: "http://b2", Default: true}))

		require.Len(t, cfg.Profiles, 2)
		assert.Equal(t, "http://b2", cfg.Profiles[1].Endpoint)
		assert.Equal(t, "b", cfg.DefaultName())
		assert.False(t, cfg.Profiles[0].Default)
	})

	t.Run("set default", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "a", Default: true},
			{Name: "b"},
		}}

		require.NoError(t, cfg.SetDefault("b"))
		assert.Equal(t, "b", cfg.DefaultName())
		assert.False(t, cfg.Profiles[0].Default)

		assert.ErrorIs(t, cfg.SetDefault("missing"), clientcli.ErrProfileNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a"}, {Name: "b"}}}

		require.NoError(t, cfg.RemoveProfile("a"))
		require.Len(t, cfg.Profiles, 1)
		assert.Equal(t, "b", cfg.Profiles[0].Name)

		assert.ErrorIs(t, cfg.RemoveProfile("a"), clientcli.ErrProfileNotFound)
	})

	t.Run("save and reload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "config.yaml")
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a", Endpoint: "http://a", Default: true}}}

		require.NoError(t, cfg.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg.Profiles, loaded.Profiles)
	})
}

func TestMergeConfig(t *testing.T) {
	merged := clientcli.MergeConfig(
		&clientcli.Config{Endpoint: "http://file"},
		nil,
		&clientcli.Config{Endpoint: "http://env"},
		&clientcli.Config{},
	)

	assert.Equal(t, "http://env", merged.Endpoint)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ZIPSTREAM_ENDPOINT", "http://env:8080")
	t.Setenv("ZIPSTREAM_PROFILE", "prod")
	t.Setenv("ZIPSTREAM_CONFIG", "/tmp/zipstream.yaml")

	assert.Equal(t, "http://env:8080", clientcli.ConfigFromEnv().Endpoint)
	assert.Equal(t, "prod", clientcli.ProfileFromEnv())
	assert.Equal(t, "/tmp/zipstream.yaml", clientcli.ConfigPathFromEnv())
}

func TestConfigFromProfile(t *testing.T) {
	assert.Equal(t, "http://a", clientcli.ConfigFromProfile(&clientcli.Profile{Endpoint: "http://a"}).Endpoint)
	assert.Empty(t, clientcli.ConfigFromProfile(nil).Endpoint)
}
