package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qobs-build/mkgen/internal/backend/mingw"
)

// SettingsFilename is the optional per-project settings file, next to the description.
const SettingsFilename = "mkgen.toml"

type settings struct {
	CC           string `mapstructure:"cc"`
	PCH          string `mapstructure:"pch"`
	Host         string `mapstructure:"host"`
	Intermediate string `mapstructure:"intermediate"`
	Verbose      bool   `mapstructure:"verbose"`
}

func (s *settings) hostOS() string {
	if s.Host == "windows" {
		return "windows"
	}
	return "linux"
}

var settingKeys = []string{"cc", "pch", "host", "intermediate", "verbose"}

// loadSettings layers defaults, mkgen.toml in dir, MKGEN_* environment
// variables and the flags the user set on cmd, later ones winning.
func loadSettings(cmd *cobra.Command, dir string) (*settings, error) {
	v := viper.New()
	v.SetDefault("pch", string(mingw.PCHAuto))
	v.SetDefault("host", defaultHost())
	v.SetDefault("intermediate", mingw.DefaultIntermediateVar)
	v.SetDefault("verbose", false)

	path := filepath.Join(dir, SettingsFilename)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	v.SetEnvPrefix("MKGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range settingKeys {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	if !slices.Contains([]mingw.PCHMode{mingw.PCHAuto, mingw.PCHOn, mingw.PCHOff}, mingw.PCHMode(s.PCH)) {
		return nil, fmt.Errorf("pch: must be one of: auto, on, off, got %q", s.PCH)
	}
	if s.Host != "windows" && s.Host != "unix" {
		return nil, fmt.Errorf("host: must be one of: windows, unix, got %q", s.Host)
	}
	if s.Intermediate == "" {
		return nil, errors.New("intermediate: must not be empty")
	}
	return &s, nil
}
