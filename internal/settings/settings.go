// Package settings reads the user settings file and expands its directory globs into roots.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

const (
	AppName   = "tagger"
	FileName  = "settings.yaml"
	EnvPrefix = "TAGGER"
)

// ErrNoDirs means that neither flags nor settings name any directory.
var ErrNoDirs = errors.New("no directories given and none configured in " + FileName)

// Settings holds the values of the settings file after environment overrides were applied.
type Settings struct {
	Dirs []string //glob patterns, not yet expanded
	Or   bool
}

type LoadOptions struct {
	FilePath  string //explicit settings file which must exist, overrides the lookup in ConfigDir
	ConfigDir string //directory holding settings.yaml, empty means Dir()
}

// Dir returns the tagger configuration directory: $XDG_CONFIG_HOME/tagger, defaulting to ~/.config/tagger.
func Dir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads the settings. A missing settings file in the configuration directory is not an error.
// Environment variables (TAGGER_DIRS as white-space separated list, TAGGER_OR) take precedence over the file.
// The path of the file that was read is returned, empty if none.
func Load(opts LoadOptions) (result Settings, resolvedPath string, err error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("dirs", []string{})
	v.SetDefault("or", false)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.FilePath != "" {
		if !fileExists(opts.FilePath) {
			return result, "", fmt.Errorf("settings file not found: %s", opts.FilePath)
		}
		resolvedPath = opts.FilePath
	} else {
		dir := opts.ConfigDir
		if dir == "" {
			if dir, err = Dir(); err != nil {
				return result, "", err
			}
		}
		if candidate := filepath.Join(dir, FileName); fileExists(candidate) {
			resolvedPath = candidate
		}
	}

	if resolvedPath != "" {
		v.SetConfigFile(resolvedPath)
		if err = v.ReadInConfig(); err != nil {
			return result, "", fmt.Errorf("failed to parse settings %s: %w", resolvedPath, err)
		}
	}

	result.Dirs = v.GetStringSlice("dirs")
	result.Or = v.GetBool("or")
	return result, resolvedPath, nil
}

// ExpandDirs resolves glob patterns (doublestar syntax, leading ~ for the home directory) into existing directories.
// Relative patterns are resolved against the working directory. The result keeps pattern order and contains no duplicates.
func ExpandDirs(patterns []string) (dirs []string, err error) {
	for _, pattern := range patterns {
		if pattern, err = expandHome(pattern); err != nil {
			return nil, err
		}
		matches, globErr := doublestar.FilepathGlob(pattern)
		if globErr != nil {
			return nil, fmt.Errorf("bad directory pattern %q: %w", pattern, globErr)
		}
		for _, match := range matches {
			abs, absErr := filepath.Abs(match)
			if absErr != nil || !isDir(abs) || slices.Contains(dirs, abs) {
				continue
			}
			dirs = append(dirs, abs)
		}
	}
	return dirs, nil
}

func expandHome(pattern string) (string, error) {
	if pattern != "~" && !strings.HasPrefix(pattern, "~"+string(filepath.Separator)) && !strings.HasPrefix(pattern, "~/") {
		return pattern, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, pattern[1:]), nil
}

func fileExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}

func isDir(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}
