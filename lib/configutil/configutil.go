package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath returns the path of the local override file for name,
// ex. `config.json5` -> `config.local.json5`.
func LocalPath(name string) string {
	prefix, ext := splitExt(filepath.Base(name))
	return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
}

func readLayer[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// reads a configuration file, `name` should come with a file extension.
// this function will merge the following files, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// returns os.ErrNotExist if neither file exists. zero values in the local file
// don't override the base file, use ReadWithDefaults where they must.
func ReadConfig[T any](name string) (T, error) {
	var out T

	found, err := readLayer(name, &out)
	if err != nil {
		return out, err
	}

	localPath := LocalPath(name)
	var override T
	foundLocal, err := readLayer(localPath, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !found && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadWithDefaults is ReadConfig, but the config files are decoded on top of
// defaults. Keys a file leaves out keep their default, keys it sets keep the
// set value even when it is a zero value. A missing config file is not an
// error, defaults are returned as is.
func ReadWithDefaults[T any](name string, defaults T) (T, error) {
	out := defaults

	_, err := readLayer(name, &out)
	if err != nil {
		return defaults, err
	}
	localPath := LocalPath(name)
	foundLocal, err := readLayer(localPath, &out)
	if err != nil {
		return defaults, err
	}
	if foundLocal {
		slog.Info("merging config with local overrides", "local", localPath)
	}
	return out, nil
}

// ReadConfig but it recursively goes up the filesystem until the root
// to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var defaultOut T

	current, err := os.Getwd()
	if err != nil {
		return defaultOut, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return defaultOut, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return defaultOut, os.ErrNotExist
		}
		current = parent
	}
}
