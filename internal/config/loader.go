package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Load builds a viper instance from the resolved config file. The file is
// optional: a bucket and credentials can arrive entirely through flags and
// environment variables. A missing file is only an error when the path was
// set explicitly through VELSWEEPER_CONFIG.
func Load(checkPerms bool) (*viper.Viper, error) {
	path := ResolveConfigPath()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	SetDefaults(v)

	if checkPerms {
		if err := checkConfigPermissions(path); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if os.Getenv(EnvConfigPath) != "" {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return v, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return v, nil
}

func checkConfigPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	mode := info.Mode().Perm()

	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %s (recommended: 0600)", path, mode)
	}
	return nil
}
