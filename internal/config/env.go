package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDB       = "ATTENTIVE_DB"
	EnvLogDir   = "ATTENTIVE_LOG_DIR"
	EnvLogLevel = "ATTENTIVE_LOG_LEVEL"
)

// Env holds overrides read from the environment.
type Env struct {
	DB       string
	LogDir   string
	LogLevel string
}

// LoadEnv loads the given .env files (missing files are skipped) and reads
// the overrides. Variables already set in the process win over the files.
func LoadEnv(files ...string) (Env, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Env{}, err
		}
	}
	return Env{
		DB:       os.Getenv(EnvDB),
		LogDir:   os.Getenv(EnvLogDir),
		LogLevel: os.Getenv(EnvLogLevel),
	}, nil
}

// Apply overlays non-empty environment values onto the output config.
func (e Env) Apply(out OutputConfig) OutputConfig {
	if e.DB != "" {
		v := e.DB
		out.DB = &v
	}
	if e.LogDir != "" {
		v := e.LogDir
		out.Dir = &v
	}
	if e.LogLevel != "" {
		v := e.LogLevel
		out.LogLevel = &v
	}
	return out
}
