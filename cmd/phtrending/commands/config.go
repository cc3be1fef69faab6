package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"phtrending/lib/configutil"
	configlibsql "phtrending/lib/configutil/libsql"
	"phtrending/lib/digest"
	"phtrending/lib/platforms/producthunt"
	"phtrending/lib/snapshot"
	"time"

	"github.com/joho/godotenv"
)

const (
	configName = "phtrending.json5"
	tokenEnv   = "PH_TOKEN"

	defaultOutputDir = "output"
	defaultTimeout   = 30 * time.Second
	defaultSchedule  = "@hourly"
)

var ErrMissingToken = fmt.Errorf("%s is not set in the environment or in .env", tokenEnv)

type Config struct {
	Endpoint     string              `json:"endpoint"`
	PageSize     int                 `json:"page_size"`
	IncludeMedia *bool               `json:"include_media"`
	OutputDir    string              `json:"output_dir"`
	Retention    string              `json:"retention"`
	Timeout      string              `json:"timeout"`
	History      configlibsql.Struct `json:"history"`
	HTMLIndex    bool                `json:"html_index"`
	Digest       digest.Options      `json:"digest"`
	Schedule     string              `json:"schedule"`
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = producthunt.DefaultEndpoint
	}
	if c.PageSize == 0 {
		c.PageSize = producthunt.MaxPageSize
	}
	if c.IncludeMedia == nil {
		includeMedia := true
		c.IncludeMedia = &includeMedia
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.Timeout == "" {
		c.Timeout = defaultTimeout.String()
	}
	if c.Schedule == "" {
		c.Schedule = defaultSchedule
	}
	return c
}

func (c Config) timeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout '%s': %w", c.Timeout, err)
	}
	return timeout, nil
}

func (c Config) retention() (snapshot.Retention, error) {
	return snapshot.ParseRetention(c.Retention)
}

// loadConfig reads `path` if given, otherwise it looks for phtrending.json5
// from the working directory upwards. Without any config file every field
// takes its default.
func loadConfig(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		cfg, err = configutil.ReadConfig[Config](path)
	} else {
		cfg, err = configutil.ReadRecursively[Config](configName)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
	}
	if err != nil {
		return Config{}, err
	}

	cfg = cfg.withDefaults()
	_, err = cfg.timeout()
	if err != nil {
		return Config{}, err
	}
	_, err = cfg.retention()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readToken loads .env from the working directory, if there is one, and
// returns the api token. Variables already set in the environment win over
// .env.
func readToken() (string, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("load .env: %w", err)
	}
	token := os.Getenv(tokenEnv)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
