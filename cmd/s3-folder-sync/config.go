package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/executor"
)

// fileConfig holds the defaults that can be kept in a TOML file. Flags set on
// the command line win over the file.
type fileConfig struct {
	Delete      bool     `toml:"delete"`
	Excludes    []string `toml:"exclude"`
	Concurrency int      `toml:"concurrency"`
	Compare     string   `toml:"compare"`
	Profile     string   `toml:"profile"`
	Region      string   `toml:"region"`
	EndpointURL string   `toml:"endpoint_url"`
	Quiet       bool     `toml:"quiet"`
}

func defaultConfig() *fileConfig {
	return &fileConfig{
		Delete:      true,
		Concurrency: executor.DefaultConcurrency,
		Compare:     "checksum",
	}
}

// loadConfig decodes path onto the defaults. An empty path yields the
// defaults. Unknown keys are rejected so typos do not go unnoticed.
func loadConfig(path string) (*fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("config file %s: concurrency must be positive, got %d", path, cfg.Concurrency)
	}

	return cfg, nil
}

// applyFlags copies every flag the user set explicitly over the file values.
func (c *fileConfig) applyFlags(opts *options, changed func(name string) bool) {
	if changed("delete") {
		c.Delete = opts.deleteFlag
	}
	if changed("no-delete") && opts.noDelete {
		c.Delete = false
	}
	if changed("exclude") {
		c.Excludes = opts.excludes
	}
	if changed("concurrency") {
		c.Concurrency = opts.concurrency
	}
	if changed("compare") {
		c.Compare = opts.compare
	}
	if changed("profile") {
		c.Profile = opts.profile
	}
	if changed("region") {
		c.Region = opts.region
	}
	if changed("endpoint-url") {
		c.EndpointURL = opts.endpointURL
	}
	if changed("quiet") {
		c.Quiet = opts.quiet
	}
}
