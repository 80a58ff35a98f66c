package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAccount(); err != nil {
		return err
	}
	c.normalizeLastfm()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeAccount() error {
	c.Account.LastfmUser = strings.TrimSpace(c.Account.LastfmUser)
	c.Account.LastfmAPIKey = strings.TrimSpace(c.Account.LastfmAPIKey)
	if c.Account.LastfmAPIKey == "" {
		if value, ok := os.LookupEnv("LASTFM_API_KEY"); ok {
			c.Account.LastfmAPIKey = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Account.PlexDBFile) != "" {
		expanded, err := expandPath(c.Account.PlexDBFile)
		if err != nil {
			return fmt.Errorf("account.plex_db_file: %w", err)
		}
		c.Account.PlexDBFile = expanded
	}
	c.Account.DeviceName = strings.TrimSpace(c.Account.DeviceName)
	if c.Account.DeviceName == "" {
		c.Account.DeviceName = defaultDeviceName
	}
	return nil
}

func (c *Config) normalizeLastfm() {
	c.Lastfm.BaseURL = strings.TrimSpace(c.Lastfm.BaseURL)
	if c.Lastfm.BaseURL == "" {
		c.Lastfm.BaseURL = defaultLastfmBaseURL
	}
	if c.Lastfm.PageSize <= 0 {
		c.Lastfm.PageSize = defaultLastfmPageSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
