package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if c.Lastfm.PageSize > 200 {
		problems = append(problems, "lastfm.page_size must not exceed 200 (last.fm API limit)")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateAccount checks that the settings needed for reconciliation passes are
// present. Kept separate from Validate so read-only commands work on a fresh
// install before the account is filled in.
func (c *Config) ValidateAccount() error {
	var problems []string

	if c.Account.LastfmUser == "" {
		problems = append(problems, "account.lastfm_user must be set")
	}
	if c.Account.LastfmAPIKey == "" {
		problems = append(problems, "account.lastfm_api_key must be set")
	}
	if c.Account.PlexAccountID <= 0 {
		problems = append(problems, "account.plex_account_id must be a positive integer")
	}
	if c.Account.PlexLibrarySectionID <= 0 {
		problems = append(problems, "account.plex_library_section_id must be a positive integer")
	}
	if strings.TrimSpace(c.Account.PlexDBFile) == "" {
		problems = append(problems, "account.plex_db_file must point at the Plex library database")
	}

	if len(problems) > 0 {
		return fmt.Errorf("incomplete account configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
