package config

const (
	defaultDataDir        = "~/.local/share/hexfm"
	defaultLogDir         = "~/.local/share/hexfm/logs"
	defaultAPIBind        = "127.0.0.1:7843"
	defaultLastfmBaseURL  = "http://ws.audioscrobbler.com/2.0/"
	defaultLastfmPageSize = 200
	defaultDeviceName     = "hexfm-last.fm-import"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Account: Account{
			DeviceName: defaultDeviceName,
		},
		Lastfm: Lastfm{
			BaseURL:  defaultLastfmBaseURL,
			PageSize: defaultLastfmPageSize,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
