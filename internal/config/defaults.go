package config

const (
	defaultDataDir            = "~/.local/share/guitartube"
	defaultLogDir             = "~/.local/share/guitartube/logs"
	defaultAPIBind            = "127.0.0.1:7621"
	defaultProviderBaseURL    = "https://api.chordrecognizer.example.com"
	defaultVocabulary         = "major-minor"
	defaultProviderTimeout    = 60
	defaultFetchAttempts      = 3
	defaultFetchRetryWait     = 2
	defaultExtractorBinary    = "yt-dlp"
	defaultExtractTimeout     = 300
	defaultStorageBackend     = "local"
	defaultStorageLocalDir    = "~/.local/share/guitartube/objects"
	defaultStoragePublicBase  = "http://127.0.0.1:7621/objects"
	defaultUploadAttempts     = 3
	defaultUploadRetryWait    = 2
	defaultShapesTimeout      = 30
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Provider: Provider{
			BaseURL:        defaultProviderBaseURL,
			Vocabulary:     defaultVocabulary,
			RequestTimeout: defaultProviderTimeout,
			FetchAttempts:  defaultFetchAttempts,
			FetchRetryWait: defaultFetchRetryWait,
		},
		Audio: Audio{
			ExtractorBinary: defaultExtractorBinary,
			ExtractTimeout:  defaultExtractTimeout,
		},
		Storage: Storage{
			Backend:         defaultStorageBackend,
			LocalDir:        defaultStorageLocalDir,
			PublicBaseURL:   defaultStoragePublicBase,
			UploadAttempts:  defaultUploadAttempts,
			UploadRetryWait: defaultUploadRetryWait,
		},
		Shapes: Shapes{
			RequestTimeout: defaultShapesTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
