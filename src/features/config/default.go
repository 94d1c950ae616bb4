package config

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		LibraryPath: "./music",
		Logger: Logger{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3636,
		},
		Database: Database{
			Path: "./bandpass.db",
		},
		Library: Library{
			ScanWorkers:   8,
			Watch:         true,
			DebounceMs:    2000,
			CacheMetadata: true,
		},
		Equalizer: Equalizer{
			ProfilePath: "./eq_profile.json",
		},
		Audio: Audio{
			Output:     "speaker",
			SampleRate: 44100,
			BufferMs:   100,
		},
		Playback: Playback{
			AutoAdvance: true,
		},
		Artwork: Artwork{
			Size:    300,
			Quality: 85,
		},
		Telegram: Telegram{
			Enabled:      false,
			Token:        "",                                   // Can be obtained with https://t.me/BotFather
			AllowedUsers: []string{"<your_telegram_username>"}, // No @
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}
