package config

// Config holds the application configuration.
type Config struct {
	LibraryPath string    `yaml:"libraryPath" json:"libraryPath" validate:"required"`
	Logger      Logger    `yaml:"logger" json:"logger"`
	Server      Server    `yaml:"server" json:"server"`
	Database    Database  `yaml:"database" json:"database"`
	Library     Library   `yaml:"library" json:"library"`
	Equalizer   Equalizer `yaml:"equalizer" json:"equalizer"`
	Audio       Audio     `yaml:"audio" json:"audio"`
	Playback    Playback  `yaml:"playback" json:"playback"`
	Artwork     Artwork   `yaml:"artwork" json:"artwork"`
	Telegram    Telegram  `yaml:"telegram" json:"telegram"`
	Metrics     Metrics   `yaml:"metrics" json:"metrics"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=json text logfmt"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	PrintRoutes bool   `yaml:"show_routes" json:"show_routes"`
	Port        uint32 `yaml:"port" json:"port" validate:"required,max=65535"`
}

// Database holds the configuration for the metadata cache
type Database struct {
	Path string `yaml:"path" json:"path" validate:"required"`
}

// Library holds scanning options for the music folder.
type Library struct {
	ScanWorkers   int  `yaml:"scan_workers" json:"scan_workers" validate:"gte=1,lte=64"`
	Watch         bool `yaml:"watch" json:"watch"`
	DebounceMs    int  `yaml:"debounce_ms" json:"debounce_ms" validate:"gte=0"`
	CacheMetadata bool `yaml:"cache_metadata" json:"cache_metadata"`
}

// Equalizer holds the location of the persisted profile.
type Equalizer struct {
	ProfilePath string `yaml:"profile_path" json:"profile_path" validate:"required"`
}

// Audio holds output device settings.
type Audio struct {
	Output     string `yaml:"output" json:"output" validate:"oneof=speaker silent"`
	SampleRate int    `yaml:"sample_rate" json:"sample_rate" validate:"gte=8000,lte=192000"`
	BufferMs   int    `yaml:"buffer_ms" json:"buffer_ms" validate:"gte=10,lte=2000"`
}

type Playback struct {
	AutoAdvance bool `yaml:"auto_advance" json:"auto_advance"`
}

// Artwork holds thumbnail settings.
type Artwork struct {
	Size    int `yaml:"size" json:"size" validate:"gte=16,lte=4096"`
	Quality int `yaml:"quality" json:"quality" validate:"gte=1,lte=100"`
}

type Telegram struct {
	Enabled      bool     `yaml:"enabled" json:"enabled"`
	Token        string   `yaml:"token" json:"token"`
	AllowedUsers []string `yaml:"allowedUsers" json:"allowedUsers"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}
