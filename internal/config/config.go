package config

// Config holds all application configuration, organized into logical
// groups.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"        validate:"required"`
	Downloads     DownloadsConfig     `mapstructure:"downloads"     validate:"required"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"      validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DownloadsConfig contains download pipeline settings.
type DownloadsConfig struct {
	Dir               string `mapstructure:"dir"                  validate:"required"`
	MaxConcurrent     int    `mapstructure:"max_concurrent"       validate:"required,gte=1"`
	QueueSize         int    `mapstructure:"queue_size"           validate:"required,gte=1"`
	MaxURLsPerRequest int    `mapstructure:"max_urls_per_request" validate:"required,gte=1"`
	FFmpegLocation    string `mapstructure:"ffmpeg_location"`
}

// TranscriptionConfig contains whisper settings.
type TranscriptionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// SnapshotConfig contains task persistence settings.
type SnapshotConfig struct {
	Path        string `mapstructure:"path"          validate:"required"`
	MaxAgeHours int    `mapstructure:"max_age_hours" validate:"gte=0"`
}
