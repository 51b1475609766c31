package music

import "time"

// Config holds the music module configuration.
type Config struct {
	// FFmpegPath is the ffmpeg binary used for transcoding.
	FFmpegPath string `env:"MUSIC_FFMPEG_PATH" envDefault:"ffmpeg"`

	// CachePath is the SQLite file backing the playlist cache.
	CachePath string `env:"MUSIC_CACHE_PATH" envDefault:"playlist_cache.db"`

	// CookiesFile is passed to yt-dlp for sources that need cookies.
	CookiesFile string `env:"MUSIC_COOKIES_FILE"`

	// Proxy routes extraction traffic, e.g. to dodge rate limiting.
	Proxy string `env:"MUSIC_PROXY"`

	// ResolvesPerSecond throttles resolver calls across all guilds.
	ResolvesPerSecond float64 `env:"MUSIC_RESOLVES_PER_SECOND" envDefault:"2"`

	// ConnectTimeout bounds a single voice connect attempt.
	ConnectTimeout time.Duration `env:"MUSIC_CONNECT_TIMEOUT" envDefault:"10s"`

	// IdleTimeout is how long the bot stays in an idle voice channel before
	// disconnecting. Zero keeps it connected indefinitely.
	IdleTimeout time.Duration `env:"MUSIC_IDLE_TIMEOUT" envDefault:"5m"`
}
