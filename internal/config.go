package internal

import (
	"fmt"
	"time"
)

// Config is read from the environment with Netflix/go-env.
// An empty BADGER_FILEPATH keeps every store in memory.
type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH"`
	BufferSize        int           `env:"BUFFER_SIZE,default=256"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	SignalLatency     time.Duration `env:"SIGNAL_LATENCY,default=0s"`
	RingTimeout       time.Duration `env:"RING_TIMEOUT,default=0s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ModerationEnabled bool          `env:"MODERATION_ENABLED,default=true"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	DirectorySeedFile string        `env:"DIRECTORY_SEED_FILE,required=true"`
	MetricsPort       int           `env:"METRICS_PORT,default=0"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
