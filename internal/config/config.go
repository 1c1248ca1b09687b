package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Game holds the timings of a session.
type Game struct {
	TimerMax        int           `yaml:"timer-max" env:"GAME_TIMER_MAX" env-default:"10"`
	TickInterval    time.Duration `yaml:"tick-interval" env:"GAME_TICK_INTERVAL" env-default:"1s"`
	OpponentDelay   time.Duration `yaml:"opponent-delay" env:"GAME_OPPONENT_DELAY" env-default:"550ms"`
	WinRevealDelay  time.Duration `yaml:"win-reveal-delay" env:"GAME_WIN_REVEAL_DELAY" env-default:"700ms"`
	DrawRevealDelay time.Duration `yaml:"draw-reveal-delay" env:"GAME_DRAW_REVEAL_DELAY" env-default:"600ms"`
	SessionTTL      time.Duration `yaml:"session-ttl" env:"GAME_SESSION_TTL" env-default:"1h"`
}

// Load - reads config.yml at path, environment variables override it.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// Engine - converts the timings into engine settings.
func (that *Game) Engine() tictactoe.Config {
	return tictactoe.Config{
		TimerMax:        that.TimerMax,
		TickInterval:    that.TickInterval,
		OpponentDelay:   that.OpponentDelay,
		WinRevealDelay:  that.WinRevealDelay,
		DrawRevealDelay: that.DrawRevealDelay,
	}
}
