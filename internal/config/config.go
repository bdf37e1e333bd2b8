package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8000"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath   string     `env:"DB_PATH" envDefault:":memory:"`

	// Teams maps team name to bcrypt password hash.
	Teams     map[string]string `env:"TEAMS" envKeyValSeparator:":" envDefault:"alpha:$2a$10$trCdqP4npsbw0R1vQxVwXeT1HebzRmP01SXaNGPz1eSAZ7mpcL0Uu,bravo:$2a$10$trCdqP4npsbw0R1vQxVwXeT1HebzRmP01SXaNGPz1eSAZ7mpcL0Uu,charlie:$2a$10$trCdqP4npsbw0R1vQxVwXeT1HebzRmP01SXaNGPz1eSAZ7mpcL0Uu,delta:$2a$10$trCdqP4npsbw0R1vQxVwXeT1HebzRmP01SXaNGPz1eSAZ7mpcL0Uu"`
	GamesOpen map[string]bool   `env:"GAMES_OPEN" envKeyValSeparator:":" envDefault:"ai_or_not:true,interro_room:true,story_hunt:false,pixel_fog:true"`

	OracleSecrets    []string      `env:"ORACLE_SECRETS" envDefault:"frame drop,vibe coding,case sensitive"`
	OracleMaxGuesses int           `env:"ORACLE_MAX_GUESSES" envDefault:"3"`
	OraclePassword   string        `env:"ORACLE_PASSWORD" envDefault:"monkey"`
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiURL        string        `env:"GEMINI_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"20s"`

	QuizCatalog string `env:"QUIZ_CATALOG"`

	PixelFogDir       string        `env:"PIXELFOG_DIR" envDefault:"assets/pixelfog"`
	ClassifierURL     string        `env:"CLASSIFIER_URL" envDefault:"http://127.0.0.1:8001/predict"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"30s"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	StoryDir       string `env:"STORY_DIR" envDefault:"stories"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if len(cfg.OracleSecrets) == 0 {
		return nil, errors.New("ORACLE_SECRETS must name at least one phrase")
	}
	if len(cfg.Teams) == 0 {
		return nil, errors.New("TEAMS must name at least one team")
	}
	return &cfg, nil
}
