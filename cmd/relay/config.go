package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=3000"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	GoogleAIKey          string        `env:"GOOGLE_AI_KEY,required=true"`
	GeminiModel          string        `env:"GEMINI_MODEL"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	SeedProjects         string        `env:"SEED_PROJECTS"`
	CensoredWordsFile    string        `env:"CENSORED_WORDS_FILE"`
	ModerationChar       string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=5s"`
	AITimeout            time.Duration `env:"AI_TIMEOUT,default=60s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
