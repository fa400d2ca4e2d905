package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort           string `env:"HTTP_PORT" envDefault:"8000"`
	DatabaseURL        string `env:"DATABASE_URL,required"`
	GithubClientID     string `env:"GITHUB_CLIENT_ID,required"`
	GithubClientSecret string `env:"GITHUB_CLIENT_SECRET,required"`
	GithubTokenURL     string `env:"GITHUB_TOKEN_URL" envDefault:"https://github.com/login/oauth/access_token"`
	GithubEmailsURL    string `env:"GITHUB_EMAILS_URL" envDefault:"https://api.github.com/user/emails"`
	GithubTimeoutSecs  int    `env:"GITHUB_TIMEOUT_SECONDS" envDefault:"10"`
	EmailPolicy        string `env:"EMAIL_POLICY" envDefault:"primary_verified"`
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	HashIndexTTLMins   int    `env:"HASH_INDEX_TTL_MINUTES" envDefault:"1440"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
