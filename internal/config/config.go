package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort              string `env:"HTTP_PORT" envDefault:"8080"`
	BackendURL            string `env:"BACKEND_URL,required"`
	BackendAnonKey        string `env:"BACKEND_ANON_KEY,required"`
	BackendTimeoutSeconds int    `env:"BACKEND_TIMEOUT" envDefault:"30"`
	SessionSecret         string `env:"SESSION_SECRET,required"`
	SessionTTLMinutes     int    `env:"SESSION_TTL_MINUTES" envDefault:"720"`
	CookieSecure          bool   `env:"COOKIE_SECURE" envDefault:"false"`
	DatabaseURL           string `env:"DATABASE_URL"`
	RedisAddr             string `env:"REDIS_ADDR"`
	RedisPassword         string `env:"REDIS_PASSWORD"`
	RedisDB               int    `env:"REDIS_DB" envDefault:"0"`
	OTPWindowMinutes      int    `env:"OTP_WINDOW_MINUTES" envDefault:"10"`
	OTPMaxRequests        int    `env:"OTP_MAX_REQUESTS" envDefault:"3"`
	NotificationBuffer    int    `env:"NOTIFICATION_BUFFER" envDefault:"20"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
