package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type BackendConfig struct {
	// base url of the interview REST backend, empty when the openai provider is used directly
	Url     string `mapstructure:"url"`
	ApiKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_seconds" validate:"gte=1"`
}

type OpenAIConfig struct {
	ApiKey          string `mapstructure:"api_key"`
	BaseUrl         string `mapstructure:"base_url"`
	ChatModel       string `mapstructure:"chat_model" validate:"required"`
	SpeechModel     string `mapstructure:"speech_model" validate:"required"`
	Voice           string `mapstructure:"voice" validate:"required"`
	TranscribeModel string `mapstructure:"transcribe_model" validate:"required"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// dsn for postgres, file path for sqlite
	Dsn                string `mapstructure:"dsn" validate:"required"`
	MaxOpenConnection  int    `mapstructure:"max_open_connection"`
	MaxIdealConnection int    `mapstructure:"max_ideal_connection"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
	// seconds a synthesized prompt stays cached
	AudioTTL int `mapstructure:"audio_ttl" validate:"gte=0"`
}

// Application config structure
type AppConfig struct {
	Name        string   `mapstructure:"service_name" validate:"required"`
	Version     string   `mapstructure:"version" validate:"required"`
	Environment string   `mapstructure:"env" validate:"required"`
	Host        string   `mapstructure:"host" validate:"required"`
	Port        int      `mapstructure:"port" validate:"required"`
	LogLevel    string   `mapstructure:"log_level" validate:"required"`
	LogPath     string   `mapstructure:"log_path"`
	Provider    string   `mapstructure:"provider" validate:"required,oneof=backend openai"`
	CorsOrigins []string `mapstructure:"cors_origins"`

	Policy   Policy         `mapstructure:"interview" validate:"required"`
	Backend  BackendConfig  `mapstructure:"backend"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		log.Printf("Reading from env varaibles.")
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "interview-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("ENV", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")
	v.SetDefault("PROVIDER", "backend")
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"})

	policy := DefaultPolicy()
	v.SetDefault("INTERVIEW__REPEAT_WINDOW_SECONDS", policy.RepeatWindowSeconds)
	v.SetDefault("INTERVIEW__MAX_REPEATS", policy.MaxRepeats)
	v.SetDefault("INTERVIEW__PRE_RECORD_DELAY_SECONDS", policy.PreRecordDelaySeconds)
	v.SetDefault("INTERVIEW__MINIMUM_RECORDING_SECONDS", policy.MinimumRecordingSeconds)
	v.SetDefault("INTERVIEW__MAXIMUM_RECORDING_SECONDS", policy.MaximumRecordingSeconds)
	v.SetDefault("INTERVIEW__POLL_INTERVAL_SECONDS", policy.PollIntervalSeconds)
	v.SetDefault("INTERVIEW__MINIMUM_POLLABLE_BYTES", policy.MinimumPollableBytes)
	v.SetDefault("INTERVIEW__TOTAL_QUESTIONS", policy.TotalQuestions)

	v.SetDefault("BACKEND__URL", "http://localhost:8000")
	v.SetDefault("BACKEND__API_KEY", "")
	v.SetDefault("BACKEND__TIMEOUT_SECONDS", 60)

	v.SetDefault("OPENAI__API_KEY", "")
	v.SetDefault("OPENAI__BASE_URL", "")
	v.SetDefault("OPENAI__CHAT_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI__SPEECH_MODEL", "tts-1")
	v.SetDefault("OPENAI__VOICE", "alloy")
	v.SetDefault("OPENAI__TRANSCRIBE_MODEL", "whisper-1")

	v.SetDefault("DATABASE__DRIVER", "sqlite")
	v.SetDefault("DATABASE__DSN", "interview.db")
	v.SetDefault("DATABASE__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("DATABASE__MAX_IDEAL_CONNECTION", 10)

	v.SetDefault("REDIS__HOST", "")
	v.SetDefault("REDIS__PORT", 6379)
	v.SetDefault("REDIS__PASSWORD", "")
	v.SetDefault("REDIS__DB", 0)
	v.SetDefault("REDIS__AUDIO_TTL", 3600)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
