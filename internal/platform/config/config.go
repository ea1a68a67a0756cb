package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the panel service. Values are read from
// config.defaults.yaml (optional) and overridden by APP_-prefixed environment
// variables, e.g. APP_VERIFY_TOKEN, APP_APP_SECRET.
type Config struct {
	ServerPort int    `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// Webhook authenticity. An empty APP_SECRET disables payload signature
	// verification entirely (open trust mode); VERIFY_TOKEN gates the
	// provider's subscription handshake.
	VerifyToken string `mapstructure:"VERIFY_TOKEN"`
	AppSecret   string `mapstructure:"APP_SECRET"`

	// Bounded retention for the in-memory webhook event log.
	EventLogCapacity int `mapstructure:"EVENT_LOG_CAPACITY"`

	// WhatsApp Cloud API (Graph) credentials for the outbound proxy side.
	WhatsAppToken   string `mapstructure:"WHATSAPP_TOKEN"`
	PhoneNumberID   string `mapstructure:"PHONE_NUMBER_ID"`
	WABAID          string `mapstructure:"WABA_ID"`
	GraphAPIBaseURL string `mapstructure:"GRAPH_API_BASE_URL"`
	GraphAPIVersion string `mapstructure:"GRAPH_API_VERSION"`

	// SimulationMode routes all outbound dispatch through the simulated
	// provider so the panel can be exercised without real credentials.
	SimulationMode bool `mapstructure:"SIMULATION_MODE"`

	// Optional fan-out of verified webhook payloads; empty disables NATS.
	NATSUrl string `mapstructure:"NATS_URL"`
}

func Load(serviceName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP")

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERIFY_TOKEN", "")
	v.SetDefault("APP_SECRET", "")
	v.SetDefault("EVENT_LOG_CAPACITY", 1000)
	v.SetDefault("WHATSAPP_TOKEN", "")
	v.SetDefault("PHONE_NUMBER_ID", "")
	v.SetDefault("WABA_ID", "")
	v.SetDefault("GRAPH_API_BASE_URL", "https://graph.facebook.com")
	v.SetDefault("GRAPH_API_VERSION", "v21.0")
	v.SetDefault("SIMULATION_MODE", false)
	v.SetDefault("NATS_URL", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Base configuration file ('config.defaults.yaml') not found for %s; using defaults and environment variables.", serviceName)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
