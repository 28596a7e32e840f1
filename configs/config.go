package configs

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	Port      string
	DBSource  string
	JWTSecret string

	AllowedOrigins []string

	WSMaxMessageSize   int64
	WSSendBuffer       int
	WSRateLimit        float64
	WSRateBurst        int
	WSAdminAuth        bool
	WSVerifyUserID     bool
	ChatStrictValidate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	KafkaBrokers    []string
	KafkaOrderTopic string
	KafkaGroupID    string

	ShutdownTimeout time.Duration
}

func (c *Config) IsDevelopment() bool { return c.Env == "dev" || c.Env == "development" }

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "8000")
	v.SetDefault("DB_SOURCE", "chat.db")
	v.SetDefault("JWT_SECRET", "changeme")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 64<<10)
	v.SetDefault("WS_SEND_BUFFER", 256)
	v.SetDefault("WS_RATE_LIMIT", 10)
	v.SetDefault("WS_RATE_BURST", 20)
	v.SetDefault("WS_ADMIN_AUTH", true)
	v.SetDefault("WS_VERIFY_USER_ID", true)
	v.SetDefault("CHAT_STRICT_VALIDATION", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CHANNEL", "chat:events")
	v.SetDefault("KAFKA_ORDER_TOPIC", "orders.created")
	v.SetDefault("KAFKA_GROUP_ID", "support-chat")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	return &Config{
		Env:                v.GetString("APP_ENV"),
		Port:               v.GetString("PORT"),
		DBSource:           v.GetString("DB_SOURCE"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		AllowedOrigins:     splitList(v.GetString("ALLOWED_ORIGINS")),
		WSMaxMessageSize:   v.GetInt64("WS_MAX_MESSAGE_SIZE"),
		WSSendBuffer:       v.GetInt("WS_SEND_BUFFER"),
		WSRateLimit:        v.GetFloat64("WS_RATE_LIMIT"),
		WSRateBurst:        v.GetInt("WS_RATE_BURST"),
		WSAdminAuth:        v.GetBool("WS_ADMIN_AUTH"),
		WSVerifyUserID:     v.GetBool("WS_VERIFY_USER_ID"),
		ChatStrictValidate: v.GetBool("CHAT_STRICT_VALIDATION"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		RedisChannel:       v.GetString("REDIS_CHANNEL"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaOrderTopic:    v.GetString("KAFKA_ORDER_TOPIC"),
		KafkaGroupID:       v.GetString("KAFKA_GROUP_ID"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
