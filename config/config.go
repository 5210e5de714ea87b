package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	JWTSecret      string
	Redis          RedisConfig
	Call           CallConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CallConfig holds the knobs shared by the signaling server and the call
// client: ICE servers, polling cadence and list sizing.
type CallConfig struct {
	ICEServers          []webrtc.ICEServer
	PollInterval        time.Duration
	SignalListLimit     int
	DefaultConversation string
	RecordingDir        string
}

func Load() *Config {
	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := strings.Split(originsStr, ",")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Call: CallConfig{
			ICEServers:          parseICEServers(),
			PollInterval:        getDuration("SIGNAL_POLL_INTERVAL", 750*time.Millisecond),
			SignalListLimit:     getInt("SIGNAL_LIST_LIMIT", 120),
			DefaultConversation: getEnv("DEFAULT_CONVERSATION", "general"),
			RecordingDir:        getEnv("RECORDING_DIR", "."),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseICEServers reads a comma-separated ICE server list plus optional
// shared TURN credentials. Defaults to a public STUN server.
func parseICEServers() []webrtc.ICEServer {
	raw := strings.TrimSpace(getEnv("ICE_SERVERS", "stun:stun.l.google.com:19302"))
	username := strings.TrimSpace(os.Getenv("ICE_USERNAME"))
	credential := strings.TrimSpace(os.Getenv("ICE_CREDENTIAL"))

	entries := strings.Split(raw, ",")
	servers := make([]webrtc.ICEServer, 0, len(entries))
	for _, entry := range entries {
		url := strings.TrimSpace(entry)
		if url == "" {
			continue
		}

		server := webrtc.ICEServer{URLs: []string{url}}
		if username != "" {
			server.Username = username
		}
		if credential != "" {
			server.Credential = credential
		}
		servers = append(servers, server)
	}
	return servers
}
