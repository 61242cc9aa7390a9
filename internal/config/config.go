package config

import (
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret string

	// Text-generation provider
	OpenAIAPIKey string
	OpenAIModel  string
	AITimeoutSec int

	// RequireAIForTests forbids the template fallback when freezing a test
	// paper. Defaults to on whenever an API key is configured.
	RequireAIForTests bool
	// QuizPassThreshold is the minimum task-quiz score counted as passed;
	// zero keeps the historical always-pass behavior.
	QuizPassThreshold float64

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	return Config{
		Mode:     mode,
		HTTPAddr: addr,

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),

		OpenAIAPIKey: apiKey,
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeoutSec: envInt("AI_TIMEOUT_SEC", 30),

		RequireAIForTests: envBool("REQUIRE_AI_FOR_TESTS", apiKey != ""),
		QuizPassThreshold: envFloat("QUIZ_PASS_THRESHOLD", 0),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://app.exampulse.in"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
