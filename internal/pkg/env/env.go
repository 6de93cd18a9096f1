package env

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Env holds the values read from the .env file. Process environment
// variables are consulted when a key is missing here.
var Env map[string]string

// envFileCandidates are tried in order, relative to the working directory of
// the portal binary, the migrate tool and package tests.
var envFileCandidates = []string{".env", "../../.env", "../../../.env"}

// SetupEnvFile loads the first .env file found. ENV_FILE names an explicit
// file. Without any file the portal runs from the process environment alone,
// which is how the container images are configured.
func SetupEnvFile() {
	candidates := envFileCandidates
	if explicit := os.Getenv("ENV_FILE"); explicit != "" {
		candidates = []string{explicit}
	}

	for _, path := range candidates {
		values, err := godotenv.Read(path)
		if err != nil {
			continue
		}
		Env = values
		return
	}

	if os.Getenv("APP_ENV") == "" {
		panic("no .env file found and APP_ENV is not set in the environment")
	}
	log.Printf("[Env] No .env file, using process environment (APP_ENV=%s)", os.Getenv("APP_ENV"))
	Env = map[string]string{}
}

// GetEnv returns the configured value of key or def when it is unset or empty.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok && val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetInt is GetEnv for integer settings. Malformed values fall back to def.
func GetInt(key string, def int) int {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[Env] %s=%q is not a number, using %d", key, raw, def)
		return def
	}
	return n
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
