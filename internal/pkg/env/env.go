package env

import (
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

// GetEnv returns the value for key from the loaded .env file, falling back to
// the process environment and finally to def.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the .env file from the project root. The extra relative
// paths cover invocations from cmd/pulsar and cmd/migrate.
func SetupEnvFile() {
	envFiles := []string{
		".env",
		"../../.env",
		"../../../.env",
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	panic("No .env file found in any of the expected locations")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

// CanonicalHost returns the platform's primary domain. Every account subdomain
// is nested under it.
func CanonicalHost() string {
	return GetEnv("CANONICAL_HOST", "pulsar.pub")
}

// Protocol returns the scheme prefix used when building absolute URLs,
// including the trailing colon ("https:" in production).
func Protocol() string {
	return GetEnv("PROTOCOL", "https:")
}
