package config

import "github.com/joho/godotenv"

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are reported to the caller,
// who is free to ignore the error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}
