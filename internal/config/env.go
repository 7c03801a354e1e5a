package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var envFileNames = []string{".env", ".env.local"}

// loadEnvFiles loads .env files found in dir. Variables already present in
// the environment are not overridden.
func loadEnvFiles(dir string) error {
	var found []string
	for _, name := range envFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return errors.New("no .env file found")
	}
	return godotenv.Load(found...)
}
