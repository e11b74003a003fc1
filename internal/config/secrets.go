package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const apiKeyEnvPrefix = "MURMUR_API_KEY_"

// secretsPath places secrets.env beside the config file.
func secretsPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "secrets.env")
}

// APIKeyEnvVar returns the variable that carries providerID's API key,
// e.g. "openrouter" → MURMUR_API_KEY_OPENROUTER.
func APIKeyEnvVar(providerID string) string {
	id := strings.ToUpper(strings.TrimSpace(providerID))
	id = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, id)
	return apiKeyEnvPrefix + id
}

// applySecrets fills post-processing API keys. Precedence, highest first:
// process environment, secrets.env, config file.
func applySecrets(cfg *Config, path string) ([]Warning, error) {
	fileValues := map[string]string{}
	values, err := godotenv.Read(path)
	switch {
	case err == nil:
		fileValues = values
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read secrets %q: %w", path, err)
	}

	if cfg.PostProcess.APIKeys == nil {
		cfg.PostProcess.APIKeys = make(map[string]string)
	}

	var warnings []Warning
	known := make(map[string]bool, len(cfg.PostProcess.Providers))
	for _, provider := range cfg.PostProcess.Providers {
		name := APIKeyEnvVar(provider.ID)
		known[name] = true

		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			cfg.PostProcess.APIKeys[provider.ID] = value
			continue
		}
		if value := strings.TrimSpace(fileValues[name]); value != "" {
			cfg.PostProcess.APIKeys[provider.ID] = value
		}
	}

	for name := range fileValues {
		if strings.HasPrefix(name, apiKeyEnvPrefix) && !known[name] {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("secrets.env key %s matches no post_process provider", name)})
		}
	}
	return warnings, nil
}
