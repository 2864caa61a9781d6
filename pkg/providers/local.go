package providers

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Secrets written literally in the configuration
type StringProvider struct{}

func NewStringProvider() *StringProvider {
	return &StringProvider{}
}

func (p *StringProvider) Read(ctx context.Context, secrets map[string]string) (map[string]string, error) {
	return secrets, nil
}

// Secrets read from environment variables, including those loaded from an
// env file before the configuration is read.
type EnvProvider struct {
	LookupEnv func(string) (string, bool)
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{
		LookupEnv: os.LookupEnv,
	}
}

func (p *EnvProvider) Read(ctx context.Context, secrets map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(secrets))
	for name, env := range secrets {
		value, ok := p.LookupEnv(env)
		if !ok {
			log.Warn().Str("secret", name).Str("env", env).Msg("env variable is not set")
			continue
		}
		result[name] = value
	}
	return result, nil
}

// Secrets stored one per file. Surrounding whitespace, such as the trailing
// newline most editors add, is not part of the key.
type FileProvider struct{}

func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

func (p *FileProvider) Read(ctx context.Context, secrets map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(secrets))
	for name, path := range secrets {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Str("file", path).Msg("failed to read secret file")
			continue
		}
		result[name] = strings.TrimSpace(string(content))
	}
	return result, nil
}
