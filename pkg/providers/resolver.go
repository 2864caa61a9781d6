package providers

import (
	"context"
	"fmt"

	"github.com/cadsweep/cadsweep/pkg/models"
	"github.com/rs/zerolog/log"
)

type SecretProvider interface {
	Read(ctx context.Context, secrets map[string]string) (map[string]string, error)
}

type Resolver struct {
	providers map[string]SecretProvider
}

func NewResolver() *Resolver {
	return &Resolver{
		providers: map[string]SecretProvider{},
	}
}

func (r *Resolver) WithDefaultProviders() *Resolver {
	r.Add("env", NewEnvProvider())
	r.Add("string", NewStringProvider())
	r.Add("file", NewFileProvider())
	r.Add("aws.ssm", NewSSMProvider())
	r.Add("kubernetes.secret", NewKubernetesProvider())
	return r
}

func (r *Resolver) Add(id string, provider SecretProvider) {
	r.providers[id] = provider
}

func (r *Resolver) ForSecret(s models.Secret) (SecretProvider, string) {
	return r.providers[s.Value.Provider], s.Value.ID
}

// Read every secret from its provider. Secrets a provider has no value for
// are left out of the result.
func (r *Resolver) Resolve(ctx context.Context, secrets []models.Secret) ([]models.Secret, error) {
	byProvider := map[SecretProvider]map[string]string{}
	byName := map[string]models.Secret{}

	for _, s := range secrets {
		provider, id := r.ForSecret(s)
		if provider == nil {
			return nil, fmt.Errorf("unknown secret provider %q for %s", s.Value.Provider, s.Name)
		}

		if byProvider[provider] == nil {
			byProvider[provider] = map[string]string{}
		}

		byProvider[provider][s.Name] = id
		byName[s.Name] = s
	}

	resolved := make([]models.Secret, 0, len(secrets))
	for provider, kv := range byProvider {
		values, err := provider.Read(ctx, kv)
		if err != nil {
			return nil, err
		}

		for name, value := range values {
			resolved = append(resolved, byName[name].Resolve(value))
		}
	}

	return resolved, nil
}

// Read the access and secret key referenced by the API configuration
func (r *Resolver) ResolveCredentials(ctx context.Context, api *models.APIConfig) (models.Credentials, error) {
	var credentials models.Credentials
	if api == nil || api.AccessKey == nil || api.SecretKey == nil {
		return credentials, fmt.Errorf("missing api credentials")
	}

	resolved, err := r.Resolve(ctx, []models.Secret{
		{Name: "access_key", Value: *api.AccessKey},
		{Name: "secret_key", Value: *api.SecretKey},
	})
	if err != nil {
		return credentials, err
	}

	for _, s := range resolved {
		switch s.Name {
		case "access_key":
			credentials.AccessKey = s.Value.String
		case "secret_key":
			credentials.SecretKey = s.Value.String
		}
	}

	if credentials.AccessKey == "" {
		return credentials, fmt.Errorf("access_key resolved to an empty value (%s)", api.AccessKey.Provider)
	}
	if credentials.SecretKey == "" {
		return credentials, fmt.Errorf("secret_key resolved to an empty value (%s)", api.SecretKey.Provider)
	}

	log.Debug().
		Str("access_key_provider", api.AccessKey.Provider).
		Str("secret_key_provider", api.SecretKey.Provider).
		Msg("resolved api credentials")
	return credentials, nil
}
