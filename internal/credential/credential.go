// Package credential resolves per-service access material from the process
// configuration.
package credential

import (
	"fmt"

	"github.com/crimson-sun/preflight/internal/config"
	"github.com/crimson-sun/preflight/internal/model"
)

// Resolver looks up credentials in a Config. It performs no I/O.
type Resolver struct {
	cfg *config.Config
}

// NewResolver returns a Resolver over cfg. cfg must not be modified afterwards.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the credential for service, or a *model.MissingCredentialError
// naming the first required key that is empty.
func (r *Resolver) Resolve(service model.Service) (model.Credential, error) {
	switch service {
	case model.FormService:
		c := r.cfg.FormService
		if err := requireValue(service, config.EnvJotformAPIKey, c.APIKey); err != nil {
			return model.Credential{}, err
		}
		return model.Credential{
			Service:         service,
			Token:           c.APIKey,
			BaseURL:         c.BaseURL,
			DefaultResource: c.SignupFormID,
		}, nil

	case model.CampaignService:
		c := r.cfg.CampaignService
		if err := requireValue(service, config.EnvGivebutterAPIKey, c.APIKey); err != nil {
			return model.Credential{}, err
		}
		return model.Credential{
			Service:         service,
			Token:           c.APIKey,
			BaseURL:         c.BaseURL,
			DefaultResource: c.CampaignID,
		}, nil

	case model.DataStore:
		c := r.cfg.DataStore
		if c.DatabaseURL != "" {
			return model.Credential{
				Service:         service,
				DSN:             c.DatabaseURL,
				DefaultResource: c.Table,
			}, nil
		}
		if err := requireValue(service, config.EnvSupabaseURL, c.URL); err != nil {
			return model.Credential{}, err
		}
		if err := requireValue(service, config.EnvSupabaseKey, c.Key); err != nil {
			return model.Credential{}, err
		}
		return model.Credential{
			Service:         service,
			Token:           c.Key,
			BaseURL:         c.URL,
			DefaultResource: c.Table,
		}, nil

	default:
		return model.Credential{}, fmt.Errorf("%w: %q", model.ErrUnknownService, service)
	}
}

func requireValue(service model.Service, key, value string) error {
	if value == "" {
		return &model.MissingCredentialError{Service: service, Key: key}
	}
	return nil
}
