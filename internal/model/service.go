package model

import (
	"errors"
	"fmt"
)

// Service identifies one of the remote services the tool can probe.
type Service string

const (
	// FormService is the form-collection service (Jotform).
	FormService Service = "form-service"
	// CampaignService is the fundraising/campaign service (Givebutter).
	CampaignService Service = "campaign-service"
	// DataStore is the relational data store (Supabase).
	DataStore Service = "data-store"
)

// ErrUnknownService is returned for a service name outside the fixed set.
var ErrUnknownService = errors.New("unknown service")

// Services returns every known service in default probe order.
func Services() []Service {
	return []Service{DataStore, FormService, CampaignService}
}

// DisplayName returns the vendor name shown in reports.
func (s Service) DisplayName() string {
	switch s {
	case FormService:
		return "Jotform"
	case CampaignService:
		return "Givebutter"
	case DataStore:
		return "Supabase"
	default:
		return string(s)
	}
}

// ParseService validates a service name.
func ParseService(name string) (Service, error) {
	for _, s := range Services() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownService, name)
}

// Credential is the resolved access material for one service. It is a value
// type and is never modified after resolution.
type Credential struct {
	Service Service
	Token   string
	BaseURL string
	// DSN is a direct database connection string; data-store only.
	DSN string
	// DefaultResource is the resource explored when none is given (form id,
	// campaign id or table name).
	DefaultResource string
}
