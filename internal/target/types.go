package target

import (
	"github.com/identity-sync/scim-connector/internal/domain"
)

const (
	UserNameStrategyUsername  = "username"
	UserNameStrategyEmail     = "email"
	UserNameStrategyAttribute = "attribute"
)

// SyncTarget is one configured external SCIM directory and its
// provisioning policy.  Records are created and validated by the
// administrative configuration surface; the dispatch path treats them
// as read-only.
type SyncTarget struct {
	Name              string `json:"name" validate:"required"`
	BaseUrl           string `json:"base_url" validate:"required,url,startswith=http"`
	Token             string `json:"token" validate:"required"`
	FilterGroup       string `json:"filter_group,omitempty"`
	UserNameStrategy  string `json:"username_strategy" validate:"omitempty,oneof=username email attribute"`
	UserNameAttribute string `json:"username_attribute,omitempty"`
}

// MarshalLog keeps the bearer token out of the log stream.
func (t SyncTarget) MarshalLog() interface{} {
	return struct {
		Name        string `json:"name"`
		BaseUrl     string `json:"base_url"`
		FilterGroup string `json:"filter_group,omitempty"`
	}{t.Name, t.BaseUrl, t.FilterGroup}
}

type TargetStore interface {
	GetTargets(realm domain.RealmID) ([]SyncTarget, error)
	GetAllTargets() (map[domain.RealmID][]SyncTarget, error)
}
