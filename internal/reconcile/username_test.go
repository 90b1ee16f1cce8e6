package reconcile

import (
	"testing"

	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/target"
)

func TestResolveUserName(t *testing.T) {

	snapshot := &domain.IdentitySnapshot{
		Username: "fred.flintstone",
		Email:    "fred@flintstone.com",
		Attributes: map[string][]string{
			"employee_id": {"E-1001", "E-1002"},
			"blank_attr":  {"   "},
		},
	}

	testCases := []struct {
		name     string
		target   target.SyncTarget
		user     *domain.IdentitySnapshot
		fallback string
		expected string
	}{
		{"username strategy", target.SyncTarget{UserNameStrategy: target.UserNameStrategyUsername}, snapshot, "ignored", "fred.flintstone"},
		{"blank strategy defaults to username", target.SyncTarget{}, snapshot, "ignored", "fred.flintstone"},
		{"email strategy", target.SyncTarget{UserNameStrategy: target.UserNameStrategyEmail}, snapshot, "ignored", "fred@flintstone.com"},
		{"email strategy with blank email", target.SyncTarget{UserNameStrategy: target.UserNameStrategyEmail}, &domain.IdentitySnapshot{Username: "fred"}, "ignored", ""},
		{"attribute strategy uses first value", target.SyncTarget{UserNameStrategy: target.UserNameStrategyAttribute, UserNameAttribute: "employee_id"}, snapshot, "ignored", "E-1001"},
		{"attribute strategy with missing attribute", target.SyncTarget{UserNameStrategy: target.UserNameStrategyAttribute, UserNameAttribute: "nope"}, snapshot, "ignored", ""},
		{"attribute strategy with blank value", target.SyncTarget{UserNameStrategy: target.UserNameStrategyAttribute, UserNameAttribute: "blank_attr"}, snapshot, "ignored", ""},
		{"attribute strategy without attribute name", target.SyncTarget{UserNameStrategy: target.UserNameStrategyAttribute}, snapshot, "ignored", ""},
		{"nil snapshot with username strategy falls back", target.SyncTarget{UserNameStrategy: target.UserNameStrategyUsername}, nil, "fred.flintstone", "fred.flintstone"},
		{"nil snapshot with email strategy is unresolvable", target.SyncTarget{UserNameStrategy: target.UserNameStrategyEmail}, nil, "fred.flintstone", ""},
		{"nil snapshot with attribute strategy is unresolvable", target.SyncTarget{UserNameStrategy: target.UserNameStrategyAttribute, UserNameAttribute: "employee_id"}, nil, "fred.flintstone", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := ResolveUserName(tc.target, tc.user, tc.fallback)
			if actual != tc.expected {
				t.Fatalf("expected %q, but got %q!", tc.expected, actual)
			}
		})
	}
}
