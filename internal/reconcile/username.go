package reconcile

import (
	"strings"

	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/target"
)

// ResolveUserName derives the external-facing userName for an identity
// according to the target's strategy.  An empty result means the name is
// unresolvable for this target and the caller must skip it.
//
// When the identity snapshot is unavailable (e.g. the user was already
// removed from the provider before a deactivation ran) only the username
// strategy can fall back to the display name carried on the event; the
// email and attribute strategies have nothing to read from.
func ResolveUserName(t target.SyncTarget, user *domain.IdentitySnapshot, fallbackUserName string) string {
	strategy := t.UserNameStrategy
	if strategy == "" {
		strategy = target.UserNameStrategyUsername
	}

	if user == nil {
		if strategy == target.UserNameStrategyUsername {
			return fallbackUserName
		}
		return ""
	}

	switch strategy {
	case target.UserNameStrategyEmail:
		return emptyIfBlank(user.Email)
	case target.UserNameStrategyAttribute:
		if t.UserNameAttribute == "" {
			return ""
		}
		return emptyIfBlank(user.FirstAttribute(t.UserNameAttribute))
	default:
		return user.Username
	}
}

func emptyIfBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
