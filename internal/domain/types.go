package domain

type RealmID string

func (rid RealmID) String() string {
	return string(rid)
}

type UserID string

func (uid UserID) String() string {
	return string(uid)
}

type GroupID string

func (gid GroupID) String() string {
	return string(gid)
}

// Action is the normalized lifecycle action derived from a raw notification.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "CREATE"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// IdentitySnapshot is the subject's state as known to the identity provider
// at the time the notification was emitted.  It may be nil when the subject
// has already been removed from the provider (delete races).
type IdentitySnapshot struct {
	Username   string              `json:"username"`
	FirstName  string              `json:"first_name"`
	LastName   string              `json:"last_name"`
	Email      string              `json:"email"`
	Enabled    bool                `json:"enabled"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// FirstAttribute returns the first value of the named custom attribute or
// the empty string if the attribute is unset.
func (s *IdentitySnapshot) FirstAttribute(name string) string {
	if s == nil {
		return ""
	}
	values, ok := s.Attributes[name]
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0]
}

const (
	NotificationCategoryUser  = "user"
	NotificationCategoryAdmin = "admin"

	ResourceKindUser            = "user"
	ResourceKindGroupMembership = "group_membership"

	UserEventRegister         = "register"
	UserEventUpdateProfile    = "update_profile"
	UserEventUpdateEmail      = "update_email"
	UserEventUpdateCredential = "update_credential"
	UserEventDeleteAccount    = "delete_account"

	AdminOperationCreate = "create"
	AdminOperationUpdate = "update"
	AdminOperationDelete = "delete"
)

// LifecycleNotification is the wire representation of a raw lifecycle
// notification delivered by the host.  User events and administrative
// events share the envelope, discriminated by Category.
type LifecycleNotification struct {
	RealmID  RealmID `json:"realm_id" validate:"required"`
	Category string  `json:"category" validate:"required"`

	// User event fields (category = "user")
	EventKind string            `json:"event_kind,omitempty"`
	UserID    UserID            `json:"user_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`

	// Administrative event fields (category = "admin")
	Operation    string `json:"operation,omitempty"`
	ResourceKind string `json:"resource_kind,omitempty"`
	ResourcePath string `json:"resource_path,omitempty"`

	Snapshot *IdentitySnapshot `json:"snapshot,omitempty"`
}
