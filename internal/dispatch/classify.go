package dispatch

import (
	"strings"

	"github.com/identity-sync/scim-connector/internal/domain"
)

// MembershipChange is a group-membership delta recovered from an
// administrative notification's resource path.
type MembershipChange struct {
	Subject   domain.UserID
	Group     domain.GroupID
	Operation string
}

// Added reports whether the subject was added to the group (as opposed
// to removed from it).
func (mc MembershipChange) Added() bool {
	return mc.Operation == domain.AdminOperationCreate
}

// ClassifiedEvent is the normalized fact derived from a raw notification.
type ClassifiedEvent struct {
	Realm      domain.RealmID
	Action     domain.Action
	Subject    domain.UserID
	Snapshot   *domain.IdentitySnapshot
	Membership *MembershipChange
}

// Classify maps a raw lifecycle notification onto a normalized action and
// subject.  The second return value is false when the notification is of
// no interest and must be dropped.
func Classify(notification *domain.LifecycleNotification) (*ClassifiedEvent, bool) {
	switch notification.Category {
	case domain.NotificationCategoryUser:
		return classifyUserEvent(notification)
	case domain.NotificationCategoryAdmin:
		return classifyAdminEvent(notification)
	}
	return nil, false
}

func classifyUserEvent(notification *domain.LifecycleNotification) (*ClassifiedEvent, bool) {
	var action domain.Action

	switch notification.EventKind {
	case domain.UserEventRegister:
		action = domain.ActionCreate
	case domain.UserEventUpdateProfile, domain.UserEventUpdateEmail:
		action = domain.ActionUpdate
	case domain.UserEventUpdateCredential:
		// Only password changes are pushed downstream
		if !strings.EqualFold(notification.Details["credential_type"], "password") {
			return nil, false
		}
		action = domain.ActionUpdate
	case domain.UserEventDeleteAccount:
		action = domain.ActionDelete
	default:
		return nil, false
	}

	if notification.UserID == "" {
		return nil, false
	}

	return &ClassifiedEvent{
		Realm:    notification.RealmID,
		Action:   action,
		Subject:  notification.UserID,
		Snapshot: notification.Snapshot,
	}, true
}

func classifyAdminEvent(notification *domain.LifecycleNotification) (*ClassifiedEvent, bool) {
	switch notification.ResourceKind {
	case domain.ResourceKindUser:
		return classifyAdminUserEvent(notification)
	case domain.ResourceKindGroupMembership:
		return classifyMembershipEvent(notification)
	}
	return nil, false
}

func classifyAdminUserEvent(notification *domain.LifecycleNotification) (*ClassifiedEvent, bool) {
	var action domain.Action

	switch notification.Operation {
	case domain.AdminOperationCreate:
		action = domain.ActionCreate
	case domain.AdminOperationUpdate:
		action = domain.ActionUpdate
	case domain.AdminOperationDelete:
		action = domain.ActionDelete
	default:
		return nil, false
	}

	subject := extractSegmentAfter(notification.ResourcePath, "users/")
	if subject == "" {
		subject = string(notification.UserID)
	}
	if subject == "" {
		return nil, false
	}

	return &ClassifiedEvent{
		Realm:    notification.RealmID,
		Action:   action,
		Subject:  domain.UserID(subject),
		Snapshot: notification.Snapshot,
	}, true
}

func classifyMembershipEvent(notification *domain.LifecycleNotification) (*ClassifiedEvent, bool) {
	if notification.Operation != domain.AdminOperationCreate && notification.Operation != domain.AdminOperationDelete {
		// Membership UPDATE and anything else carries no provisioning signal
		return nil, false
	}

	subject, group, ok := ParseMembershipPath(notification.ResourcePath)
	if !ok {
		return nil, false
	}

	action := domain.ActionCreate
	if notification.Operation == domain.AdminOperationDelete {
		action = domain.ActionDelete
	}

	return &ClassifiedEvent{
		Realm:    notification.RealmID,
		Action:   action,
		Subject:  subject,
		Snapshot: notification.Snapshot,
		Membership: &MembershipChange{
			Subject:   subject,
			Group:     group,
			Operation: notification.Operation,
		},
	}, true
}

// ParseMembershipPath recovers the subject and group identifiers from a
// membership resource path.  Both path shapes the provider emits are
// supported:
//
//	users/{subject}/groups/{group}
//	groups/{group}/members/{subject}
func ParseMembershipPath(resourcePath string) (domain.UserID, domain.GroupID, bool) {
	path := resourcePath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	subject := extractSegmentAfter(path, "/users/")
	group := extractSegmentAfter(path, "/groups/")

	if subject == "" {
		subject = extractSegmentAfter(path, "/members/")
	}

	if subject == "" || group == "" {
		return "", "", false
	}

	return domain.UserID(subject), domain.GroupID(group), true
}

func extractSegmentAfter(path string, marker string) string {
	i := strings.Index(path, marker)
	if i < 0 {
		return ""
	}
	segment := path[i+len(marker):]
	if end := strings.Index(segment, "/"); end >= 0 {
		segment = segment[:end]
	}
	return segment
}
