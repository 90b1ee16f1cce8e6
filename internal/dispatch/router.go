package dispatch

import (
	"context"

	"github.com/identity-sync/scim-connector/internal/directory"
	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/identity-sync/scim-connector/internal/reconcile"
	"github.com/identity-sync/scim-connector/internal/target"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// EngineFactory builds a reconciliation engine for one sync target.  The
// production factory wires a scim.Client; tests substitute fakes.
type EngineFactory func(t target.SyncTarget) *reconcile.Engine

// Router classifies inbound lifecycle notifications, applies debounce
// suppression, and fans each accepted event out to the realm's configured
// sync targets.  It is safe for concurrent invocation from multiple
// consumer goroutines; the debouncer is the only shared mutable state.
type Router struct {
	targetStore target.TargetStore
	directory   directory.IdentityDirectory
	debouncer   Debouncer
	engines     EngineFactory
}

func NewRouter(targetStore target.TargetStore, identityDirectory directory.IdentityDirectory, debouncer Debouncer, engineFactory EngineFactory) *Router {
	return &Router{
		targetStore: targetStore,
		directory:   identityDirectory,
		debouncer:   debouncer,
		engines:     engineFactory,
	}
}

// Route processes one raw notification end to end.  Every per-target
// failure is contained here: nothing that goes wrong while processing one
// target may affect the remaining targets or subsequent notifications.
func (r *Router) Route(ctx context.Context, notification *domain.LifecycleNotification) {

	metrics.notificationReceivedCounter.Inc()

	event, ok := Classify(notification)
	if !ok {
		metrics.notificationDroppedCounter.Inc()
		logger.Log.WithFields(logrus.Fields{"realm": notification.RealmID, "category": notification.Category}).Debug("Dropping notification of no interest")
		return
	}

	log := logger.Log.WithFields(logrus.Fields{
		"realm":   event.Realm,
		"action":  event.Action.String(),
		"subject": event.Subject})

	user := r.resolveSnapshot(ctx, event)

	if event.Membership != nil {
		r.routeMembershipEvent(ctx, log, event, user)
		return
	}

	r.routeUserEvent(ctx, log, event, user)
}

// resolveSnapshot prefers the identity provider's current state over the
// snapshot embedded in the notification.  Both may be missing when the
// subject was deleted before the notification was processed; dispatch
// then proceeds best-effort.
func (r *Router) resolveSnapshot(ctx context.Context, event *ClassifiedEvent) *domain.IdentitySnapshot {
	user, err := r.directory.LookupUser(ctx, event.Realm, event.Subject)
	if err == nil {
		return user
	}
	return event.Snapshot
}

func (r *Router) routeUserEvent(ctx context.Context, log *logrus.Entry, event *ClassifiedEvent, user *domain.IdentitySnapshot) {

	key := UserActionDebounceKey(event.Realm, event.Action, event.Subject)
	if !r.debouncer.ShouldProceed(key) {
		metrics.debounceSuppressedCounter.Inc()
		log.Debug("Suppressing duplicate notification")
		return
	}

	targets, err := r.targetStore.GetTargets(event.Realm)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Unable to load sync targets for realm")
		return
	}

	for _, t := range targets {
		r.dispatchToTarget(ctx, log, t, event, user)
	}
}

func (r *Router) dispatchToTarget(ctx context.Context, log *logrus.Entry, t target.SyncTarget, event *ClassifiedEvent, user *domain.IdentitySnapshot) {

	log = log.WithFields(logrus.Fields{"target": t.Name})

	if t.BaseUrl == "" || t.Token == "" {
		metrics.targetSkippedCounter.With(prometheus.Labels{"reason": "config"}).Inc()
		log.Error("Incomplete configuration (baseUrl/token). Skipping.")
		return
	}

	scimUserName := reconcile.ResolveUserName(t, user, r.fallbackUserName(user, event))
	if scimUserName == "" {
		metrics.targetSkippedCounter.With(prometheus.Labels{"reason": "unresolvable"}).Inc()
		log.Error("Could not resolve SCIM userName for subject. Skipping.")
		return
	}

	log = log.WithFields(logrus.Fields{"scim_username": scimUserName})

	// A user being removed must still be deactivated even when the group
	// check can no longer be evaluated, so deletes bypass the filter.
	if event.Action != domain.ActionDelete && t.FilterGroup != "" {
		if user == nil {
			metrics.targetSkippedCounter.With(prometheus.Labels{"reason": "filter"}).Inc()
			log.Info("Subject snapshot not found; skipping due to group filter.")
			return
		}

		inGroup, err := r.directory.IsMember(ctx, event.Realm, event.Subject, t.FilterGroup)
		if err != nil {
			metrics.targetSkippedCounter.With(prometheus.Labels{"reason": "filter"}).Inc()
			logger.LogErrorWithRealmAndTarget("Unable to evaluate group filter. Skipping.", err, event.Realm, t.Name)
			return
		}
		if !inGroup {
			metrics.targetSkippedCounter.With(prometheus.Labels{"reason": "filter"}).Inc()
			log.Infof("Subject does not belong to group '%s'. Skipping.", t.FilterGroup)
			return
		}
	}

	outcome := r.engines(t).Reconcile(ctx, event.Action, user, scimUserName)

	metrics.reconcileOutcomeCounter.With(prometheus.Labels{"outcome": outcome.String()}).Inc()
	log.Infof("%s -> %s", event.Action, outcome)
}

func (r *Router) routeMembershipEvent(ctx context.Context, log *logrus.Entry, event *ClassifiedEvent, user *domain.IdentitySnapshot) {

	membership := event.Membership

	groupName, err := r.directory.GroupName(ctx, event.Realm, membership.Group)
	if err != nil {
		metrics.notificationDroppedCounter.Inc()
		log.Infof("Group not found for id=%s. Dropping membership notification.", membership.Group)
		return
	}

	log = log.WithFields(logrus.Fields{"group": groupName})

	key := MembershipDebounceKey(event.Realm, membership.Subject, membership.Group, membership.Operation)
	if !r.debouncer.ShouldProceed(key) {
		metrics.debounceSuppressedCounter.Inc()
		log.Debug("Suppressing duplicate membership notification")
		return
	}

	targets, err := r.targetStore.GetTargets(event.Realm)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Unable to load sync targets for realm")
		return
	}

	for _, t := range targets {
		// Membership changes only matter to targets whose filter group
		// is the group that changed.
		if t.FilterGroup == "" || t.FilterGroup != groupName {
			continue
		}

		targetLog := log.WithFields(logrus.Fields{"target": t.Name})

		if t.BaseUrl == "" || t.Token == "" {
			metrics.targetSkippedCounter.With(prometheus.Labels{"reason": "config"}).Inc()
			targetLog.Error("Incomplete configuration (baseUrl/token). Skipping membership notification.")
			continue
		}

		scimUserName := reconcile.ResolveUserName(t, user, r.fallbackUserName(user, event))
		if scimUserName == "" {
			metrics.targetSkippedCounter.With(prometheus.Labels{"reason": "unresolvable"}).Inc()
			targetLog.Error("Cannot resolve SCIM userName for subject. Skipping membership notification.")
			continue
		}

		outcome := r.engines(t).Reconcile(ctx, event.Action, user, scimUserName)

		metrics.reconcileOutcomeCounter.With(prometheus.Labels{"outcome": outcome.String()}).Inc()

		if membership.Added() {
			targetLog.Infof("GROUP ADD user=%s -> %s", scimUserName, outcome)
		} else {
			targetLog.Infof("GROUP REMOVE user=%s -> %s", scimUserName, outcome)
		}
	}
}

func (r *Router) fallbackUserName(user *domain.IdentitySnapshot, event *ClassifiedEvent) string {
	if user != nil && user.Username != "" {
		return user.Username
	}
	return "(unknown)"
}
