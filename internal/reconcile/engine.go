package reconcile

import (
	"context"

	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/identity-sync/scim-connector/internal/scim"

	"github.com/sirupsen/logrus"
)

// Outcome is the result of one reconciliation pass against one target.
type Outcome int

const (
	OutcomeNoOp Outcome = iota
	OutcomeCreated
	OutcomePatched
	OutcomeDeactivated
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoOp:
		return "NO-OP"
	case OutcomeCreated:
		return "CREATED"
	case OutcomePatched:
		return "PATCHED"
	case OutcomeDeactivated:
		return "DEACTIVATED"
	case OutcomeFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Gateway is the transport surface the engine drives.  scim.Client is the
// production implementation.
type Gateway interface {
	FindUserIDByUserName(ctx context.Context, userName string) (string, error)
	CreateUser(ctx context.Context, user *scim.UserResource) (bool, error)
	PatchUser(ctx context.Context, id string, patch *scim.PatchOp) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// Engine turns a "user changed" fact into find-or-create-or-patch calls
// against one SCIM target.  The external system is the source of truth
// for the id mapping; every pass starts with a lookup by userName.
type Engine struct {
	gateway Gateway
	logger  *logrus.Entry
}

func NewEngine(targetName string, gateway Gateway) *Engine {
	return &Engine{
		gateway: gateway,
		logger:  logger.Log.WithFields(logrus.Fields{"subsystem": "reconcile", "target": targetName}),
	}
}

// Reconcile drives the idempotent upsert / deactivation state machine.
// DELETE-style actions deactivate (never hard delete) so the external
// record survives and a later CREATE or UPDATE can reactivate it.  At
// most one create attempt and one corrective lookup+patch are made per
// invocation.
func (e *Engine) Reconcile(ctx context.Context, action domain.Action, user *domain.IdentitySnapshot, scimUserName string) Outcome {
	switch action {
	case domain.ActionDelete:
		return e.deactivate(ctx, scimUserName)
	case domain.ActionCreate, domain.ActionUpdate:
		return e.upsert(ctx, user, scimUserName)
	}
	return OutcomeNoOp
}

func (e *Engine) upsert(ctx context.Context, user *domain.IdentitySnapshot, scimUserName string) Outcome {
	log := e.logger.WithFields(logrus.Fields{"scim_username": scimUserName})

	existingId, err := e.gateway.FindUserIDByUserName(ctx, scimUserName)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Lookup failed, giving up on upsert")
		return OutcomeFailed
	}

	if existingId == "" {
		created, err := e.gateway.CreateUser(ctx, scim.BuildCreateUser(user, scimUserName))
		if err != nil {
			log.WithFields(logrus.Fields{"error": err}).Error("Create failed, giving up on upsert")
			return OutcomeFailed
		}
		if created {
			return OutcomeCreated
		}

		// Creation was rejected, most likely a 409 from racing another
		// creator.  Re-resolve the id and patch instead.
		existingId, err = e.gateway.FindUserIDByUserName(ctx, scimUserName)
		if err != nil || existingId == "" {
			log.Error("Create rejected and corrective lookup found nothing")
			return OutcomeFailed
		}
	}

	patched, err := e.gateway.PatchUser(ctx, existingId, scim.BuildPatchUser(user))
	if err != nil || !patched {
		log.WithFields(logrus.Fields{"error": err, "scim_id": existingId}).Error("Patch failed")
		return OutcomeFailed
	}

	return OutcomePatched
}

func (e *Engine) deactivate(ctx context.Context, scimUserName string) Outcome {
	log := e.logger.WithFields(logrus.Fields{"scim_username": scimUserName})

	existingId, err := e.gateway.FindUserIDByUserName(ctx, scimUserName)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Lookup failed, giving up on deactivation")
		return OutcomeFailed
	}

	if existingId == "" {
		log.Debug("No external record to deactivate")
		return OutcomeNoOp
	}

	patched, err := e.gateway.PatchUser(ctx, existingId, scim.BuildDeactivatePatch())
	if err != nil || !patched {
		log.WithFields(logrus.Fields{"error": err, "scim_id": existingId}).Error("Deactivation patch failed")
		return OutcomeFailed
	}

	return OutcomeDeactivated
}
