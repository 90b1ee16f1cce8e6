package scim

import (
	"github.com/identity-sync/scim-connector/internal/domain"
)

// BuildCreateUser maps an identity snapshot onto a SCIM User resource for
// POST /Users.  A nil snapshot produces an empty profile under the given
// userName (best-effort push when the identity is already gone from the
// provider).
func BuildCreateUser(user *domain.IdentitySnapshot, scimUserName string) *UserResource {
	resource := &UserResource{
		Schemas:  []string{UserSchema},
		UserName: scimUserName,
		Emails:   []UserEmail{{Value: "", Type: "work", Primary: true}},
	}

	if user != nil {
		resource.Name = UserName{GivenName: user.FirstName, FamilyName: user.LastName}
		resource.Emails[0].Value = user.Email
		resource.Active = user.Enabled
	}

	return resource
}

// BuildPatchUser builds the PatchOp that replaces exactly the given name,
// family name, primary email value and active flag.
func BuildPatchUser(user *domain.IdentitySnapshot) *PatchOp {
	var given, family, email string
	var active bool

	if user != nil {
		given = user.FirstName
		family = user.LastName
		email = user.Email
		active = user.Enabled
	}

	return &PatchOp{
		Schemas: []string{PatchOpSchema},
		Operations: []PatchOperation{
			{Op: "replace", Path: "name.givenName", Value: given},
			{Op: "replace", Path: "name.familyName", Value: family},
			{Op: "replace", Path: "emails[primary eq true].value", Value: email},
			{Op: "replace", Path: "active", Value: active},
		},
	}
}

// BuildDeactivatePatch builds the PatchOp that flips the active flag to
// false and touches nothing else.
func BuildDeactivatePatch() *PatchOp {
	return &PatchOp{
		Schemas: []string{PatchOpSchema},
		Operations: []PatchOperation{
			{Op: "replace", Path: "active", Value: false},
		},
	}
}
