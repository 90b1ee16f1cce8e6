package scim

import (
	"encoding/json"
	"testing"

	"github.com/identity-sync/scim-connector/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func TestBuildCreateUser(t *testing.T) {

	snapshot := &domain.IdentitySnapshot{
		Username:  "fred.flintstone",
		FirstName: "Fred",
		LastName:  "Flintstone",
		Email:     "fred@flintstone.com",
		Enabled:   true,
	}

	actual := BuildCreateUser(snapshot, "fred.flintstone")

	expected := &UserResource{
		Schemas:  []string{UserSchema},
		UserName: "fred.flintstone",
		Name:     UserName{GivenName: "Fred", FamilyName: "Flintstone"},
		Emails:   []UserEmail{{Value: "fred@flintstone.com", Type: "work", Primary: true}},
		Active:   true,
	}

	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Fatalf("unexpected create payload (-expected +actual):\n%s", diff)
	}
}

func TestBuildCreateUserWithoutSnapshot(t *testing.T) {

	actual := BuildCreateUser(nil, "ghost")

	if actual.UserName != "ghost" {
		t.Fatalf("expected userName ghost, but got %q!", actual.UserName)
	}

	if actual.Active {
		t.Fatal("expected an inactive user when no snapshot is available")
	}

	if len(actual.Emails) != 1 || actual.Emails[0].Value != "" {
		t.Fatal("expected a single empty primary email")
	}
}

func TestCreateUserPayloadEscapesSpecialCharacters(t *testing.T) {

	snapshot := &domain.IdentitySnapshot{
		Username:  `fred "quoted" flintstone`,
		FirstName: "Fred\\Wilma",
		Enabled:   true,
	}

	payload, err := json.Marshal(BuildCreateUser(snapshot, `fred "quoted" flintstone`))
	if err != nil {
		t.Fatal("unexpected error ", err)
	}

	var decoded UserResource
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal("payload is not valid json: ", err)
	}

	if decoded.UserName != `fred "quoted" flintstone` {
		t.Fatalf("userName was mangled: %q", decoded.UserName)
	}

	if decoded.Name.GivenName != "Fred\\Wilma" {
		t.Fatalf("givenName was mangled: %q", decoded.Name.GivenName)
	}
}

func TestBuildPatchUser(t *testing.T) {

	snapshot := &domain.IdentitySnapshot{
		FirstName: "Fred",
		LastName:  "Flintstone",
		Email:     "fred@flintstone.com",
		Enabled:   true,
	}

	actual := BuildPatchUser(snapshot)

	expected := &PatchOp{
		Schemas: []string{PatchOpSchema},
		Operations: []PatchOperation{
			{Op: "replace", Path: "name.givenName", Value: "Fred"},
			{Op: "replace", Path: "name.familyName", Value: "Flintstone"},
			{Op: "replace", Path: "emails[primary eq true].value", Value: "fred@flintstone.com"},
			{Op: "replace", Path: "active", Value: true},
		},
	}

	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Fatalf("unexpected patch payload (-expected +actual):\n%s", diff)
	}
}

func TestBuildDeactivatePatch(t *testing.T) {

	actual := BuildDeactivatePatch()

	if len(actual.Operations) != 1 {
		t.Fatalf("expected 1 operation, but got %d!", len(actual.Operations))
	}

	op := actual.Operations[0]
	if op.Op != "replace" || op.Path != "active" || op.Value != false {
		t.Fatalf("unexpected deactivation operation: %+v", op)
	}
}
