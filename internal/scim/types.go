package scim

const (
	UserSchema    = "urn:ietf:params:scim:schemas:core:2.0:User"
	PatchOpSchema = "urn:ietf:params:scim:api:messages:2.0:PatchOp"

	MediaType = "application/scim+json"
)

type UserName struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

type UserEmail struct {
	Value   string `json:"value"`
	Type    string `json:"type"`
	Primary bool   `json:"primary"`
}

// UserResource is the SCIM v2 User representation sent on POST /Users.
type UserResource struct {
	Schemas  []string    `json:"schemas"`
	UserName string      `json:"userName"`
	Name     UserName    `json:"name"`
	Emails   []UserEmail `json:"emails"`
	Active   bool        `json:"active"`
}

type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// PatchOp is the RFC 7644 partial-update envelope sent on PATCH /Users/{id}.
type PatchOp struct {
	Schemas    []string         `json:"schemas"`
	Operations []PatchOperation `json:"Operations"`
}

type listedResource struct {
	ID string `json:"id"`
}

// listResponse carries the only two fields the connector reads from a
// filtered GET /Users result set.
type listResponse struct {
	TotalResults int              `json:"totalResults"`
	Resources    []listedResource `json:"Resources"`
}

type errorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}
