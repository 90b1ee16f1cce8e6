package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/redhatinsights/platform-go-middlewares/identity"

	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/sirupsen/logrus"
)

const (
	authErrorMessage   = "Authentication failed"
	authErrorLogHeader = "Authentication error: "
	identityHeader     = "x-rh-identity"
	PSKClientIdHeader  = "x-rh-scim-connector-client-id"
	PSKRealmHeader     = "x-rh-scim-connector-realm"
	PSKHeader          = "x-rh-scim-connector-psk"
)

// Principal interface can be implemented and expanded by various principal objects (type depends on middleware being used)
type Principal interface {
	GetRealm() string
}

type key int

var principalKey key

type serviceToServicePrincipal struct {
	realm, clientID string
}

func (sp serviceToServicePrincipal) GetRealm() string {
	return sp.realm
}

func (sp serviceToServicePrincipal) GetClientID() string {
	return sp.clientID
}

type identityPrincipal struct {
	realm string
}

func (ip identityPrincipal) GetRealm() string {
	return ip.realm
}

// GetPrincipal takes the request context and determines which middleware (identity header vs service to service) was used
// before returning a principal object.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(serviceToServicePrincipal)
	if !ok {
		id, ok := ctx.Value(identity.Key).(identity.XRHID)
		p := identityPrincipal{realm: id.Identity.OrgID}
		return p, ok
	}
	return p, ok
}

type serviceCredentials struct {
	clientID string
	realm    string
	psk      string
}

func newServiceCredentials(clientID, realm, psk string) (*serviceCredentials, error) {
	switch {
	case clientID == "":
		return nil, errors.New(authErrorLogHeader + "Missing " + PSKClientIdHeader + " header")
	case realm == "":
		return nil, errors.New(authErrorLogHeader + "Missing " + PSKRealmHeader + " header")
	case psk == "":
		return nil, errors.New(authErrorLogHeader + "Missing " + PSKHeader + " header")
	}
	return &serviceCredentials{
		clientID: clientID,
		realm:    realm,
		psk:      psk,
	}, nil
}

type serviceCredentialsValidator struct {
	knownServiceCredentials map[string]interface{}
}

func (scv *serviceCredentialsValidator) validate(sc *serviceCredentials) error {
	switch {
	case scv.knownServiceCredentials[sc.clientID] == nil:
		return errors.New(authErrorLogHeader + "Provided ClientID not attached to any known keys")
	case sc.psk != scv.knownServiceCredentials[sc.clientID]:
		return errors.New(authErrorLogHeader + "Provided PSK does not match known key for this client")
	}
	return nil
}

// AuthMiddleware allows the passage of parameters into the Authenticate middleware
type AuthMiddleware struct {
	Secrets map[string]interface{}
}

// Authenticate determines which authentication method should be used, and delegates identity header
// auth to the identity middleware
func (amw *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(identityHeader) != "" { // identity header auth
			identity.EnforceIdentity(next).ServeHTTP(w, r)
		} else { // token auth
			sr, err := newServiceCredentials(
				r.Header.Get(PSKClientIdHeader),
				r.Header.Get(PSKRealmHeader),
				r.Header.Get(PSKHeader),
			)
			if err != nil {
				logger.Log.WithFields(logrus.Fields{"error": err}).Debug("Authentication failure")
				http.Error(w, authErrorMessage, 401)
				return
			}
			logger.Log.Debugf("Received service to service request from %v using realm:%v", sr.clientID, sr.realm)
			validator := serviceCredentialsValidator{knownServiceCredentials: amw.Secrets}
			if err := validator.validate(sr); err != nil {
				logger.Log.WithFields(logrus.Fields{"error": err}).Debug("Authentication failure")
				http.Error(w, authErrorMessage, 401)
				return
			}

			principal := serviceToServicePrincipal{realm: sr.realm, clientID: sr.clientID}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}
