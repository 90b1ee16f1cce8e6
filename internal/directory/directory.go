package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"os"

	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
)

var ErrUserNotFound = errors.New("user not found in identity directory")
var ErrGroupNotFound = errors.New("group not found in identity directory")

// IdentityDirectory is the read interface onto the host identity
// provider.  The dispatch path uses it to resolve group ids to names, to
// evaluate filter-group membership at dispatch time, and to fetch the
// subject's current state when the notification did not carry a snapshot.
type IdentityDirectory interface {
	LookupUser(ctx context.Context, realm domain.RealmID, userID domain.UserID) (*domain.IdentitySnapshot, error)
	GroupName(ctx context.Context, realm domain.RealmID, groupID domain.GroupID) (string, error)
	IsMember(ctx context.Context, realm domain.RealmID, userID domain.UserID, groupName string) (bool, error)
}

func NewIdentityDirectory(identityDirectoryImpl string, cfg *config.Config) (IdentityDirectory, error) {
	switch identityDirectoryImpl {
	case "config_file_based":
		directory := ConfigFileBasedIdentityDirectory{Config: cfg}
		err := directory.init()
		return &directory, err
	case "fake":
		return &FakeIdentityDirectory{}, nil
	default:
		return nil, errors.New("Invalid IdentityDirectory impl requested")
	}
}

type realmDirectory struct {
	Users      map[domain.UserID]*domain.IdentitySnapshot `json:"users"`
	GroupNames map[domain.GroupID]string                  `json:"group_names"`
	Members    map[string][]domain.UserID                 `json:"members"`
}

// ConfigFileBasedIdentityDirectory serves directory lookups from a JSON
// dump of the identity provider's state.  Useful for deployments where
// the provider pushes full snapshots, and for local testing.
type ConfigFileBasedIdentityDirectory struct {
	Config *config.Config
	realms map[domain.RealmID]*realmDirectory
}

func (cfbid *ConfigFileBasedIdentityDirectory) init() error {

	logger.Log.Debug("Loading identity directory config file: ", cfbid.Config.IdentityDirectoryConfigFile)

	configFile, err := os.Open(cfbid.Config.IdentityDirectoryConfigFile)
	if err != nil {
		logger.Log.Error("Could not load identity directory config file: ", err)
		return err
	}
	defer configFile.Close()

	jsonBytes, err := ioutil.ReadAll(configFile)
	if err != nil {
		logger.Log.Error("Could not load identity directory config file: ", err)
		return err
	}

	err = json.Unmarshal(jsonBytes, &cfbid.realms)
	if err != nil {
		logger.Log.Error("Could not parse identity directory config file: ", err)
		return err
	}

	return nil
}

func (cfbid *ConfigFileBasedIdentityDirectory) LookupUser(ctx context.Context, realm domain.RealmID, userID domain.UserID) (*domain.IdentitySnapshot, error) {
	realmDir, ok := cfbid.realms[realm]
	if !ok {
		return nil, ErrUserNotFound
	}

	user, ok := realmDir.Users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (cfbid *ConfigFileBasedIdentityDirectory) GroupName(ctx context.Context, realm domain.RealmID, groupID domain.GroupID) (string, error) {
	realmDir, ok := cfbid.realms[realm]
	if !ok {
		return "", ErrGroupNotFound
	}

	name, ok := realmDir.GroupNames[groupID]
	if !ok {
		return "", ErrGroupNotFound
	}

	return name, nil
}

func (cfbid *ConfigFileBasedIdentityDirectory) IsMember(ctx context.Context, realm domain.RealmID, userID domain.UserID, groupName string) (bool, error) {
	realmDir, ok := cfbid.realms[realm]
	if !ok {
		return false, nil
	}

	for _, member := range realmDir.Members[groupName] {
		if member == userID {
			return true, nil
		}
	}

	return false, nil
}

type FakeIdentityDirectory struct {
	Users      map[domain.UserID]*domain.IdentitySnapshot
	GroupNames map[domain.GroupID]string
	Members    map[string][]domain.UserID
}

func (fid *FakeIdentityDirectory) LookupUser(ctx context.Context, realm domain.RealmID, userID domain.UserID) (*domain.IdentitySnapshot, error) {
	logger.Log.Debug("FAKE: identity directory user lookup: ", userID)

	user, ok := fid.Users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (fid *FakeIdentityDirectory) GroupName(ctx context.Context, realm domain.RealmID, groupID domain.GroupID) (string, error) {
	name, ok := fid.GroupNames[groupID]
	if !ok {
		return "", ErrGroupNotFound
	}
	return name, nil
}

func (fid *FakeIdentityDirectory) IsMember(ctx context.Context, realm domain.RealmID, userID domain.UserID, groupName string) (bool, error) {
	for _, member := range fid.Members[groupName] {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}
