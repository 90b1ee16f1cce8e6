package target

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/platform/logger"

	"github.com/go-playground/validator/v10"
)

func NewTargetStore(targetStoreImpl string, cfg *config.Config) (TargetStore, error) {
	switch targetStoreImpl {
	case "config_file_based":
		store := ConfigFileBasedTargetStore{Config: cfg}
		err := store.init()
		return &store, err
	case "fake":
		return &FakeTargetStore{}, nil
	default:
		return nil, errors.New("Invalid TargetStore impl requested")
	}
}

type ConfigFileBasedTargetStore struct {
	Config          *config.Config
	targetsPerRealm map[domain.RealmID][]SyncTarget
}

func (cfbts *ConfigFileBasedTargetStore) init() error {

	err := cfbts.loadTargetsFromFile()
	if err != nil {
		return err
	}

	return cfbts.validateTargets()
}

func (cfbts *ConfigFileBasedTargetStore) loadTargetsFromFile() error {

	logger.Log.Debug("Loading sync target config file: ", cfbts.Config.SyncTargetConfigFile)

	configFile, err := os.Open(cfbts.Config.SyncTargetConfigFile)
	if err != nil {
		logger.Log.Error("Could not load sync target config file: ", err)
		return err
	}
	defer configFile.Close()

	jsonBytes, err := ioutil.ReadAll(configFile)
	if err != nil {
		logger.Log.Error("Could not load sync target config file: ", err)
		return err
	}

	err = json.Unmarshal(jsonBytes, &cfbts.targetsPerRealm)
	if err != nil {
		logger.Log.Error("Could not parse sync target config file: ", err)
		return err
	}

	return nil
}

func (cfbts *ConfigFileBasedTargetStore) validateTargets() error {
	v := validator.New()

	for realm, targets := range cfbts.targetsPerRealm {
		for _, t := range targets {
			if err := ValidateTarget(v, t); err != nil {
				return fmt.Errorf("invalid sync target %q in realm %q: %w", t.Name, realm, err)
			}
		}
	}

	return nil
}

// ValidateTarget enforces the invariants the administrative surface is
// supposed to guarantee: http/https base url, required token, and a
// non-empty attribute name when the strategy is attribute based.
func ValidateTarget(v *validator.Validate, t SyncTarget) error {
	if err := v.Struct(t); err != nil {
		return err
	}

	if t.UserNameStrategy == UserNameStrategyAttribute && strings.TrimSpace(t.UserNameAttribute) == "" {
		return errors.New("username_attribute is required when username_strategy is attribute")
	}

	return nil
}

func (cfbts *ConfigFileBasedTargetStore) GetTargets(realm domain.RealmID) ([]SyncTarget, error) {
	return cfbts.targetsPerRealm[realm], nil
}

func (cfbts *ConfigFileBasedTargetStore) GetAllTargets() (map[domain.RealmID][]SyncTarget, error) {
	return cfbts.targetsPerRealm, nil
}

type FakeTargetStore struct {
	TargetsPerRealm map[domain.RealmID][]SyncTarget
}

func (fts *FakeTargetStore) GetTargets(realm domain.RealmID) ([]SyncTarget, error) {
	logger.Log.Debug("FAKE: target store lookup for realm: ", realm)
	return fts.TargetsPerRealm[realm], nil
}

func (fts *FakeTargetStore) GetAllTargets() (map[domain.RealmID][]SyncTarget, error) {
	return fts.TargetsPerRealm, nil
}
