package main

import (
	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/directory"
	"github.com/identity-sync/scim-connector/internal/dispatch"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/identity-sync/scim-connector/internal/platform/queue"
	"github.com/identity-sync/scim-connector/internal/reconcile"
	"github.com/identity-sync/scim-connector/internal/scim"
	"github.com/identity-sync/scim-connector/internal/target"
)

func buildRouter(cfg *config.Config) (*dispatch.Router, error) {

	targetStore, err := target.NewTargetStore(cfg.SyncTargetImpl, cfg)
	if err != nil {
		return nil, err
	}

	identityDirectory, err := directory.NewIdentityDirectory(cfg.IdentityDirectoryImpl, cfg)
	if err != nil {
		return nil, err
	}

	return dispatch.NewRouter(targetStore, identityDirectory, dispatch.NewDebouncer(), newEngineFactory(cfg)), nil
}

func newEngineFactory(cfg *config.Config) dispatch.EngineFactory {
	return func(t target.SyncTarget) *reconcile.Engine {
		client := scim.NewClientWithOptions(t.Name, t.BaseUrl, t.Token, cfg.ScimRequestTimeout, cfg.ScimMaxRetries)
		return reconcile.NewEngine(t.Name, client)
	}
}

func buildKafkaSaslConfig(cfg *config.Config) *queue.SaslConfig {
	if cfg.KafkaUsername == "" {
		return nil
	}

	logger.Log.Info("Kafka SASL authentication enabled")

	return &queue.SaslConfig{
		SaslMechanism: cfg.KafkaSASLMechanism,
		SaslUsername:  cfg.KafkaUsername,
		SaslPassword:  cfg.KafkaPassword,
		KafkaCA:       cfg.KafkaCA,
	}
}
