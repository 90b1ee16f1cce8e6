package main

import (
	"context"
	"os"

	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/identity-sync/scim-connector/internal/scim"
	"github.com/identity-sync/scim-connector/internal/target"

	"github.com/sirupsen/logrus"
)

func startTargetProbe() {

	logger.InitLogger()

	cfg := config.GetConfig()

	targetStore, err := target.NewTargetStore(cfg.SyncTargetImpl, cfg)
	if err != nil {
		logger.LogFatalError("Failed to load the sync target configuration", err)
	}

	targets, err := targetStore.GetAllTargets()
	if err != nil {
		logger.LogFatalError("Failed to read the sync targets", err)
	}

	if len(targets) == 0 {
		logger.Log.Info("No sync targets configured")
		return
	}

	ctx := context.Background()

	failures := 0
	for realm, realmTargets := range targets {
		for _, t := range realmTargets {
			log := logger.Log.WithFields(logrus.Fields{"realm": realm, "target": t.Name, "base_url": t.BaseUrl})

			client := scim.NewClientWithOptions(t.Name, t.BaseUrl, t.Token, cfg.ScimRequestTimeout, cfg.ScimMaxRetries)

			if client.Probe(ctx) {
				log.Info("Target is reachable")
			} else {
				log.Error("Target is NOT reachable")
				failures++
			}
		}
	}

	if failures > 0 {
		logger.Log.Errorf("%d sync target(s) failed the reachability probe", failures)
		os.Exit(1)
	}
}
