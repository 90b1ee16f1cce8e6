package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/identity-sync/scim-connector/internal/api"
	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/dispatch"
	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/identity-sync/scim-connector/internal/platform/queue"
	"github.com/identity-sync/scim-connector/internal/platform/utils"

	"github.com/gorilla/mux"
	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

func startKafkaEventConsumer(mgmtAddr string) {

	logger.InitLogger()

	logger.Log.Info("Starting SCIM-Connector Kafka event consumer")

	cfg := config.GetConfig()
	logger.Log.Info("SCIM-Connector configuration:\n", cfg)

	router, err := buildRouter(cfg)
	if err != nil {
		logger.LogFatalError("Failed to build the notification router", err)
	}

	kafkaReader, err := queue.StartConsumer(&queue.ConsumerConfig{
		Brokers:    cfg.KafkaBrokers,
		Topic:      cfg.KafkaNotificationsTopic,
		GroupID:    cfg.KafkaGroupID,
		SaslConfig: buildKafkaSaslConfig(cfg),
	})
	if err != nil {
		logger.LogFatalError("Failed to start Kafka consumer", err)
	}

	shutdownCtx, shutdownCtxCancel := context.WithCancel(context.Background())

	// If the kafka consumer runs into a fatal error, notify the
	// main thread so that it can shutdown the process
	fatalProcessingError := make(chan struct{})

	go consumeNotificationsFromKafka(shutdownCtx, kafkaReader, router, fatalProcessingError)

	apiMux := mux.NewRouter()

	monitoringServer := api.NewMonitoringServer(apiMux, cfg)
	monitoringServer.Routes()

	apiSrv := utils.StartHTTPServer(mgmtAddr, "management", apiMux)

	signalChan := make(chan os.Signal, 1)

	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		logger.Log.Info("Received signal to shutdown: ", sig)
		shutdownCtxCancel() // Notify the consumer to shutdown
	case <-fatalProcessingError:
		logger.Log.Info("Received a fatal processing error...shutting down!")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	utils.ShutdownHTTPServer(ctx, "management", apiSrv)

	logger.Log.Info("SCIM-Connector shutting down")
}

func consumeNotificationsFromKafka(ctx context.Context, kafkaReader *kafka.Reader, dispatcher api.NotificationDispatcher, fatalProcessingError chan struct{}) {

	defer func() {
		logger.Log.Info("Stopped reading kafka messages")
		if err := kafkaReader.Close(); err != nil {
			logger.LogError("Failed to close kafka reader", err)
		}
	}()

	for {
		m, err := kafkaReader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.LogError("Error reading message from kafka", err)
			fatalProcessingError <- struct{}{}
			return
		}

		log := logger.Log.WithFields(logrus.Fields{"key": string(m.Key), "offset": m.Offset, "partition": m.Partition})
		log.Debug("Read notification off of kafka topic")

		var notification domain.LifecycleNotification
		if err := json.Unmarshal(m.Value, &notification); err != nil {
			// Poison messages are logged and skipped, never fatal
			log.WithFields(logrus.Fields{"error": err}).Error("Unable to unmarshal lifecycle notification")
			continue
		}

		dispatcher.Route(ctx, &notification)
	}
}

var _ api.NotificationDispatcher = (*dispatch.Router)(nil)
