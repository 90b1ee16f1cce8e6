package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/identity-sync/scim-connector/internal/platform/queue"

	kafka "github.com/segmentio/kafka-go"
)

// test_event_publisher publishes sample lifecycle notifications so the
// consumer pipeline can be exercised without a running identity provider.
func main() {

	realm := flag.String("realm", "tenant-1", "realm id to publish under")
	userID := flag.String("user", "u-100", "subject user id")
	username := flag.String("username", "jdoe", "subject username")
	email := flag.String("email", "jdoe@example.com", "subject email")
	eventKind := flag.String("event", domain.UserEventRegister, "user event kind (register, update_profile, update_email, update_credential, delete_account)")
	count := flag.Int("count", 1, "number of notifications to publish")
	flag.Parse()

	logger.InitLogger()

	cfg := config.GetConfig()

	var saslConfig *queue.SaslConfig
	if cfg.KafkaSASLMechanism != "" {
		saslConfig = &queue.SaslConfig{
			SaslMechanism: cfg.KafkaSASLMechanism,
			SaslUsername:  cfg.KafkaUsername,
			SaslPassword:  cfg.KafkaPassword,
			KafkaCA:       cfg.KafkaCA,
		}
	}

	writer, err := queue.StartProducer(&queue.ProducerConfig{
		Brokers:    cfg.KafkaBrokers,
		Topic:      cfg.KafkaNotificationsTopic,
		BatchSize:  cfg.KafkaNotificationsBatchSize,
		BatchBytes: cfg.KafkaNotificationsBatchBytes,
		SaslConfig: saslConfig,
	})
	if err != nil {
		logger.LogFatalError("Failed to start the Kafka producer", err)
	}
	defer writer.Close()

	notification := domain.LifecycleNotification{
		RealmID:   domain.RealmID(*realm),
		Category:  domain.NotificationCategoryUser,
		EventKind: *eventKind,
		UserID:    domain.UserID(*userID),
		Snapshot: &domain.IdentitySnapshot{
			Username:  *username,
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     *email,
			Enabled:   true,
		},
	}

	if *eventKind == domain.UserEventUpdateCredential {
		notification.Details = map[string]string{"credential_type": "password"}
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		logger.LogFatalError("Failed to marshal the notification", err)
	}

	ctx := context.Background()

	for i := 0; i < *count; i++ {
		msg := kafka.Message{
			Key:   []byte(*realm),
			Value: payload,
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			logger.LogFatalError("Failed to publish the notification", err)
		}

		fmt.Printf("Published %s notification for user %s to topic %s\n", *eventKind, *userID, cfg.KafkaNotificationsTopic)
	}
}
