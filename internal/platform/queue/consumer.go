package queue

import (
	"github.com/identity-sync/scim-connector/internal/platform/logger"

	kafka "github.com/segmentio/kafka-go"
)

func StartConsumer(cfg *ConsumerConfig) (*kafka.Reader, error) {
	logger.Log.Info("Starting Kafka message consumer...")
	logger.Log.Info("Kafka consumer configuration: ", cfg)

	readerConfig := kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	}

	if cfg.ConsumerOffset != 0 {
		readerConfig.StartOffset = cfg.ConsumerOffset
	}

	if cfg.SaslConfig != nil {
		dialer, err := saslDialer(cfg.SaslConfig)
		if err != nil {
			logger.Log.Error("Failed to create a SASL dialer for the Kafka consumer: ", err)
			return nil, err
		}
		readerConfig.Dialer = dialer
	}

	r := kafka.NewReader(readerConfig)

	logger.Log.Info("Consuming messages from topic: ", cfg.Topic)

	return r, nil
}
