package queue

import (
	"github.com/identity-sync/scim-connector/internal/platform/logger"

	kafka "github.com/segmentio/kafka-go"
)

func StartProducer(cfg *ProducerConfig) (*kafka.Writer, error) {
	logger.Log.Info("Starting a new Kafka producer..")
	logger.Log.Info("Kafka producer configuration: ", cfg)

	writerConfig := kafka.WriterConfig{
		Brokers:    cfg.Brokers,
		Topic:      cfg.Topic,
		BatchSize:  cfg.BatchSize,
		BatchBytes: cfg.BatchBytes,
	}

	if cfg.SaslConfig != nil {
		dialer, err := saslDialer(cfg.SaslConfig)
		if err != nil {
			logger.Log.Error("Failed to create a SASL dialer for the Kafka producer: ", err)
			return nil, err
		}
		writerConfig.Dialer = dialer
	}

	if cfg.Balancer == "hash" {
		writerConfig.Balancer = &kafka.Hash{}
	}

	w := kafka.NewWriter(writerConfig)

	logger.Log.Info("Producing messages to topic: ", cfg.Topic)

	return w, nil
}
