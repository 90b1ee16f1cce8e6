package main

import (
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {

	var mgmtAddr string
	var listenAddr string

	// rootCmd represents the base command when called without any subcommands
	var rootCmd = &cobra.Command{
		Use: "scim-connector",
	}

	var kafkaEventConsumerCmd = &cobra.Command{
		Use:   "kafka_event_consumer",
		Short: "Consume lifecycle notifications from Kafka and push them to the configured SCIM targets",
		Run: func(cmd *cobra.Command, args []string) {
			startKafkaEventConsumer(mgmtAddr)
		},
	}

	var notificationReceiverCmd = &cobra.Command{
		Use:   "notification_receiver",
		Short: "Receive lifecycle notifications over HTTP and push them to the configured SCIM targets",
		Run: func(cmd *cobra.Command, args []string) {
			startNotificationReceiver(listenAddr, mgmtAddr)
		},
	}

	var targetProbeCmd = &cobra.Command{
		Use:   "target_probe",
		Short: "Probe the reachability of every configured SCIM target",
		Run: func(cmd *cobra.Command, args []string) {
			startTargetProbe()
		},
	}

	rootCmd.AddCommand(kafkaEventConsumerCmd)
	kafkaEventConsumerCmd.Flags().StringVarP(&mgmtAddr, "mgmt-addr", "m", ":9090", "Hostname:port of the management server")

	rootCmd.AddCommand(notificationReceiverCmd)
	notificationReceiverCmd.Flags().StringVarP(&listenAddr, "listen-addr", "l", ":8080", "Hostname:port of the notification receiver")
	notificationReceiverCmd.Flags().StringVarP(&mgmtAddr, "mgmt-addr", "m", ":9090", "Hostname:port of the management server")

	rootCmd.AddCommand(targetProbeCmd)

	return rootCmd
}

func main() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
