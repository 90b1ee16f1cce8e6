package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ENV_PREFIX = "SCIM_CONNECTOR"

	URL_APP_NAME                   = "URL_App_Name"
	URL_PATH_PREFIX                = "URL_Path_Prefix"
	URL_BASE_PATH                  = "URL_Base_Path"
	HTTP_SHUTDOWN_TIMEOUT          = "HTTP_Shutdown_Timeout"
	SERVICE_TO_SERVICE_CREDENTIALS = "Service_To_Service_Credentials"
	PROFILE                        = "Enable_Profile"
	BROKERS                        = "Kafka_Brokers"
	NOTIFICATIONS_TOPIC            = "Kafka_Notifications_Topic"
	NOTIFICATIONS_GROUP_ID         = "Kafka_Notifications_Group_Id"
	NOTIFICATIONS_BATCH_SIZE       = "Kafka_Notifications_Batch_Size"
	NOTIFICATIONS_BATCH_BYTES      = "Kafka_Notifications_Batch_Bytes"
	KAFKA_SASL_MECHANISM           = "Kafka_SASL_Mechanism"
	KAFKA_USERNAME                 = "Kafka_Username"
	KAFKA_PASSWORD                 = "Kafka_Password"
	KAFKA_CA                       = "Kafka_CA"
	DEFAULT_BROKER_ADDRESS         = "kafka:29092"
	SYNC_TARGET_IMPL               = "Sync_Target_Impl"
	SYNC_TARGET_CONFIG_FILE        = "Sync_Target_Config_File"
	IDENTITY_DIRECTORY_IMPL        = "Identity_Directory_Impl"
	IDENTITY_DIRECTORY_CONFIG_FILE = "Identity_Directory_Config_File"
	SCIM_REQUEST_TIMEOUT           = "Scim_Request_Timeout"
	SCIM_MAX_RETRIES               = "Scim_Max_Retries"
)

type Config struct {
	UrlAppName                   string
	UrlPathPrefix                string
	UrlBasePath                  string
	HttpShutdownTimeout          time.Duration
	ServiceToServiceCredentials  map[string]interface{}
	Profile                      bool
	KafkaBrokers                 []string
	KafkaNotificationsTopic      string
	KafkaNotificationsBatchSize  int
	KafkaNotificationsBatchBytes int
	KafkaGroupID                 string
	KafkaSASLMechanism           string
	KafkaUsername                string
	KafkaPassword                string
	KafkaCA                      string
	SyncTargetImpl               string
	SyncTargetConfigFile         string
	IdentityDirectoryImpl        string
	IdentityDirectoryConfigFile  string
	ScimRequestTimeout           time.Duration
	ScimMaxRetries               int
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", URL_PATH_PREFIX, c.UrlPathPrefix)
	fmt.Fprintf(&b, "%s: %s\n", URL_APP_NAME, c.UrlAppName)
	fmt.Fprintf(&b, "%s: %s\n", URL_BASE_PATH, c.UrlBasePath)
	fmt.Fprintf(&b, "%s: %s\n", HTTP_SHUTDOWN_TIMEOUT, c.HttpShutdownTimeout)
	fmt.Fprintf(&b, "%s: %t\n", PROFILE, c.Profile)
	fmt.Fprintf(&b, "%s: %s\n", BROKERS, c.KafkaBrokers)
	fmt.Fprintf(&b, "%s: %s\n", NOTIFICATIONS_TOPIC, c.KafkaNotificationsTopic)
	fmt.Fprintf(&b, "%s: %d\n", NOTIFICATIONS_BATCH_SIZE, c.KafkaNotificationsBatchSize)
	fmt.Fprintf(&b, "%s: %d\n", NOTIFICATIONS_BATCH_BYTES, c.KafkaNotificationsBatchBytes)
	fmt.Fprintf(&b, "%s: %s\n", NOTIFICATIONS_GROUP_ID, c.KafkaGroupID)
	fmt.Fprintf(&b, "%s: %s\n", KAFKA_SASL_MECHANISM, c.KafkaSASLMechanism)
	fmt.Fprintf(&b, "%s: %s\n", SYNC_TARGET_IMPL, c.SyncTargetImpl)
	fmt.Fprintf(&b, "%s: %s\n", SYNC_TARGET_CONFIG_FILE, c.SyncTargetConfigFile)
	fmt.Fprintf(&b, "%s: %s\n", IDENTITY_DIRECTORY_IMPL, c.IdentityDirectoryImpl)
	fmt.Fprintf(&b, "%s: %s\n", IDENTITY_DIRECTORY_CONFIG_FILE, c.IdentityDirectoryConfigFile)
	fmt.Fprintf(&b, "%s: %s\n", SCIM_REQUEST_TIMEOUT, c.ScimRequestTimeout)
	fmt.Fprintf(&b, "%s: %d\n", SCIM_MAX_RETRIES, c.ScimMaxRetries)

	return b.String()
}

func GetConfig() *Config {
	options := viper.New()

	options.SetDefault(URL_PATH_PREFIX, "api")
	options.SetDefault(URL_APP_NAME, "scim-connector")
	options.SetDefault(HTTP_SHUTDOWN_TIMEOUT, 2)
	options.SetDefault(SERVICE_TO_SERVICE_CREDENTIALS, "")
	options.SetDefault(PROFILE, false)
	options.SetDefault(BROKERS, []string{DEFAULT_BROKER_ADDRESS})
	options.SetDefault(NOTIFICATIONS_TOPIC, "platform.identity.lifecycle-notifications")
	options.SetDefault(NOTIFICATIONS_GROUP_ID, "scim-connector-consumer")
	options.SetDefault(NOTIFICATIONS_BATCH_SIZE, 100)
	options.SetDefault(NOTIFICATIONS_BATCH_BYTES, 1048576)
	options.SetDefault(KAFKA_SASL_MECHANISM, "")
	options.SetDefault(KAFKA_USERNAME, "")
	options.SetDefault(KAFKA_PASSWORD, "")
	options.SetDefault(KAFKA_CA, "")
	options.SetDefault(SYNC_TARGET_IMPL, "config_file_based")
	options.SetDefault(SYNC_TARGET_CONFIG_FILE, "sync_targets.json")
	options.SetDefault(IDENTITY_DIRECTORY_IMPL, "config_file_based")
	options.SetDefault(IDENTITY_DIRECTORY_CONFIG_FILE, "identity_directory.json")
	options.SetDefault(SCIM_REQUEST_TIMEOUT, 8)
	options.SetDefault(SCIM_MAX_RETRIES, 3)

	options.SetEnvPrefix(ENV_PREFIX)
	options.AutomaticEnv()

	return &Config{
		UrlPathPrefix:                options.GetString(URL_PATH_PREFIX),
		UrlAppName:                   options.GetString(URL_APP_NAME),
		UrlBasePath:                  buildUrlBasePath(options.GetString(URL_PATH_PREFIX), options.GetString(URL_APP_NAME)),
		HttpShutdownTimeout:          options.GetDuration(HTTP_SHUTDOWN_TIMEOUT) * time.Second,
		ServiceToServiceCredentials:  options.GetStringMap(SERVICE_TO_SERVICE_CREDENTIALS),
		Profile:                      options.GetBool(PROFILE),
		KafkaBrokers:                 options.GetStringSlice(BROKERS),
		KafkaNotificationsTopic:      options.GetString(NOTIFICATIONS_TOPIC),
		KafkaNotificationsBatchSize:  options.GetInt(NOTIFICATIONS_BATCH_SIZE),
		KafkaNotificationsBatchBytes: options.GetInt(NOTIFICATIONS_BATCH_BYTES),
		KafkaGroupID:                 options.GetString(NOTIFICATIONS_GROUP_ID),
		KafkaSASLMechanism:           options.GetString(KAFKA_SASL_MECHANISM),
		KafkaUsername:                options.GetString(KAFKA_USERNAME),
		KafkaPassword:                options.GetString(KAFKA_PASSWORD),
		KafkaCA:                      options.GetString(KAFKA_CA),
		SyncTargetImpl:               options.GetString(SYNC_TARGET_IMPL),
		SyncTargetConfigFile:         options.GetString(SYNC_TARGET_CONFIG_FILE),
		IdentityDirectoryImpl:        options.GetString(IDENTITY_DIRECTORY_IMPL),
		IdentityDirectoryConfigFile:  options.GetString(IDENTITY_DIRECTORY_CONFIG_FILE),
		ScimRequestTimeout:           options.GetDuration(SCIM_REQUEST_TIMEOUT) * time.Second,
		ScimMaxRetries:               options.GetInt(SCIM_MAX_RETRIES),
	}
}

func buildUrlBasePath(pathPrefix string, appName string) string {
	return fmt.Sprintf("/%s/%s/v1", pathPrefix, appName)
}
