// Package wildtracksecret loads relay configuration from AWS Secrets Manager.
package wildtracksecret

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/savaki/secrets"
	"github.com/urfave/cli/v2"

	"github.com/wildtrack/wildtrack-relay/sightingstore"
	wildtrackcli "github.com/wildtrack/wildtrack-relay/wildtrack-cli"
	wildtrackws "github.com/wildtrack/wildtrack-relay/wildtrack-ws"
)

var SecretOpts struct {
	ConfigSecret string
}

var ConfigSecretFlag = wildtrackcli.StringFlag("config-secret", "Secrets Manager secret holding dataBucket, dataKey and connectionsTable", &SecretOpts.ConfigSecret)

var SecretFlags = []cli.Flag{
	ConfigSecretFlag,
}

func LoadSecret(s *session.Session, secretName string, data interface{}) error {
	api := secrets.WithSecretsManager(secretsmanager.New(s))
	manager, err := secrets.NewManager(api)
	if err != nil {
		return fmt.Errorf("failed to initialize secrets: %w", err)
	}

	if err := manager.Decode(secretName, data); err != nil {
		return fmt.Errorf("failed to load secret %v: %w", secretName, err)
	}
	return nil
}

// Config is the JSON document stored in the config secret. Empty fields
// leave the flag values alone.
type Config struct {
	DataBucket       string `json:"dataBucket"`
	DataKey          string `json:"dataKey"`
	ConnectionsTable string `json:"connectionsTable"`
}

// Apply overlays the non-empty fields onto the store and relay options.
func (c Config) Apply() {
	if c.DataBucket != "" {
		sightingstore.StoreOpts.Bucket = c.DataBucket
	}
	if c.DataKey != "" {
		sightingstore.StoreOpts.Key = c.DataKey
	}
	if c.ConnectionsTable != "" {
		wildtrackws.RelayOpts.ConnectionsTable = c.ConnectionsTable
	}
}

// Overlay loads the configured secret, if any, and applies it.
func Overlay(s *session.Session) error {
	if SecretOpts.ConfigSecret == "" {
		return nil
	}
	var config Config
	if err := LoadSecret(s, SecretOpts.ConfigSecret, &config); err != nil {
		return err
	}
	config.Apply()
	return nil
}
