package wildtracksecret

import (
	"testing"

	"github.com/tj/assert"

	"github.com/wildtrack/wildtrack-relay/sightingstore"
	wildtrackws "github.com/wildtrack/wildtrack-relay/wildtrack-ws"
)

func TestConfigApply(t *testing.T) {
	sightingstore.StoreOpts.Bucket = "flag-bucket"
	sightingstore.StoreOpts.Key = "animals.csv"
	wildtrackws.RelayOpts.ConnectionsTable = ""

	Config{DataBucket: "secret-bucket", ConnectionsTable: "conns"}.Apply()

	assert.Equal(t, "secret-bucket", sightingstore.StoreOpts.Bucket)
	assert.Equal(t, "animals.csv", sightingstore.StoreOpts.Key)
	assert.Equal(t, "conns", wildtrackws.RelayOpts.ConnectionsTable)
	assert.Equal(t, "conns", wildtrackws.ConnectionsTableName())
}

func TestOverlayWithoutSecret(t *testing.T) {
	SecretOpts.ConfigSecret = ""
	assert.Nil(t, Overlay(nil))
}
