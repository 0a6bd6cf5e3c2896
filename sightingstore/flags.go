package sightingstore

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	wildtrackcli "github.com/wildtrack/wildtrack-relay/wildtrack-cli"
)

var StoreOpts struct {
	Bucket      string
	Key         string
	File        string
	CacheMaxAge time.Duration
	Cache       bool
}

var BucketFlag = wildtrackcli.StringFlag("data-bucket", "The bucket holding the sighting dataset", &StoreOpts.Bucket)
var KeyFlag = wildtrackcli.StringFlag("data-key", "The object key of the sighting dataset", &StoreOpts.Key, DefaultKey)
var FileFlag = wildtrackcli.StringFlag("data-file", "Local dataset path, used when running in dry mode", &StoreOpts.File, DefaultKey)
var CacheFlag = wildtrackcli.BoolFlag("cache", "Keep the decoded dataset in memory between requests", &StoreOpts.Cache)
var CacheMaxAgeFlag = wildtrackcli.DurationFlag("cache-max-age", "How long a cached dataset is served before it is reloaded (0 keeps it forever)", &StoreOpts.CacheMaxAge, 15*time.Minute)

var StoreFlags = []cli.Flag{
	BucketFlag,
	KeyFlag,
	FileFlag,
	CacheFlag,
	CacheMaxAgeFlag,
}

// Build returns the dataset configured by StoreOpts.
func Build(remote Store, logger zerolog.Logger) Dataset {
	store := remote
	if wildtrackcli.CommonOpts.Dry {
		store = &FileStore{Path: StoreOpts.File}
	}
	if StoreOpts.Cache {
		return NewCache(store, StoreOpts.CacheMaxAge, logger)
	}
	return &Loader{Store: store}
}
