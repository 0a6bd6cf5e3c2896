package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v2"

	"github.com/wildtrack/wildtrack-relay/sightingstore"
	wildtrackcli "github.com/wildtrack/wildtrack-relay/wildtrack-cli"
	wildtrackddb "github.com/wildtrack/wildtrack-relay/wildtrack-ddb"
	wildtracklocal "github.com/wildtrack/wildtrack-relay/wildtrack-local"
	wildtracksecret "github.com/wildtrack/wildtrack-relay/wildtrack-secret"
	wildtrackws "github.com/wildtrack/wildtrack-relay/wildtrack-ws"
)

var service = wildtrackcli.NewService("wildtrack-relay")

func main() {
	var flags []cli.Flag
	flags = append(flags, wildtrackcli.CommonFlags...)
	flags = append(flags, wildtrackcli.PortFlag(8080))
	flags = append(flags, sightingstore.StoreFlags...)
	flags = append(flags, wildtrackws.RelayFlags...)
	flags = append(flags, wildtrackddb.DDBFlags...)
	flags = append(flags, wildtracksecret.SecretFlags...)

	app := wildtrackcli.App(service, action, flags...)
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	logger := wildtrackcli.Logger(service)
	sess := session.Must(session.NewSession(aws.NewConfig().WithRegion(wildtrackddb.DDBOpts.Region)))

	if err := wildtracksecret.Overlay(sess); err != nil {
		return err
	}
	if !wildtrackcli.CommonOpts.Dry && sightingstore.StoreOpts.Bucket == "" {
		return fmt.Errorf("data-bucket is required unless running with --dry")
	}

	api, err := wildtrackddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}

	var metrics wildtrackcli.Metrics
	if !wildtrackcli.CommonOpts.Console {
		metrics = wildtrackcli.NewMetrics(service, cloudwatch.New(sess), logger)
	}

	remote := &sightingstore.S3Store{
		S3:     s3.New(sess),
		Bucket: sightingstore.StoreOpts.Bucket,
		Key:    sightingstore.StoreOpts.Key,
	}
	handler := (&wildtrackws.Handler{
		Registry: wildtrackws.NewRegistry(api),
		Dataset:  sightingstore.Build(remote, logger),
		Logger:   logger,
		Metrics:  metrics,
	}).Configure()

	logger.Info().
		Bool("console", wildtrackcli.CommonOpts.Console).
		Bool("dry", wildtrackcli.CommonOpts.Dry).
		Str("table", wildtrackws.ConnectionsTableName()).
		Int("chunkSize", handler.ChunkSize).
		Msg("starting relay")

	if wildtrackcli.CommonOpts.Console {
		server := wildtracklocal.NewServer(handler, logger)
		handler.Senders = server

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return wildtracklocal.Serve(ctx, server, wildtrackcli.CommonOpts.Port)
	}

	handler.Senders = &wildtrackws.APIGatewaySenders{}
	lambda.Start(handler.HandleEvent)
	return nil
}
