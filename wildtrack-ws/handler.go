// Package wildtrackws implements the API Gateway websocket relay that streams
// filtered sighting records to a connection in fixed-size chunks.
package wildtrackws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/wildtrack/wildtrack-relay/sightings"
	"github.com/wildtrack/wildtrack-relay/sightingstore"
	wildtrackcli "github.com/wildtrack/wildtrack-relay/wildtrack-cli"
	"github.com/wildtrack/wildtrack-relay/wildtrack-ws/connectiondao"
)

const (
	RouteConnect    = "$connect"
	RouteDisconnect = "$disconnect"
	RouteDefault    = "$default"
)

// CORSHeaders are attached to every connect response.
var CORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
	"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
}

// Registry records live connections.
type Registry interface {
	Put(ctx context.Context, conn connectiondao.Connection) error
}

// Handler handles API Gateway websocket events. Each message is processed on
// its own; nothing is kept between messages of one connection.
//
// Requests on one connection are not serialized here. Under Lambda two
// overlapping queries may interleave their chunks; the console server reads
// each connection from a single goroutine and so never does.
type Handler struct {
	Registry    Registry
	Dataset     sightingstore.Dataset
	Senders     SenderFactory
	Logger      zerolog.Logger
	Metrics     wildtrackcli.Metrics
	ChunkSize   int           // records per chunk (default 50)
	ConnTTL     time.Duration // TTL for connection records (default 2 hours)
	StrictQuery bool          // reject non-numeric query bounds instead of matching nothing

	now func() time.Time
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// HandleEvent routes an API Gateway websocket event to the appropriate
// handler. Failures are reported in the response; the returned error is
// always nil.
func (h *Handler) HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := h.Logger.With().
		Str("connection_id", req.RequestContext.ConnectionID).
		Str("route", req.RequestContext.RouteKey).
		Logger()
	ctx = logger.WithContext(ctx)

	switch req.RequestContext.RouteKey {
	case RouteConnect:
		return h.handleConnect(ctx, logger, req), nil
	case RouteDisconnect:
		return h.handleDisconnect(logger), nil
	case RouteDefault:
		return h.handleMessage(ctx, logger, req), nil
	default:
		logger.Warn().Msg("unknown route")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
	}
}

func (h *Handler) handleConnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) events.APIGatewayProxyResponse {
	ttl := h.ConnTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}

	conn := connectiondao.Connection{
		ConnectionID: req.RequestContext.ConnectionID,
		TTL:          h.clock().Add(ttl).Unix(),
	}

	if err := h.Registry.Put(ctx, conn); err != nil {
		err = fmt.Errorf("%w: %v", ErrRegistryWrite, err)
		logger.Error().Err(err).Msg("failed to store connection")
		return response(http.StatusInternalServerError, ConnectFailedAck(err).String(), CORSHeaders)
	}

	h.Metrics.Event(ctx, wildtrackcli.ConnectionOpenedMetric)
	logger.Info().Int64("ttl", conn.TTL).Msg("connection established")
	return response(http.StatusOK, ConnectedAck().String(), CORSHeaders)
}

// handleDisconnect leaves the registry alone; rows expire through their TTL.
func (h *Handler) handleDisconnect(logger zerolog.Logger) events.APIGatewayProxyResponse {
	logger.Info().Msg("connection closed")
	return response(http.StatusOK, DisconnectedBody, nil)
}

func (h *Handler) handleMessage(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) events.APIGatewayProxyResponse {
	start := time.Now()
	endpoint := fmt.Sprintf("https://%s/%s", req.RequestContext.DomainName, req.RequestContext.Stage)
	sender := h.Senders.Sender(endpoint, req.RequestContext.ConnectionID)

	n, err := h.stream(ctx, sender, req.Body)
	if err != nil {
		logger.Error().Err(err).Msg("failed to process request")
		h.Metrics.Timing(ctx, wildtrackcli.MessageHandledMetric, start, outcome("failure"))
		return response(http.StatusInternalServerError, RequestFailedAck(err).String(), nil)
	}

	h.Metrics.Timing(ctx, wildtrackcli.MessageHandledMetric, start, outcome("success"))
	h.Metrics.Gauge(ctx, wildtrackcli.RecordsStreamedMetric, float64(n))
	return response(http.StatusOK, DataSentAck(n).String(), nil)
}

// stream runs fetch, filter and emit for one query and returns the number of
// matching records.
func (h *Handler) stream(ctx context.Context, sender Sender, body string) (int, error) {
	logger := zerolog.Ctx(ctx)

	query, err := ParseQuery(body, h.StrictQuery)
	if err != nil {
		return 0, err
	}

	records, err := h.Dataset.Records(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	matched := sightings.Filter(records, query)
	logger.Info().
		Int("records", len(records)).
		Int("matched", len(matched)).
		Msg("filtered dataset")

	sent, err := EmitChunks(ctx, sender, matched, h.ChunkSize)
	if err != nil {
		if errors.Is(err, ErrChannelGone) {
			logger.Info().Int("sent", sent).Msg("connection gone, aborting stream")
		}
		return 0, err
	}

	logger.Info().Int("chunks", sent).Int("records", len(matched)).Msg("stream complete")
	return len(matched), nil
}

func outcome(v string) map[wildtrackcli.DimensionName]string {
	return map[wildtrackcli.DimensionName]string{wildtrackcli.OutcomeDimension: v}
}

func response(status int, body string, headers map[string]string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       body,
	}
}
