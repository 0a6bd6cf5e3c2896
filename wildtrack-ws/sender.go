package wildtrackws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
)

// Sender pushes one message to the single connection it was built for. Send
// returns only once the transport has accepted or rejected the message.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, data []byte) error

func (f SenderFunc) Send(ctx context.Context, data []byte) error {
	return f(ctx, data)
}

// SenderFactory builds a Sender addressed to one connection.
type SenderFactory interface {
	Sender(endpoint, connectionID string) Sender
}

// APIGatewaySenders posts to connections through the API Gateway Management
// API. Clients are cached per endpoint.
type APIGatewaySenders struct {
	// NewClient overrides how a management client is built for an endpoint.
	NewClient func(endpoint string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI

	mgmtMu      sync.RWMutex
	mgmtClients map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
}

func (a *APIGatewaySenders) Sender(endpoint, connectionID string) Sender {
	return &apiGatewaySender{
		client:       a.client(endpoint),
		connectionID: connectionID,
	}
}

func (a *APIGatewaySenders) client(endpoint string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI {
	a.mgmtMu.RLock()
	if client, ok := a.mgmtClients[endpoint]; ok {
		a.mgmtMu.RUnlock()
		return client
	}
	a.mgmtMu.RUnlock()

	a.mgmtMu.Lock()
	defer a.mgmtMu.Unlock()

	if client, ok := a.mgmtClients[endpoint]; ok {
		return client
	}
	if a.mgmtClients == nil {
		a.mgmtClients = make(map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI)
	}

	var client apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	if a.NewClient != nil {
		client = a.NewClient(endpoint)
	} else {
		sess := session.Must(session.NewSession(aws.NewConfig().WithEndpoint(endpoint)))
		client = apigatewaymanagementapi.New(sess)
	}
	a.mgmtClients[endpoint] = client
	return client
}

type apiGatewaySender struct {
	client       apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	connectionID string
}

func (s *apiGatewaySender) Send(ctx context.Context, data []byte) error {
	_, err := s.client.PostToConnectionWithContext(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(s.connectionID),
		Data:         data,
	})
	if err != nil {
		if isGoneException(err) {
			return fmt.Errorf("%w: connection %v: %v", ErrChannelGone, s.connectionID, err)
		}
		return fmt.Errorf("posting to connection %v: %w", s.connectionID, err)
	}
	return nil
}

// isGoneException checks if the error is a GoneException (HTTP 410),
// indicating the websocket connection no longer exists.
func isGoneException(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusGone {
		return true
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) && awsErr.Code() == apigatewaymanagementapi.ErrCodeGoneException {
		return true
	}
	return strings.Contains(err.Error(), "GoneException")
}
