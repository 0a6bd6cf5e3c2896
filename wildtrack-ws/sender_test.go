package wildtrackws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
	"github.com/tj/assert"
)

type fakeManagementAPI struct {
	apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	inputs []*apigatewaymanagementapi.PostToConnectionInput
	err    error
}

func (f *fakeManagementAPI) PostToConnectionWithContext(_ aws.Context, input *apigatewaymanagementapi.PostToConnectionInput, _ ...request.Option) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestAPIGatewaySenders(t *testing.T) {
	t.Run("posts to the connection", func(t *testing.T) {
		api := &fakeManagementAPI{}
		var built []string
		senders := &APIGatewaySenders{
			NewClient: func(endpoint string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI {
				built = append(built, endpoint)
				return api
			},
		}

		err := senders.Sender("https://a/prod", "c1").Send(context.Background(), []byte(`{"type":"data"}`))
		assert.Nil(t, err)
		err = senders.Sender("https://a/prod", "c2").Send(context.Background(), []byte(`{}`))
		assert.Nil(t, err)

		assert.Equal(t, []string{"https://a/prod"}, built)
		assert.Len(t, api.inputs, 2)
		assert.Equal(t, "c1", aws.StringValue(api.inputs[0].ConnectionId))
		assert.Equal(t, `{"type":"data"}`, string(api.inputs[0].Data))
		assert.Equal(t, "c2", aws.StringValue(api.inputs[1].ConnectionId))
	})

	t.Run("gone maps to ErrChannelGone", func(t *testing.T) {
		for _, goneErr := range []error{
			awserr.NewRequestFailure(awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "gone", nil), http.StatusGone, "req-1"),
			awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "gone", nil),
			fmt.Errorf("GoneException: 410"),
		} {
			senders := &APIGatewaySenders{
				NewClient: func(string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI {
					return &fakeManagementAPI{err: goneErr}
				},
			}
			err := senders.Sender("https://a/prod", "c1").Send(context.Background(), nil)
			assert.True(t, errors.Is(err, ErrChannelGone), goneErr.Error())
			assert.Contains(t, err.Error(), "c1")
		}
	})

	t.Run("other failures are not gone", func(t *testing.T) {
		senders := &APIGatewaySenders{
			NewClient: func(string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI {
				return &fakeManagementAPI{err: awserr.New(apigatewaymanagementapi.ErrCodeLimitExceededException, "slow down", nil)}
			},
		}
		err := senders.Sender("https://a/prod", "c1").Send(context.Background(), nil)
		assert.NotNil(t, err)
		assert.False(t, errors.Is(err, ErrChannelGone))
	})
}

func TestSenderFunc(t *testing.T) {
	var got []byte
	s := SenderFunc(func(_ context.Context, data []byte) error {
		got = data
		return nil
	})
	assert.Nil(t, s.Send(context.Background(), []byte("x")))
	assert.Equal(t, "x", string(got))
}
