package connectiondao

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/savaki/ddb"
	"github.com/tj/assert"
)

// withTable runs callback against a scratch table on DynamoDB Local, e.g.
// DDB_ENDPOINT=http://localhost:8000.
func withTable(t *testing.T, callback func(ctx context.Context, dao *DAO)) {
	endpoint := os.Getenv("DDB_ENDPOINT")
	if endpoint == "" {
		t.Skip("DDB_ENDPOINT not set")
	}

	var (
		s = session.Must(session.NewSession(aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials("blah", "blah", "")).
			WithEndpoint(endpoint).
			WithRegion("us-west-2")))
		api       = dynamodb.New(s)
		tableName = fmt.Sprintf("connections-%v", time.Now().UnixNano())
		table     = ddb.New(api).MustTable(tableName, Connection{})
		dao       = New(api, tableName)
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := table.CreateTableIfNotExists(ctx)
	assert.Nil(t, err)
	defer table.DeleteTableIfExists(ctx)

	callback(ctx, dao)
}

func TestDAO(t *testing.T) {
	withTable(t, func(ctx context.Context, dao *DAO) {
		ttl := time.Now().Add(2 * time.Hour).Unix()

		err := dao.Put(ctx, Connection{ConnectionID: "abc=", TTL: ttl})
		assert.Nil(t, err)

		conn, err := dao.Get(ctx, "abc=")
		assert.Nil(t, err)
		assert.Equal(t, "abc=", conn.ConnectionID)
		assert.Equal(t, ttl, conn.TTL)

		// a reconnect with the same id overwrites the row
		err = dao.Put(ctx, Connection{ConnectionID: "abc=", TTL: ttl + 60})
		assert.Nil(t, err)
		conn, err = dao.Get(ctx, "abc=")
		assert.Nil(t, err)
		assert.Equal(t, ttl+60, conn.TTL)

		_, err = dao.Get(ctx, "missing")
		assert.NotNil(t, err)
	})
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "prod-wildtrack--ws-connections", TableName("prod"))
	assert.Equal(t, "prod-wildtrack--ws-connections", Build(nil, "prod").Name())
	assert.Equal(t, "custom", New(nil, "custom").Name())
}
