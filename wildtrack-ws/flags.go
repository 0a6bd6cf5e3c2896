package wildtrackws

import (
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/urfave/cli/v2"

	wildtrackcli "github.com/wildtrack/wildtrack-relay/wildtrack-cli"
	"github.com/wildtrack/wildtrack-relay/wildtrack-ws/connectiondao"
)

var RelayOpts struct {
	ChunkSize        int
	ConnTTL          time.Duration
	StrictQuery      bool
	ConnectionsTable string
}

var ChunkSizeFlag = wildtrackcli.IntFlag("chunk-size", "Records per pushed chunk", &RelayOpts.ChunkSize, DefaultChunkSize)
var ConnTTLFlag = wildtrackcli.DurationFlag("conn-ttl", "How long a connection row lives in the registry", &RelayOpts.ConnTTL, 2*time.Hour)
var StrictQueryFlag = wildtrackcli.BoolFlag("strict-query", "Reject queries whose bounds are missing or not integers", &RelayOpts.StrictQuery)
var ConnectionsTableFlag = wildtrackcli.StringFlag("connections-table", "Connections table, defaults to {env}-wildtrack--ws-connections", &RelayOpts.ConnectionsTable)

var RelayFlags = []cli.Flag{
	ChunkSizeFlag,
	ConnTTLFlag,
	StrictQueryFlag,
	ConnectionsTableFlag,
}

// ConnectionsTableName is the configured table, or the environment default.
func ConnectionsTableName() string {
	if RelayOpts.ConnectionsTable != "" {
		return RelayOpts.ConnectionsTable
	}
	return connectiondao.TableName(wildtrackcli.CommonOpts.Env)
}

// NewRegistry opens the connections table named by RelayOpts, falling back
// to the environment's standard table.
func NewRegistry(api dynamodbiface.DynamoDBAPI) *connectiondao.DAO {
	if RelayOpts.ConnectionsTable != "" {
		return connectiondao.New(api, RelayOpts.ConnectionsTable)
	}
	return connectiondao.Build(api, wildtrackcli.CommonOpts.Env)
}

// Configure copies RelayOpts onto h.
func (h *Handler) Configure() *Handler {
	h.ChunkSize = RelayOpts.ChunkSize
	h.ConnTTL = RelayOpts.ConnTTL
	h.StrictQuery = RelayOpts.StrictQuery
	return h
}
