package wildtrackddb

import (
	"github.com/urfave/cli/v2"

	wildtrackcli "github.com/wildtrack/wildtrack-relay/wildtrack-cli"
)

var DDBOpts struct {
	DAXCluster string
	Region     string
	Endpoint   string
}

var DAXClusterFlag = wildtrackcli.StringFlag("dax-cluster", "The DAX cluster to route connection writes through", &DDBOpts.DAXCluster)
var RegionFlag = wildtrackcli.StringFlag("aws-region", "Region of the DAX cluster and DynamoDB tables", &DDBOpts.Region, "us-east-2")
var EndpointFlag = wildtrackcli.StringFlag("ddb-endpoint", "Override the DynamoDB endpoint, e.g. http://localhost:8000", &DDBOpts.Endpoint)

var DDBFlags = []cli.Flag{
	DAXClusterFlag,
	RegionFlag,
	EndpointFlag,
}
