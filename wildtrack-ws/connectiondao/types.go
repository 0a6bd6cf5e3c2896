package connectiondao

// Connection is one live websocket connection. Rows are never deleted by the
// relay; DynamoDB purges them once TTL (epoch seconds) has passed.
type Connection struct {
	ConnectionID string `dynamodbav:"connectionId" ddb:"hash"`
	TTL          int64  `dynamodbav:"ttl"`
}
