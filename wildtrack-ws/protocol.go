package wildtrackws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wildtrack/wildtrack-relay/sightings"
)

const (
	ChunkTypeData    = "data"
	DefaultChunkSize = 50

	MsgConnected     = "Connected"
	MsgConnectFailed = "Failed to connect"
	MsgDataSent      = "Data sent successfully"
	MsgRequestFailed = "Error processing request"
	DisconnectedBody = "Disconnected."
)

// Chunk is one ordered slice of a filtered result pushed to a connection.
type Chunk struct {
	Type         string             `json:"type"`
	Payload      []sightings.Record `json:"payload"`
	IsLastChunk  bool               `json:"isLastChunk"`
	TotalRecords int                `json:"totalRecords"`
	CurrentChunk int                `json:"currentChunk"`
	TotalChunks  int                `json:"totalChunks"`
}

// Ack is the synchronous response body for connect and message events.
type Ack struct {
	Message          string `json:"message"`
	RecordsProcessed *int   `json:"recordsProcessed,omitempty"`
	Error            string `json:"error,omitempty"`
}

func (a Ack) String() string {
	b, _ := json.Marshal(a)
	return string(b)
}

func ConnectedAck() Ack {
	return Ack{Message: MsgConnected}
}

func ConnectFailedAck(err error) Ack {
	return Ack{Message: MsgConnectFailed, Error: err.Error()}
}

func DataSentAck(recordsProcessed int) Ack {
	return Ack{Message: MsgDataSent, RecordsProcessed: &recordsProcessed}
}

func RequestFailedAck(err error) Ack {
	return Ack{Message: MsgRequestFailed, Error: err.Error()}
}

// looseInt accepts a JSON number or a numeric string. Anything else leaves
// value nil, which the filter treats as matching nothing.
type looseInt struct {
	value *int
}

func (l *looseInt) UnmarshalJSON(data []byte) error {
	l.value = nil

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(f)
	l.value = &n
	return nil
}

type queryMessage struct {
	StartYear  looseInt `json:"startYear"`
	StartMonth looseInt `json:"startMonth"`
	EndYear    looseInt `json:"endYear"`
	EndMonth   looseInt `json:"endMonth"`
	Species    []string `json:"species,omitempty"`
}

// ParseQuery decodes a query message body. A body that is not a JSON object
// is always malformed. Missing or non-numeric bounds are tolerated unless
// strict is set, in which case they are malformed too. Unknown species names
// are always malformed.
func ParseQuery(body string, strict bool) (sightings.DateRangeQuery, error) {
	trimmed := bytes.TrimSpace([]byte(body))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return sightings.DateRangeQuery{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformedQuery)
	}

	var msg queryMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return sightings.DateRangeQuery{}, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}

	query := sightings.DateRangeQuery{
		StartYear:  msg.StartYear.value,
		StartMonth: msg.StartMonth.value,
		EndYear:    msg.EndYear.value,
		EndMonth:   msg.EndMonth.value,
		Species:    msg.Species,
	}

	if strict {
		fields := []struct {
			name  string
			value *int
		}{
			{"startYear", query.StartYear},
			{"startMonth", query.StartMonth},
			{"endYear", query.EndYear},
			{"endMonth", query.EndMonth},
		}
		for _, f := range fields {
			if f.value == nil {
				return sightings.DateRangeQuery{}, fmt.Errorf("%w: %v must be an integer", ErrMalformedQuery, f.name)
			}
		}
	}

	if err := query.ValidateSpecies(); err != nil {
		return sightings.DateRangeQuery{}, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}
	return query, nil
}
