package wildtrackws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wildtrack/wildtrack-relay/sightings"
)

// Chunks partitions records into consecutive chunks of at most size records.
// Payloads share the backing array of records. An empty input yields no
// chunks.
func Chunks(records []sightings.Record, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	total := len(records)
	totalChunks := (total + size - 1) / size

	chunks := make([]Chunk, 0, totalChunks)
	for i := 0; i < total; i += size {
		end := i + size
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{
			Type:         ChunkTypeData,
			Payload:      records[i:end:end],
			IsLastChunk:  end >= total,
			TotalRecords: total,
			CurrentChunk: i/size + 1,
			TotalChunks:  totalChunks,
		})
	}
	return chunks
}

// EmitChunks pushes the chunks of records to sender one at a time, each push
// completing before the next begins. The first failed push stops emission;
// chunks already delivered are not retracted. It returns the number of chunks
// delivered.
func EmitChunks(ctx context.Context, sender Sender, records []sightings.Record, size int) (int, error) {
	logger := zerolog.Ctx(ctx)
	chunks := Chunks(records, size)
	for i, chunk := range chunks {
		data, err := json.Marshal(chunk)
		if err != nil {
			return i, fmt.Errorf("marshalling chunk %v of %v: %w", chunk.CurrentChunk, chunk.TotalChunks, err)
		}
		if err := sender.Send(ctx, data); err != nil {
			return i, fmt.Errorf("sending chunk %v of %v: %w", chunk.CurrentChunk, chunk.TotalChunks, err)
		}
		logger.Debug().
			Int("chunk", chunk.CurrentChunk).
			Int("totalChunks", chunk.TotalChunks).
			Int("size", len(chunk.Payload)).
			Msg("sent chunk")
	}
	return len(chunks), nil
}
