package wildtrackws

import (
	"errors"
	"testing"

	"github.com/tj/assert"
)

func TestParseQuery(t *testing.T) {
	t.Run("numbers", func(t *testing.T) {
		q, err := ParseQuery(`{"startYear":2005,"startMonth":1,"endYear":2006,"endMonth":6}`, false)
		assert.Nil(t, err)
		start, end, ok := q.Bounds()
		assert.True(t, ok)
		assert.Equal(t, 2005*12+1, start)
		assert.Equal(t, 2006*12+6, end)
	})

	t.Run("numeric strings", func(t *testing.T) {
		q, err := ParseQuery(`{"startYear":"2005","startMonth":" 3 ","endYear":"2006","endMonth":"6"}`, true)
		assert.Nil(t, err)
		assert.Equal(t, 3, *q.StartMonth)
	})

	t.Run("species", func(t *testing.T) {
		q, err := ParseQuery(`{"startYear":2005,"startMonth":1,"endYear":2006,"endMonth":6,"species":["zebra","kudu"]}`, false)
		assert.Nil(t, err)
		assert.Equal(t, []string{"zebra", "kudu"}, q.Species)
	})

	t.Run("loose bounds match nothing", func(t *testing.T) {
		for _, body := range []string{
			`{}`,
			`{"startYear":null,"startMonth":1,"endYear":2006,"endMonth":6}`,
			`{"startYear":"abc","startMonth":1,"endYear":2006,"endMonth":6}`,
			`{"startYear":true,"startMonth":1,"endYear":2006,"endMonth":6}`,
			`{"startYear":2005.5,"startMonth":1,"endYear":2006,"endMonth":6}`,
		} {
			q, err := ParseQuery(body, false)
			assert.Nil(t, err, body)
			_, _, ok := q.Bounds()
			assert.False(t, ok, body)
		}
	})

	t.Run("strict rejects invalid bounds", func(t *testing.T) {
		_, err := ParseQuery(`{"startYear":"abc","startMonth":1,"endYear":2006,"endMonth":6}`, true)
		assert.True(t, errors.Is(err, ErrMalformedQuery))
		assert.Contains(t, err.Error(), "startYear")

		_, err = ParseQuery(`{"startYear":2005,"startMonth":1,"endYear":2006}`, true)
		assert.True(t, errors.Is(err, ErrMalformedQuery))
		assert.Contains(t, err.Error(), "endMonth")
	})

	t.Run("not an object", func(t *testing.T) {
		for _, body := range []string{``, `not json`, `[1,2]`, `42`, `{"startYear":`} {
			_, err := ParseQuery(body, false)
			assert.True(t, errors.Is(err, ErrMalformedQuery), body)
		}
	})

	t.Run("unknown species", func(t *testing.T) {
		_, err := ParseQuery(`{"startYear":2005,"startMonth":1,"endYear":2006,"endMonth":6,"species":["dragon"]}`, false)
		assert.True(t, errors.Is(err, ErrMalformedQuery))
		assert.Contains(t, err.Error(), "dragon")
	})
}

func TestAck(t *testing.T) {
	assert.Equal(t, `{"message":"Connected"}`, ConnectedAck().String())
	assert.Equal(t, `{"message":"Data sent successfully","recordsProcessed":0}`, DataSentAck(0).String())
	assert.Equal(t, `{"message":"Error processing request","error":"boom"}`, RequestFailedAck(errors.New("boom")).String())
	assert.Equal(t, `{"message":"Failed to connect","error":"boom"}`, ConnectFailedAck(errors.New("boom")).String())
}
