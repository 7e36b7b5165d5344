package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

func TestDecodeEnvelopeShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
		meta    *PageMeta
	}{
		{name: "bare array", body: `[{"id":"T1"},{"id":"T2"}]`, wantLen: 2},
		{name: "wrapped array", body: `{"data":[{"id":"T1"}]}`, wantLen: 1},
		{name: "wrapped with meta", body: `{"data":[{"id":"T1"}],"meta":{"page":2,"limit":1,"total":5}}`, wantLen: 1, meta: &PageMeta{Page: 2, Limit: 1, Total: 5}},
		{name: "flat counters", body: `{"data":[{"id":"T1"}],"total":9,"page":1,"limit":1}`, wantLen: 1, meta: &PageMeta{Page: 1, Limit: 1, Total: 9}},
		{name: "empty", body: ``, wantLen: 0},
		{name: "null", body: `null`, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := decodeEnvelope[[]domain.Ticket]([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, env.Data, tt.wantLen)
			assert.Equal(t, tt.meta, env.Meta)
		})
	}
}

func TestDecodeEnvelopeSingleResource(t *testing.T) {
	bare, err := decodeEnvelope[*domain.Ticket]([]byte(`{"id":"T1","title":"VPN down"}`))
	require.NoError(t, err)
	require.NotNil(t, bare.Data)
	assert.Equal(t, "VPN down", bare.Data.Title)

	wrapped, err := decodeEnvelope[*domain.Ticket]([]byte(`{"data":{"id":"T1","title":"VPN down"},"message":"ok"}`))
	require.NoError(t, err)
	require.NotNil(t, wrapped.Data)
	assert.Equal(t, "T1", wrapped.Data.ID)
}

func TestDecodeEnvelopeResourceWithDataField(t *testing.T) {
	type blob struct {
		ID   string `json:"id"`
		Data string `json:"data"`
	}
	env, err := decodeEnvelope[blob]([]byte(`{"id":"B1","data":"payload"}`))
	require.NoError(t, err)
	assert.Equal(t, blob{ID: "B1", Data: "payload"}, env.Data)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	_, err := decodeEnvelope[[]domain.Ticket]([]byte(`{"data":`))
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad title", errorMessage([]byte(`{"message":"bad title"}`)))
	assert.Equal(t, "nope", errorMessage([]byte(`{"error":"nope"}`)))
	assert.Equal(t, "nested", errorMessage([]byte(`{"error":{"message":"nested"}}`)))
	assert.Empty(t, errorMessage([]byte(`<html>`)))
}
