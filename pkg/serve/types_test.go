package serve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_CheckUnmarshal(t *testing.T) {
	input := `{"type":"check","payload":{"reports":[{"hash":"0123456789ABCDEF","text":"{\n}","origins":["a.log"]}]}}`

	var req Request
	err := json.Unmarshal([]byte(input), &req)
	require.NoError(t, err)

	assert.Equal(t, "check", req.Type)

	var payload CheckPayload
	err = json.Unmarshal(req.Payload, &payload)
	require.NoError(t, err)

	require.Len(t, payload.Reports, 1)
	assert.Equal(t, "0123456789ABCDEF", payload.Reports[0].Hash)
	assert.Equal(t, "{\n}", payload.Reports[0].Text)
	assert.Equal(t, []string{"a.log"}, payload.Reports[0].Origins)
}

func TestResponse_Marshal(t *testing.T) {
	resp := Response{
		Success: true,
		Type:    "ready",
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"success":true`)
	assert.Contains(t, string(data), `"type":"ready"`)
	assert.NotContains(t, string(data), `"error"`)
	assert.NotContains(t, string(data), `"data"`)
}

func TestVerdictData_OmitsEmptySuppression(t *testing.T) {
	data, err := json.Marshal(VerdictData{Hash: "h", Suppressed: false})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"suppressed":false`)
	assert.NotContains(t, string(data), "suppression_id")
}
