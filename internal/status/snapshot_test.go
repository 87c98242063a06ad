package status

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSnapshotJSON(t *testing.T) {
	raw, err := json.Marshal(ErrorSnapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Error", decoded["totalBlocks"])
	assert.Equal(t, "Error", decoded["totalCredentials"])
	assert.Equal(t, false, decoded["ipfsConnected"])
	assert.NotContains(t, decoded, "lastBlockHash")
}

func TestCountJSON(t *testing.T) {
	raw, err := json.Marshal(Number(42))
	require.NoError(t, err)
	assert.Equal(t, "42", string(raw))

	var c Count
	require.NoError(t, json.Unmarshal([]byte(`"Error"`), &c))
	assert.True(t, c.IsError())

	require.NoError(t, json.Unmarshal([]byte(`17`), &c))
	n, ok := c.Int64()
	assert.True(t, ok)
	assert.EqualValues(t, 17, n)

	assert.Error(t, json.Unmarshal([]byte(`"seventeen"`), &c))
}

func TestCountString(t *testing.T) {
	assert.Equal(t, "Error", ErrorCount.String())
	assert.Equal(t, "0", Number(0).String())
	assert.False(t, Number(0).IsError())
}
