package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automoto/isoroom/actions"
)

func TestDecodeSnapshotKeepsWireOrder(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{
		"turn": 3,
		"characters": {
			"zed":   {"name": "Zed", "action": {"type": "say", "content": "first"}},
			"alpha": {"name": "Alpha"},
			"mid":   {"name": "Mid", "action": {"type": "speak_to", "target": "zed", "content": "hi"}}
		}
	}`))
	require.NoError(t, err)

	assert.True(t, snap.HasTurn)
	assert.Equal(t, 3, snap.Turn)
	require.Len(t, snap.Characters, 3)
	assert.Equal(t, []string{"zed", "alpha", "mid"},
		[]string{snap.Characters[0].ID, snap.Characters[1].ID, snap.Characters[2].ID})

	assert.Equal(t, &actions.Action{Type: actions.Say, Content: "first"}, snap.Characters[0].Action)
	assert.Nil(t, snap.Characters[1].Action)
	assert.Equal(t, "zed", snap.Characters[2].Action.Target)
	assert.Equal(t, "Mid", snap.Characters[2].Name)
}

func TestDecodePing(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.True(t, snap.IsPing())
	assert.False(t, snap.HasTurn)
	assert.Empty(t, snap.Characters)
}

func TestDecodeVisibility(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"turn":1,"characters":{
		"a":{"name":"A","visible":false},
		"b":{"name":"B","visible":true},
		"c":{"name":"C"}}}`))
	require.NoError(t, err)
	assert.True(t, snap.Characters[0].Hidden())
	assert.False(t, snap.Characters[1].Hidden())
	assert.False(t, snap.Characters[2].Hidden())
}

func TestDecodeEmptyOrNullAction(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"turn":0,"characters":{
		"a":{"name":"A","action":null},
		"b":{"name":"B","action":{"type":""}}}}`))
	require.NoError(t, err)
	assert.True(t, snap.HasTurn)
	assert.Nil(t, snap.Characters[0].Action)
	assert.Nil(t, snap.Characters[1].Action)
}

func TestDecodeErrors(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`[1,2,3]`,
		`{"characters":{"a":{"name":42}}}`,
	} {
		_, err := DecodeSnapshot([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestDecodeWithoutCharacters(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"turn":9}`))
	require.NoError(t, err)
	assert.Equal(t, 9, snap.Turn)
	assert.Empty(t, snap.Characters)
}
