package agents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/zork-agents/internal/models"
)

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                         `{"a":1}`,
		"```json\n{\"a\":1}\n```":           `{"a":1}`,
		"```\n{\"a\":1}\n```":               `{"a":1}`,
		"  \n{\"a\":1}\n  ":                 `{"a":1}`,
		"```json\n{\"a\":1}  \n```":          `{"a":1}`,
	}
	for input, want := range cases {
		assert.Equal(t, want, cleanJSON(input))
	}
}

func TestResolutionDecodeOptionalFieldsAbsent(t *testing.T) {
	// Absence of optional fields is not an error; they decode to nil/zero.
	var resolution models.Resolution
	err := json.Unmarshal([]byte(`{"narrative":"You see a mailbox."}`), &resolution)
	require.NoError(t, err)

	assert.Equal(t, "You see a mailbox.", resolution.Narrative)
	assert.Nil(t, resolution.NewRoom)
	assert.Empty(t, resolution.MovedToRoomID)
	assert.Nil(t, resolution.PlayerUpdate)
}

func TestResolutionDecodeFull(t *testing.T) {
	raw := `{
		"narrative": "You push north into the trees.",
		"newRoom": {"id": "forest_path", "name": "Forest Path", "exits": ["south"], "items": []},
		"movedToRoomId": "forest_path",
		"playerUpdate": {"health": 90, "inventoryToAdd": ["twig"]}
	}`
	var resolution models.Resolution
	require.NoError(t, json.Unmarshal([]byte(raw), &resolution))

	require.NotNil(t, resolution.NewRoom)
	assert.Equal(t, "forest_path", resolution.NewRoom.ID)
	assert.Nil(t, resolution.NewRoom.Coordinates, "coordinates stay optional")
	require.NotNil(t, resolution.PlayerUpdate)
	require.NotNil(t, resolution.PlayerUpdate.Health)
	assert.Equal(t, 90, *resolution.PlayerUpdate.Health)
	assert.Nil(t, resolution.PlayerUpdate.InventoryToRemove)
}

func TestFallbackStartRoomContract(t *testing.T) {
	room := FallbackStartRoom()
	assert.Equal(t, "start", room.ID)
	assert.Equal(t, models.Coordinates{X: 0, Y: 0}, room.Coordinates)
	assert.True(t, room.Visited)
	assert.NotEmpty(t, room.Description)
	assert.NotEmpty(t, room.Exits)
}
