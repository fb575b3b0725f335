package models

// Coordinates is a room's position on the 2D map grid.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Room is a node in the world graph. A room's ID is stable once created;
// updating a room means re-inserting the full record under the same ID.
type Room struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Exits       []string    `json:"exits"` // directions like "north", "east"
	Items       []string    `json:"items"`
	Visited     bool        `json:"visited"`
	Coordinates Coordinates `json:"coordinates"`
}

// PlayerState is the single player record.
type PlayerState struct {
	CurrentRoomID string   `json:"currentRoomId"`
	Inventory     []string `json:"inventory"`
	Health        int      `json:"health"`
	Status        string   `json:"status"`
}

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleGM     Role = "GM"
	RolePlayer Role = "PLAYER"
	RoleSystem Role = "SYSTEM"
)

// LogEntry is one line of the game transcript. IDs are derived from the
// creation timestamp and increase strictly monotonically.
type LogEntry struct {
	ID        int64  `json:"id"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

// Settings holds auxiliary session counters and flags.
type Settings struct {
	TurnCount  int  `json:"turnCount"`
	GameActive bool `json:"gameActive"`
	AutoPlay   bool `json:"autoPlay"`
}

// GameDatabase aggregates every persisted record family. It is serialized
// whole as the durable snapshot.
type GameDatabase struct {
	Rooms    map[string]Room `json:"rooms"`
	Player   PlayerState     `json:"player"`
	Logs     []LogEntry      `json:"logs"`
	Settings Settings        `json:"settings"`
}

// PlayerPatch is a partial update to the player record. Nil fields are left
// unchanged by the merge.
type PlayerPatch struct {
	CurrentRoomID *string
	Inventory     *[]string
	Health        *int
	Status        *string
}

// SettingsPatch is a partial update to the session settings.
type SettingsPatch struct {
	TurnCount  *int
	GameActive *bool
	AutoPlay   *bool
}

// PlayerUpdate is the optional player-state delta inside a GM resolution.
// Absent health leaves the current value untouched; additions and removals
// are merged add-then-remove against the pre-turn inventory.
type PlayerUpdate struct {
	Health            *int     `json:"health,omitempty"`
	InventoryToAdd    []string `json:"inventoryToAdd,omitempty"`
	InventoryToRemove []string `json:"inventoryToRemove,omitempty"`
}

// NewRoom describes a room the GM created this turn. Coordinates are
// optional: the GM is not required to supply spatially coherent placement,
// and absent coordinates get a fallback position near the player.
type NewRoom struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Exits       []string     `json:"exits"`
	Items       []string     `json:"items"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Resolution is the GM agent's structured outcome for a single turn. Only
// Narrative is mandatory; every other field is independently skippable.
type Resolution struct {
	Narrative     string        `json:"narrative"`
	NewRoom       *NewRoom      `json:"newRoom,omitempty"`
	MovedToRoomID string        `json:"movedToRoomId,omitempty"`
	PlayerUpdate  *PlayerUpdate `json:"playerUpdate,omitempty"`
}
