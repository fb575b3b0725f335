// Package store holds the game world as a small record store: rooms keyed by
// id, one player record, a bounded transcript, and session settings. Every
// mutation is flushed to the durable snapshot before the call returns.
package store

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tatianab/zork-agents/internal/models"
)

// maxLogEntries bounds the transcript; older entries are evicted first.
const maxLogEntries = 100

// Snapshots persists the whole database as one opaque blob under a fixed key.
// Load returns (nil, nil) when no snapshot exists.
type Snapshots interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

func initialDatabase() models.GameDatabase {
	return models.GameDatabase{
		Rooms: make(map[string]models.Room),
		Player: models.PlayerState{
			CurrentRoomID: "start",
			Inventory:     []string{},
			Health:        100,
			Status:        "Healthy",
		},
		Logs: []models.LogEntry{},
	}
}

// Store is the world store. All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	data      models.GameDatabase
	snaps     Snapshots
	lastLogID int64
}

// New builds a store from the given snapshot backend. A missing or
// unparseable snapshot yields the initial empty world; that is not an error.
// Passing a nil backend gives an ephemeral, in-memory-only store.
func New(snaps Snapshots) *Store {
	s := &Store{data: initialDatabase(), snaps: snaps}
	if snaps == nil {
		return s
	}

	blob, err := snaps.Load()
	if err != nil {
		slog.Debug("snapshot unreadable, starting fresh", "error", err)
		return s
	}
	if blob == nil {
		return s
	}

	var db models.GameDatabase
	if err := json.Unmarshal(blob, &db); err != nil {
		slog.Debug("snapshot corrupt, starting fresh", "error", err)
		return s
	}
	if db.Rooms == nil {
		db.Rooms = make(map[string]models.Room)
	}
	s.data = db
	for _, entry := range db.Logs {
		if entry.ID > s.lastLogID {
			s.lastLogID = entry.ID
		}
	}
	return s
}

// flush writes the full database to the snapshot backend. Flush failures are
// best-effort: logged, never surfaced.
func (s *Store) flush() {
	if s.snaps == nil {
		return
	}
	blob, err := json.Marshal(s.data)
	if err != nil {
		slog.Warn("snapshot marshal failed", "error", err)
		return
	}
	if err := s.snaps.Save(blob); err != nil {
		slog.Warn("snapshot write failed", "error", err)
	}
}

// Room returns the room with the given id, if present.
func (s *Store) Room(id string) (models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.data.Rooms[id]
	return room, ok
}

// Rooms returns all known rooms in unspecified order.
func (s *Store) Rooms() []models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]models.Room, 0, len(s.data.Rooms))
	for _, room := range s.data.Rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// UpsertRoom inserts the room, fully replacing any prior record under the
// same id. There is no field-level merge.
func (s *Store) UpsertRoom(room models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Rooms[room.ID] = room
	s.flush()
}

// Player returns the current player record.
func (s *Store) Player() models.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Player
}

// UpdatePlayer shallow-merges the supplied fields over the player record.
// Nil patch fields are preserved unchanged.
func (s *Store) UpdatePlayer(patch models.PlayerPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if patch.CurrentRoomID != nil {
		s.data.Player.CurrentRoomID = *patch.CurrentRoomID
	}
	if patch.Inventory != nil {
		s.data.Player.Inventory = *patch.Inventory
	}
	if patch.Health != nil {
		s.data.Player.Health = *patch.Health
	}
	if patch.Status != nil {
		s.data.Player.Status = *patch.Status
	}
	s.flush()
}

// AppendLog adds a transcript entry, evicting from the front once the
// transcript exceeds its bound.
func (s *Store) AppendLog(role models.Role, text string) models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	id := now
	if id <= s.lastLogID {
		id = s.lastLogID + 1
	}
	s.lastLogID = id

	entry := models.LogEntry{ID: id, Role: role, Text: text, Timestamp: now}
	s.data.Logs = append(s.data.Logs, entry)
	for len(s.data.Logs) > maxLogEntries {
		s.data.Logs = s.data.Logs[1:]
	}
	s.flush()
	return entry
}

// Logs returns the transcript in insertion order, oldest first.
func (s *Store) Logs() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := make([]models.LogEntry, len(s.data.Logs))
	copy(logs, s.data.Logs)
	return logs
}

// Settings returns the session settings.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Settings
}

// UpdateSettings shallow-merges the supplied fields over the settings record.
func (s *Store) UpdateSettings(patch models.SettingsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if patch.TurnCount != nil {
		s.data.Settings.TurnCount = *patch.TurnCount
	}
	if patch.GameActive != nil {
		s.data.Settings.GameActive = *patch.GameActive
	}
	if patch.AutoPlay != nil {
		s.data.Settings.AutoPlay = *patch.AutoPlay
	}
	s.flush()
}

// Reset atomically replaces the entire store with the initial empty world
// and flushes it.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = initialDatabase()
	s.lastLogID = 0
	s.flush()
}

// ExportSnapshot renders the store as a fake SQL dump for the database pane.
// It is a lossy display projection and is never read back.
func (s *Store) ExportSnapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("-- Database Dump " + time.Now().UTC().Format(time.RFC3339) + "\n\n")

	b.WriteString("CREATE TABLE rooms (id TEXT PRIMARY KEY, name TEXT, description TEXT);\n")
	for _, room := range s.data.Rooms {
		desc := room.Description
		if len(desc) > 30 {
			desc = desc[:30]
		}
		b.WriteString("INSERT INTO rooms VALUES ('" + room.ID + "', '" +
			strings.ReplaceAll(room.Name, "'", "''") + "', '" + desc + "...');\n")
	}

	b.WriteString("\nCREATE TABLE player (id INTEGER PRIMARY KEY, health INTEGER, inventory TEXT);\n")
	inv, err := json.Marshal(s.data.Player.Inventory)
	if err != nil {
		inv = []byte("[]")
	}
	b.WriteString("INSERT INTO player VALUES (1, " +
		strconv.Itoa(s.data.Player.Health) + ", '" + string(inv) + "');\n")

	return b.String()
}
