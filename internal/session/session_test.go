package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/zork-agents/internal/engine"
	"github.com/tatianab/zork-agents/internal/models"
	"github.com/tatianab/zork-agents/internal/store"
)

type fakeGenerator struct {
	calls int
	err   error
}

func (f *fakeGenerator) StartRoom(ctx context.Context) (models.Room, error) {
	f.calls++
	if f.err != nil {
		return models.Room{}, f.err
	}
	return models.Room{
		ID:          "start",
		Name:        "West of House",
		Description: "An open field west of a white house.",
		Exits:       []string{"north"},
		Visited:     true,
		Coordinates: models.Coordinates{X: 0, Y: 0},
	}, nil
}

type fixedPlayer struct{ action string }

func (p fixedPlayer) Action(ctx context.Context, room models.Room, transcript []string, inventory []string) (string, error) {
	return p.action, nil
}

type fixedGM struct{ resolution models.Resolution }

func (g fixedGM) Resolve(ctx context.Context, action string, current models.Room, known map[string]models.Room, player models.PlayerState) (models.Resolution, error) {
	return g.resolution, nil
}

func newTestController(s *store.Store, gen RoomGenerator) *Controller {
	eng := engine.New(s, fixedPlayer{action: "wait"}, fixedGM{resolution: models.Resolution{Narrative: "Time passes."}})
	eng.SetPace(0)
	return New(s, eng, gen, 0)
}

func TestBootstrapFreshWorld(t *testing.T) {
	s := store.New(nil)
	gen := &fakeGenerator{}
	c := newTestController(s, gen)

	c.Bootstrap(context.Background())

	assert.Equal(t, 1, gen.calls)
	room, ok := s.Room("start")
	require.True(t, ok)
	assert.Equal(t, models.Coordinates{X: 0, Y: 0}, room.Coordinates)
	assert.Equal(t, "start", s.Player().CurrentRoomID)

	logs := s.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, models.RoleSystem, logs[0].Role)
	assert.Equal(t, models.RoleGM, logs[1].Role)
	assert.Equal(t, room.Description, logs[1].Text)
	assert.True(t, s.Settings().GameActive)
}

func TestBootstrapResumeSkipsGeneration(t *testing.T) {
	s := store.New(nil)
	s.UpsertRoom(models.Room{ID: "start"})
	s.AppendLog(models.RoleGM, "Welcome back.")
	gen := &fakeGenerator{}
	c := newTestController(s, gen)

	c.Bootstrap(context.Background())

	assert.Zero(t, gen.calls, "resume must not regenerate the world")
	assert.Len(t, s.Logs(), 1)
	assert.True(t, s.Settings().GameActive)
}

func TestBootstrapGeneratorError(t *testing.T) {
	s := store.New(nil)
	gen := &fakeGenerator{err: assert.AnError}
	c := newTestController(s, gen)

	c.Bootstrap(context.Background())

	assert.Empty(t, s.Rooms())
	logs := s.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, models.RoleSystem, logs[1].Role)
	assert.Contains(t, logs[1].Text, "Error initializing")
}

func TestStepRunsOneTurn(t *testing.T) {
	s := store.New(nil)
	c := newTestController(s, &fakeGenerator{})
	c.Bootstrap(context.Background())

	before := c.Tick()
	c.Step(context.Background())

	assert.Equal(t, 1, s.Settings().TurnCount)
	assert.Greater(t, c.Tick(), before)
}

func TestToggleAutoPlay(t *testing.T) {
	s := store.New(nil)
	c := newTestController(s, &fakeGenerator{})

	assert.False(t, c.AutoPlay())
	assert.True(t, c.ToggleAutoPlay())
	assert.True(t, s.Settings().AutoPlay)
	assert.False(t, c.ToggleAutoPlay())
	assert.False(t, s.Settings().AutoPlay)
}

func TestAutoPlayResumesFromSettings(t *testing.T) {
	s := store.New(nil)
	auto := true
	s.UpdateSettings(models.SettingsPatch{AutoPlay: &auto})

	c := newTestController(s, &fakeGenerator{})
	assert.True(t, c.AutoPlay())
}

func TestResetReturnsToBootstrap(t *testing.T) {
	s := store.New(nil)
	gen := &fakeGenerator{}
	c := newTestController(s, gen)
	c.Bootstrap(context.Background())
	c.Step(context.Background())
	c.ToggleAutoPlay()

	c.Reset(context.Background())

	assert.False(t, c.AutoPlay())
	assert.Equal(t, 2, gen.calls, "reset forces a fresh bootstrap")
	assert.Len(t, s.Rooms(), 1)
	assert.Zero(t, s.Settings().TurnCount)
	require.Len(t, s.Logs(), 2)
	assert.Equal(t, models.RoleSystem, s.Logs()[0].Role)
}
