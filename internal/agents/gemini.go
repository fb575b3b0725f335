// Package agents holds the Gemini-backed collaborators: the player agent,
// the game master, and the start-room generator. API-level failures never
// escape this package; each call degrades to its documented fallback so the
// game keeps moving.
package agents

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/zork-agents/internal/models"
)

const (
	gmModelName     = "gemini-2.5-flash"
	playerModelName = "gemini-2.5-flash"
)

//go:embed prompts/start_room.txt
var startRoomPrompt string

//go:embed prompts/player_action.txt
var playerActionPrompt string

//go:embed prompts/resolve_action.txt
var resolveActionPrompt string

var (
	playerActionTmpl  = template.Must(template.New("player_action").Parse(playerActionPrompt))
	resolveActionTmpl = template.Must(template.New("resolve_action").Parse(resolveActionPrompt))
)

var newRoomSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"id":          {Type: genai.TypeString},
		"name":        {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"exits":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"items":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
}

var gmResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"narrative": {
			Type:        genai.TypeString,
			Description: "The description of what happens or the room description.",
		},
		"newRoom": {
			Type:        genai.TypeObject,
			Nullable:    true,
			Description: "Data for a NEW room if the player entered one that didn't exist.",
			Properties:  newRoomSchema.Properties,
		},
		"movedToRoomId": {
			Type:        genai.TypeString,
			Nullable:    true,
			Description: "If the player successfully moved, this is the ID of the room they are now in.",
		},
		"playerUpdate": {
			Type:     genai.TypeObject,
			Nullable: true,
			Properties: map[string]*genai.Schema{
				"health":            {Type: genai.TypeInteger},
				"inventoryToAdd":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"inventoryToRemove": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
		},
	},
	Required: []string{"narrative"},
}

// Gemini implements all three agent collaborators over one genai client.
type Gemini struct {
	client *genai.Client
}

// NewGemini builds the client.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() {
	g.client.Close()
}

// FallbackStartRoom is the hardcoded starting room used when generation
// fails, so bootstrap never fails outright.
func FallbackStartRoom() models.Room {
	return models.Room{
		ID:          "start",
		Name:        "West of House",
		Description: "You are standing in an open field west of a white house, with a boarded front door. There is a small mailbox here.",
		Exits:       []string{"north", "south", "west"},
		Items:       []string{"mailbox"},
		Visited:     true,
		Coordinates: models.Coordinates{X: 0, Y: 0},
	}
}

// StartRoom asks the GM model for an atmospheric starting room. The returned
// room always has id "start" at (0,0) regardless of what the model claims.
func (g *Gemini) StartRoom(ctx context.Context) (models.Room, error) {
	model := g.client.GenerativeModel(gmModelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = newRoomSchema

	text, err := g.generate(ctx, model, startRoomPrompt)
	if err != nil {
		slog.Warn("start room generation failed, using fallback", "error", err)
		return FallbackStartRoom(), nil
	}

	var data struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Exits       []string `json:"exits"`
		Items       []string `json:"items"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &data); err != nil {
		slog.Warn("start room undecodable, using fallback", "error", err)
		return FallbackStartRoom(), nil
	}

	return models.Room{
		ID:          "start",
		Name:        data.Name,
		Description: data.Description,
		Exits:       data.Exits,
		Items:       data.Items,
		Visited:     true,
		Coordinates: models.Coordinates{X: 0, Y: 0},
	}, nil
}

// Action asks the player model for the next command. Failure degrades to
// "wait"; an empty answer degrades to "look around".
func (g *Gemini) Action(ctx context.Context, room models.Room, transcript []string, inventory []string) (string, error) {
	inv := strings.Join(inventory, ", ")
	if inv == "" {
		inv = "Empty"
	}

	var buf bytes.Buffer
	err := playerActionTmpl.Execute(&buf, struct {
		RoomName    string
		Description string
		Exits       string
		Items       string
		Inventory   string
		History     string
	}{
		RoomName:    room.Name,
		Description: room.Description,
		Exits:       strings.Join(room.Exits, ", "),
		Items:       strings.Join(room.Items, ", "),
		Inventory:   inv,
		History:     strings.Join(transcript, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("render player prompt: %w", err)
	}

	text, err := g.generate(ctx, g.client.GenerativeModel(playerModelName), buf.String())
	if err != nil {
		slog.Warn("player agent failed, waiting", "error", err)
		return "wait", nil
	}
	action := strings.TrimSpace(text)
	if action == "" {
		return "look around", nil
	}
	return action, nil
}

// Resolve asks the GM model to adjudicate the action. Failure degrades to a
// bare confusion narrative with no world deltas.
func (g *Gemini) Resolve(ctx context.Context, action string, current models.Room, known map[string]models.Room, player models.PlayerState) (models.Resolution, error) {
	confused := models.Resolution{Narrative: "The game master is confused. Try again."}

	roomJSON, err := json.Marshal(current)
	if err != nil {
		return models.Resolution{}, fmt.Errorf("marshal current room: %w", err)
	}
	invJSON, err := json.Marshal(player.Inventory)
	if err != nil {
		return models.Resolution{}, fmt.Errorf("marshal inventory: %w", err)
	}
	contextRooms := make([]string, 0, len(known))
	for _, r := range known {
		contextRooms = append(contextRooms, fmt.Sprintf("%s (%s)", r.ID, r.Name))
	}

	var buf bytes.Buffer
	err = resolveActionTmpl.Execute(&buf, struct {
		CurrentRoom string
		Inventory   string
		KnownRooms  string
		Action      string
		X, Y        int
	}{
		CurrentRoom: string(roomJSON),
		Inventory:   string(invJSON),
		KnownRooms:  strings.Join(contextRooms, ", "),
		Action:      action,
		X:           current.Coordinates.X,
		Y:           current.Coordinates.Y,
	})
	if err != nil {
		return models.Resolution{}, fmt.Errorf("render resolve prompt: %w", err)
	}

	model := g.client.GenerativeModel(gmModelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = gmResponseSchema

	text, err := g.generate(ctx, model, buf.String())
	if err != nil {
		slog.Warn("resolution failed, GM is confused", "error", err)
		return confused, nil
	}

	var resolution models.Resolution
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resolution); err != nil {
		slog.Warn("resolution undecodable, GM is confused", "error", err)
		return confused, nil
	}
	if resolution.Narrative == "" {
		resolution.Narrative = confused.Narrative
	}
	return resolution, nil
}

func (g *Gemini) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return string(text), nil
}

// cleanJSON strips markdown code fences the model sometimes wraps JSON in,
// even when asked for application/json.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
