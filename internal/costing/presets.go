package costing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

const presetsKey = "costing:presets"

// Preset is a named, saved calculator state.
type Preset struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Notes     string     `json:"notes"`
	Payload   QuoteInput `json:"payload"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PresetInput carries a preset create or update.
type PresetInput struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Notes   string     `json:"notes"`
	Payload QuoteInput `json:"payload"`
}

// PresetStore keeps presets in a Redis hash keyed by preset id.
type PresetStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewPresetStore builds a PresetStore.
func NewPresetStore(client *redis.Client) *PresetStore {
	return &PresetStore{client: client, now: time.Now}
}

// WithClock overrides the store clock. Intended for tests.
func (s *PresetStore) WithClock(now func() time.Time) *PresetStore {
	s.now = now
	return s
}

// Upsert creates or updates a preset, preserving CreatedAt on updates.
func (s *PresetStore) Upsert(ctx context.Context, input PresetInput) (*Preset, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Untitled preset"
	}

	now := s.now()
	preset := Preset{
		ID:        input.ID,
		Name:      name,
		Notes:     input.Notes,
		Payload:   input.Payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if preset.ID == "" {
		preset.ID = uuid.NewString()
	} else {
		existing, err := s.get(ctx, preset.ID)
		if err == nil {
			preset.CreatedAt = existing.CreatedAt
		}
	}

	data, err := json.Marshal(preset)
	if err != nil {
		return nil, fmt.Errorf("costing: marshal preset: %w", err)
	}
	if err := s.client.HSet(ctx, presetsKey, preset.ID, data).Err(); err != nil {
		return nil, fmt.Errorf("costing: save preset: %w", err)
	}
	return &preset, nil
}

// List returns all presets, most recently updated first.
func (s *PresetStore) List(ctx context.Context) ([]Preset, error) {
	raw, err := s.client.HGetAll(ctx, presetsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("costing: list presets: %w", err)
	}
	presets := make([]Preset, 0, len(raw))
	for _, data := range raw {
		var preset Preset
		if err := json.Unmarshal([]byte(data), &preset); err != nil {
			return nil, fmt.Errorf("costing: decode preset: %w", err)
		}
		presets = append(presets, preset)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].UpdatedAt.After(presets[j].UpdatedAt)
	})
	return presets, nil
}

// Delete removes a preset by id.
func (s *PresetStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, presetsKey, id).Result()
	if err != nil {
		return fmt.Errorf("costing: delete preset: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: preset %s", httpx.ErrNotFound, id)
	}
	return nil
}

func (s *PresetStore) get(ctx context.Context, id string) (*Preset, error) {
	data, err := s.client.HGet(ctx, presetsKey, id).Result()
	if err != nil {
		return nil, err
	}
	var preset Preset
	if err := json.Unmarshal([]byte(data), &preset); err != nil {
		return nil, fmt.Errorf("costing: decode preset: %w", err)
	}
	return &preset, nil
}
