package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyhallhq/studyhall/internal/services"
	"github.com/studyhallhq/studyhall/pkg/theme"
)

const (
	paletteKeyPrefix = "palette:"
	paletteSeededKey = "palette:builtin:seeded"

	activeLightKey = "palette:active:light"
	activeDarkKey  = "palette:active:dark"

	builtinLightID = "builtin-light"
	builtinDarkID  = "builtin-dark"
)

// PaletteDefinition is a stored color palette with metadata.
// @Description A named color palette for one base mode, with one color per role.
type PaletteDefinition struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	BaseMode  string            `json:"base_mode"`
	Version   int               `json:"version"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
	BuiltIn   bool              `json:"built_in"`
	Colors    map[string]string `json:"colors"`
}

// Palette converts the stored colors into the theme core's representation.
func (d *PaletteDefinition) Palette() theme.Palette {
	p := make(theme.Palette, len(d.Colors))
	for role, value := range d.Colors {
		p[theme.Role(role)] = value
	}
	return p
}

// PaletteStore persists palettes in the settings repository and tracks which
// palette is active for each base mode.
type PaletteStore struct {
	repo services.SettingsRepository
}

// NewPaletteStore creates a PaletteStore and seeds the built-in palettes.
func NewPaletteStore(ctx context.Context, repo services.SettingsRepository) (*PaletteStore, error) {
	s := &PaletteStore{repo: repo}
	if err := s.ensureBuiltIns(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a palette by ID, or services.ErrNotFound.
func (s *PaletteStore) Get(ctx context.Context, id string) (*PaletteDefinition, error) {
	setting, err := s.repo.Get(ctx, paletteKeyPrefix+id)
	if err != nil {
		return nil, err
	}
	var d PaletteDefinition
	if err := json.Unmarshal([]byte(setting.Value), &d); err != nil {
		return nil, fmt.Errorf("parse palette %s: %w", id, err)
	}
	return &d, nil
}

// List returns every stored palette.
func (s *PaletteStore) List(ctx context.Context) ([]PaletteDefinition, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	palettes := make([]PaletteDefinition, 0)
	for i := range all {
		key := all[i].Key
		if !strings.HasPrefix(key, paletteKeyPrefix) {
			continue
		}
		if key == paletteSeededKey || key == activeLightKey || key == activeDarkKey {
			continue
		}
		var d PaletteDefinition
		if err := json.Unmarshal([]byte(all[i].Value), &d); err != nil {
			continue
		}
		palettes = append(palettes, d)
	}
	return palettes, nil
}

// Create validates and stores a new custom palette.
func (s *PaletteStore) Create(ctx context.Context, name, baseMode string, colors map[string]string) (*PaletteDefinition, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	d := &PaletteDefinition{
		ID:        uuid.NewString(),
		Name:      name,
		BaseMode:  baseMode,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		BuiltIn:   false,
		Colors:    colors,
	}
	if err := d.Palette().Validate(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update replaces the name and colors of a custom palette.
func (s *PaletteStore) Update(ctx context.Context, id, name string, colors map[string]string) (*PaletteDefinition, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.BuiltIn {
		return nil, ErrBuiltIn
	}
	if name != "" {
		d.Name = name
	}
	if colors != nil {
		d.Colors = colors
	}
	if err := d.Palette().Validate(); err != nil {
		return nil, err
	}
	d.Version++
	d.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a custom palette. If it was active for its base mode, the
// built-in palette for that mode becomes active again.
func (s *PaletteStore) Delete(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.BuiltIn {
		return ErrBuiltIn
	}
	if err := s.repo.Delete(ctx, paletteKeyPrefix+id); err != nil {
		return err
	}

	key, fallback := activeLightKey, builtinLightID
	if d.BaseMode == "dark" {
		key, fallback = activeDarkKey, builtinDarkID
	}
	active, err := s.repo.Get(ctx, key)
	if err == nil && active.Value == id {
		return s.repo.Set(ctx, key, fallback)
	}
	return nil
}

// Active returns the IDs of the active palettes per base mode.
func (s *PaletteStore) Active(ctx context.Context) (light, dark string) {
	light, dark = builtinLightID, builtinDarkID
	if setting, err := s.repo.Get(ctx, activeLightKey); err == nil {
		light = setting.Value
	}
	if setting, err := s.repo.Get(ctx, activeDarkKey); err == nil {
		dark = setting.Value
	}
	return light, dark
}

// SetActive activates a palette for its base mode. The palette must exist and
// pass validation.
func (s *PaletteStore) SetActive(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := d.Palette().Validate(); err != nil {
		return err
	}
	key := activeLightKey
	if d.BaseMode == "dark" {
		key = activeDarkKey
	}
	return s.repo.Set(ctx, key, id)
}

// ActivePalette returns the colors to render for a resolved theme. Any
// lookup failure falls back to the built-in palette for that theme.
func (s *PaletteStore) ActivePalette(ctx context.Context, t theme.Theme) theme.Palette {
	key := activeLightKey
	if t == theme.Dark {
		key = activeDarkKey
	}
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return theme.PaletteFor(t)
	}
	d, err := s.Get(ctx, setting.Value)
	if err != nil {
		return theme.PaletteFor(t)
	}
	return d.Palette()
}

func (s *PaletteStore) save(ctx context.Context, d *PaletteDefinition) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal palette %s: %w", d.ID, err)
	}
	return s.repo.Set(ctx, paletteKeyPrefix+d.ID, string(data))
}

func (s *PaletteStore) ensureBuiltIns(ctx context.Context) error {
	if _, err := s.repo.Get(ctx, paletteSeededKey); err == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	builtins := []PaletteDefinition{
		{
			ID: builtinLightID, Name: "StudyHall Light", BaseMode: "light",
			Version: 1, CreatedAt: now, UpdatedAt: now, BuiltIn: true,
			Colors: paletteColors(theme.LightPalette),
		},
		{
			ID: builtinDarkID, Name: "StudyHall Dark", BaseMode: "dark",
			Version: 1, CreatedAt: now, UpdatedAt: now, BuiltIn: true,
			Colors: paletteColors(theme.DarkPalette),
		},
	}
	for i := range builtins {
		if err := s.save(ctx, &builtins[i]); err != nil {
			return err
		}
	}
	return s.repo.Set(ctx, paletteSeededKey, "true")
}

func paletteColors(p theme.Palette) map[string]string {
	colors := make(map[string]string, len(p))
	for role, value := range p {
		colors[string(role)] = value
	}
	return colors
}
