package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/freeform"
	"github.com/xob0t/ShotBeautifier/pkg/generator"
	"github.com/xob0t/ShotBeautifier/pkg/palette"
	"github.com/xob0t/ShotBeautifier/pkg/preset"
)

var errUnknownAsset = errors.New("unknown asset")

// request is the JSON a page passes for previews and exports.
type request struct {
	Source    string          `json:"source"`
	Preset    json.RawMessage `json:"preset"`
	Overrides json.RawMessage `json:"overrides"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Format    string          `json:"format"` // export only, e.g. "png"
	Duration  int             `json:"duration"`
	Quality   int             `json:"quality"`
}

// session holds decoded images and one preview target per canvas on the
// page. It replaces the server's asset manager.
type session struct {
	compositor *composite.Compositor

	mu      sync.Mutex
	assets  map[string]image.Image
	targets map[string]*previewTarget
}

type previewTarget struct {
	*composite.Target
	w, h int
}

func newSession() *session {
	return &session{
		compositor: composite.New(),
		assets:     make(map[string]image.Image),
		targets:    make(map[string]*previewTarget),
	}
}

// registerAsset decodes data and stores it under id, replacing any image
// already there.
func (s *session) registerAsset(id string, data []byte) (image.Rectangle, error) {
	img, err := generator.DecodeBytes(data)
	if err != nil {
		return image.Rectangle{}, err
	}
	s.mu.Lock()
	s.assets[id] = img
	s.mu.Unlock()
	return img.Bounds(), nil
}

func (s *session) removeAsset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[id]
	delete(s.assets, id)
	return ok
}

func (s *session) asset(ref string) (image.Image, error) {
	id := strings.TrimPrefix(ref, "asset:")
	s.mu.Lock()
	img, ok := s.assets[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownAsset, id)
	}
	return img, nil
}

func (s *session) resolveImage(source string) *composite.ImageFuture {
	img, err := s.asset(source)
	if err != nil {
		return composite.Load(func() (image.Image, error) { return nil, err })
	}
	return composite.Resolved(img)
}

// build turns a page request into a compositor request. Without an explicit
// size the preset's canvas applies.
func (s *session) build(req request) (composite.Request, error) {
	src, err := s.asset(req.Source)
	if err != nil {
		return composite.Request{}, err
	}

	raw := req.Preset
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	p, err := preset.ParsePreset(raw)
	if err != nil {
		return composite.Request{}, err
	}
	if len(req.Overrides) > 0 && string(req.Overrides) != "null" {
		o, _, err := preset.ParseOverrides(req.Overrides)
		if err != nil {
			return composite.Request{}, err
		}
		p = preset.Merge(p, o)
	}

	style, err := preset.Build(p, s.resolveImage)
	if err != nil {
		return composite.Request{}, err
	}
	b := src.Bounds()
	w, h := p.Canvas.Resolve(b.Dx(), b.Dy())
	if req.Width > 0 && req.Height > 0 {
		w, h = req.Width, req.Height
	}
	if err := preset.CheckSize(w, h); err != nil {
		return composite.Request{}, err
	}
	return style.Request(src, w, h), nil
}

// target returns the preview target for a canvas, resizing its surface when
// the requested size changed. A resize invalidates renders in flight.
func (s *session) target(id string, w, h int) *composite.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[id]
	if !ok {
		t = &previewTarget{
			Target: composite.NewTarget(image.NewRGBA(image.Rect(0, 0, w, h)), s.compositor),
			w:      w,
			h:      h,
		}
		s.targets[id] = t
		return t.Target
	}
	if t.w != w || t.h != h {
		t.SetSurface(image.NewRGBA(image.Rect(0, 0, w, h)))
		t.w, t.h = w, h
	}
	return t.Target
}

func (s *session) removeTarget(id string) {
	s.mu.Lock()
	t, ok := s.targets[id]
	delete(s.targets, id)
	s.mu.Unlock()
	if ok {
		t.SetSurface(nil)
	}
}

// preview renders into the named target and returns the frame as PNG. A
// render overtaken by a newer one for the same target fails with
// composite.ErrStale.
func (s *session) preview(ctx context.Context, targetID string, req request) ([]byte, error) {
	creq, err := s.build(req)
	if err != nil {
		return nil, err
	}
	t := s.target(targetID, max(creq.Width, 1), max(creq.Height, 1))
	if err := t.Render(ctx, creq); err != nil {
		return nil, err
	}
	frame := t.Snapshot()
	if frame == nil {
		return nil, composite.ErrSurfaceUnavailable
	}
	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, ".png", generator.Config{Image: frame}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// export renders at the preset's canvas size and encodes in req.Format.
func (s *session) export(ctx context.Context, req request) ([]byte, error) {
	creq, err := s.build(req)
	if err != nil {
		return nil, err
	}
	img, err := s.compositor.Compose(ctx, creq)
	if err != nil {
		return nil, err
	}
	ext := "." + strings.ToLower(strings.TrimPrefix(req.Format, "."))
	if ext == "." {
		ext = ".png"
	}
	var buf bytes.Buffer
	cfg := generator.Config{Image: img, Duration: max(req.Duration, 1), Quality: req.Quality}
	if err := generator.GenerateToWriter(&buf, ext, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type suggestions struct {
	Palette     []string                `json:"palette"`
	Suggestions []preset.BackgroundSpec `json:"suggestions"`
}

// suggest returns background suggestions as preset JSON. Colours come from
// hexes when given, otherwise from the asset.
func (s *session) suggest(assetID string, count int, seed uint64, hexes []string) ([]byte, error) {
	colors, err := s.suggestPalette(assetID, count, hexes)
	if err != nil {
		return nil, err
	}
	out := suggestions{
		Palette:     hexColors(colors),
		Suggestions: []preset.BackgroundSpec{},
	}
	for _, fill := range palette.Suggest(freeform.NewRand(seed), colors) {
		out.Suggestions = append(out.Suggestions, preset.SpecFor(fill))
	}
	return json.Marshal(out)
}

func (s *session) suggestPalette(assetID string, count int, hexes []string) ([]color.RGBA, error) {
	if len(hexes) > 0 {
		return palette.ParseHex(hexes)
	}
	img, err := s.asset(assetID)
	if err != nil {
		return nil, err
	}
	return palette.Extract(img, count)
}

func hexColors(cs []color.RGBA) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = generator.FormatHex(c)
	}
	return out
}
