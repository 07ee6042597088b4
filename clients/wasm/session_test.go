package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
)

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestSession(t *testing.T) *session {
	t.Helper()
	s := newSession()
	if _, err := s.registerAsset("shot", pngBytes(t, 60, 40, color.RGBA{B: 200, A: 255})); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSession_Assets(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.registerAsset("bad", []byte("nope")); err == nil {
		t.Error("registered undecodable data")
	}
	if _, err := s.asset("asset:shot"); err != nil {
		t.Errorf("asset: prefix not accepted: %v", err)
	}
	if !s.removeAsset("shot") || s.removeAsset("shot") {
		t.Error("removeAsset should succeed once")
	}
	if _, err := s.preview(context.Background(), "main", request{Source: "shot"}); !errors.Is(err, errUnknownAsset) {
		t.Errorf("err = %v, want errUnknownAsset", err)
	}
}

func TestSession_Preview(t *testing.T) {
	s := newTestSession(t)
	req := request{
		Source: "shot",
		Preset: json.RawMessage(`{"background":{"color":"#00ff00","cornerRadius":0},"shadow":{"opacity":0}}`),
		Width:  90,
		Height: 60,
	}
	data, err := s.preview(context.Background(), "main", req)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 90 || b.Dy() != 60 {
		t.Errorf("preview size = %v", b.Size())
	}
	if r, g, _, _ := img.At(0, 0).RGBA(); r != 0 || g>>8 != 0xff {
		t.Errorf("corner = %v, want green background", img.At(0, 0))
	}

	// A new size swaps the target's surface.
	req.Width, req.Height = 30, 20
	data, err = s.preview(context.Background(), "main", req)
	if err != nil {
		t.Fatal(err)
	}
	img, _ = png.Decode(bytes.NewReader(data))
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("resized preview = %v", b.Size())
	}
}

func TestSession_RemoveTargetInvalidates(t *testing.T) {
	s := newTestSession(t)
	tgt := s.target("main", 10, 10)
	gen := tgt.Generation()
	s.removeTarget("main")
	if tgt.Generation() == gen {
		t.Error("removing a target should invalidate its renders")
	}
	if tgt.Snapshot() != nil {
		t.Error("removed target still has a surface")
	}
	if s.target("main", 10, 10) == tgt {
		t.Error("target was not recreated")
	}
}

func TestSession_Export(t *testing.T) {
	s := newTestSession(t)
	req := request{Source: "shot", Preset: json.RawMessage(`{"canvas":{"size":"720p"}}`)}
	data, err := s.export(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1280 || b.Dy() != 720 {
		t.Errorf("export size = %v, want 720p", b.Size())
	}

	req.Format = "avi"
	data, err = s.export(context.Background(), req)
	if err != nil || !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Errorf("avi export: %v", err)
	}

	req.Format = "tga"
	if _, err := s.export(context.Background(), req); err == nil {
		t.Error("unsupported format accepted")
	}
}

func TestSession_BitmapBackground(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.registerAsset("bg", pngBytes(t, 4, 4, color.RGBA{R: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	req := request{
		Source: "shot",
		Preset: json.RawMessage(`{"background":{"type":"image","source":"asset:bg"}}`),
	}
	if _, err := s.export(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	req.Preset = json.RawMessage(`{"background":{"type":"image","source":"asset:missing"}}`)
	if _, err := s.export(context.Background(), req); !errors.Is(err, errUnknownAsset) {
		t.Errorf("err = %v, want errUnknownAsset", err)
	}
}

func TestSession_Overrides(t *testing.T) {
	s := newTestSession(t)
	req := request{
		Source:    "shot",
		Preset:    json.RawMessage(`{"canvas":{"width":100,"height":100}}`),
		Overrides: json.RawMessage(`{"canvas":{"width":50,"height":20}}`),
	}
	creq, err := s.build(req)
	if err != nil {
		t.Fatal(err)
	}
	if creq.Width != 50 || creq.Height != 20 {
		t.Errorf("size = %dx%d, want overrides to win", creq.Width, creq.Height)
	}
	if _, ok := creq.Background.Fill.(composite.Solid); !ok {
		t.Errorf("fill = %T, want default solid", creq.Background.Fill)
	}
}

func TestSession_Suggest(t *testing.T) {
	s := newSession()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	draw.Draw(img, image.Rect(0, 0, 60, 120), image.NewUniform(color.RGBA{R: 220, G: 20, B: 20, A: 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(60, 0, 120, 120), image.NewUniform(color.RGBA{R: 20, G: 20, B: 220, A: 255}), image.Point{}, draw.Src)
	var buf bytes.Buffer
	png.Encode(&buf, img)
	if _, err := s.registerAsset("shot", buf.Bytes()); err != nil {
		t.Fatal(err)
	}

	first, err := s.suggest("shot", 2, 11, nil)
	if err != nil {
		t.Fatal(err)
	}
	var out suggestions
	if err := json.Unmarshal(first, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Palette) == 0 || len(out.Suggestions) == 0 {
		t.Errorf("suggestions = %+v", out)
	}

	// Feeding the palette back with the same seed reproduces the result.
	a, err := s.suggest("", 0, 11, out.Palette)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.suggest("", 0, 11, out.Palette)
	if !bytes.Equal(a, b) {
		t.Error("same palette and seed gave different suggestions")
	}
	if !bytes.Equal(a, first) {
		t.Error("replaying the extracted palette changed the suggestions")
	}
	if _, err := s.suggest("", 0, 11, []string{"#zz0000"}); err == nil {
		t.Error("bad palette colour accepted")
	}
}
