package preset

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/freeform"
)

func TestExampleJSON(t *testing.T) {
	presetJSON, overridesJSON := GetExampleJSON()

	p, err := ParsePreset([]byte(presetJSON))
	if err != nil {
		t.Fatal(err)
	}
	if w := Validate(p); len(w) != 0 {
		t.Errorf("example preset has warnings: %v", w)
	}
	st, err := Build(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := st.Background.Fill.(composite.LinearGradient)
	if !ok {
		t.Fatalf("fill = %T, want LinearGradient", st.Background.Fill)
	}
	if g.AngleDegrees != 135 || len(g.Stops) != 2 {
		t.Errorf("gradient = %+v", g)
	}
	if st.Image.PaddingPercent != 35 || st.Shadow.BlurPercent != 12 {
		t.Errorf("style = %+v", st)
	}

	o, warnings, err := ParseOverrides([]byte(overridesJSON))
	if err != nil || len(warnings) != 0 {
		t.Fatalf("overrides: %v %v", warnings, err)
	}
	merged := Merge(p, o)
	st, err = Build(merged, nil)
	if err != nil {
		t.Fatal(err)
	}
	ff, ok := st.Background.Fill.(composite.Freeform)
	if !ok || len(ff.Points) != 3 {
		t.Fatalf("merged fill = %#v", st.Background.Fill)
	}
	if st.Image.PaddingPercent != 20 || st.Image.CornerRadiusPercent != 3 {
		t.Errorf("merged image style = %+v", st.Image)
	}
}

func TestBuild_Defaults(t *testing.T) {
	st, err := Build(&Preset{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := composite.DefaultStyle()
	if st.Background.Fill != want.Background.Fill || st.Image != want.Image || st.Shadow != want.Shadow {
		t.Errorf("empty preset = %+v, want defaults %+v", st, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	cases := map[string]BackgroundSpec{
		"bad colour":      {Type: FillSolid, Color: "#zzzzzz"},
		"no gradient":     {Type: FillGradient},
		"no points":       {Type: FillFreeform},
		"no source":       {Type: FillImage},
		"unknown type":    {Type: "plaid"},
		"bad point color": {Type: FillFreeform, Points: []PointSpec{{Color: "nope"}}},
	}
	for name, bg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Build(&Preset{Background: bg}, nil); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := Build(&Preset{Background: BackgroundSpec{Type: FillFreeform}}, nil)
	if !errors.Is(err, freeform.ErrNoPoints) {
		t.Errorf("err = %v, want ErrNoPoints", err)
	}
}

func TestBuild_NoneAndImage(t *testing.T) {
	st, err := Build(&Preset{Background: BackgroundSpec{Type: FillNone}}, nil)
	if err != nil || st.Background.Fill != nil {
		t.Errorf("none: fill = %v, err = %v", st.Background.Fill, err)
	}

	var asked string
	resolver := func(src string) *composite.ImageFuture {
		asked = src
		return composite.Resolved(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	}
	st, err = Build(&Preset{Background: BackgroundSpec{Type: FillImage, Source: "asset:42"}}, resolver)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Background.Fill.(composite.Bitmap); !ok || asked != "asset:42" {
		t.Errorf("fill = %T, resolver saw %q", st.Background.Fill, asked)
	}
}

func TestParseLinearGradient(t *testing.T) {
	g, err := ParseLinearGradient("linear-gradient(45deg, #ff0000, #00ff00 30%, #0000ff)")
	if err != nil {
		t.Fatal(err)
	}
	if g.AngleDegrees != 45 {
		t.Errorf("angle = %v", g.AngleDegrees)
	}
	wantPos := []float64{0, 0.3, 1}
	wantCol := []color.RGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	for i, s := range g.Stops {
		if s.Position != wantPos[i] || s.Color != wantCol[i] {
			t.Errorf("stop %d = %+v", i, s)
		}
	}

	g, err = ParseLinearGradient("linear-gradient(#000, #111, #222, #333)")
	if err != nil {
		t.Fatal(err)
	}
	if g.AngleDegrees != 180 {
		t.Errorf("default angle = %v", g.AngleDegrees)
	}
	for i, want := range []float64{0, 1.0 / 3, 2.0 / 3, 1} {
		if d := g.Stops[i].Position - want; d > 1e-12 || d < -1e-12 {
			t.Errorf("stop %d at %v, want %v", i, g.Stops[i].Position, want)
		}
	}

	g, err = ParseLinearGradient("linear-gradient(to right, #000 60%, #fff 20%)")
	if err != nil {
		t.Fatal(err)
	}
	if g.AngleDegrees != 90 || g.Stops[1].Position != 0.6 {
		t.Errorf("to right / monotonic: %+v", g)
	}

	g, err = ParseLinearGradient("linear-gradient(0.25turn, #000, #fff)")
	if err != nil || g.AngleDegrees != 90 {
		t.Errorf("turn: %+v %v", g, err)
	}

	for _, bad := range []string{
		"radial-gradient(#000, #fff)",
		"linear-gradient(90deg, #000)",
		"linear-gradient(to middle, #000, #fff)",
		"linear-gradient(90deg, #000 half, #fff)",
		"linear-gradient(90deg, random, #fff)",
	} {
		if _, err := ParseLinearGradient(bad); err == nil {
			t.Errorf("ParseLinearGradient(%q) succeeded", bad)
		}
	}
}

func TestCatalog(t *testing.T) {
	entries := Catalog()
	if len(entries) == 0 {
		t.Fatal("empty catalog")
	}
	for _, e := range entries {
		if _, err := LookupGradient(e.Name); err != nil {
			t.Errorf("catalog %q: %v", e.Name, err)
		}
	}
	entries[0].Name = "changed"
	if Catalog()[0].Name == "changed" {
		t.Error("Catalog exposes its backing slice")
	}
}

func TestMerge(t *testing.T) {
	p := &Preset{
		Canvas: Canvas{Size: "1080p"},
		Background: BackgroundSpec{
			Type: FillGradient, Gradient: "sunset", Opacity: Float(80),
		},
		Shadow: ShadowSpec{Color: "#111111", Blur: Float(4)},
	}
	o := &Overrides{
		Canvas:     &Canvas{Width: 800, Height: 600},
		Background: &BackgroundSpec{Color: "#00ff00"},
		Shadow:     &ShadowSpec{Blur: Float(9)},
	}
	m := Merge(p, o)

	if m.Canvas != (Canvas{Width: 800, Height: 600}) {
		t.Errorf("canvas = %+v", m.Canvas)
	}
	if m.Background.Type != FillSolid || m.Background.Gradient != "" || m.Background.Color != "#00ff00" {
		t.Errorf("background = %+v", m.Background)
	}
	if *m.Background.Opacity != 80 {
		t.Errorf("opacity lost: %v", *m.Background.Opacity)
	}
	if m.Shadow.Color != "#111111" || *m.Shadow.Blur != 9 {
		t.Errorf("shadow = %+v", m.Shadow)
	}
	if *p.Shadow.Blur != 4 || p.Background.Type != FillGradient {
		t.Error("Merge modified its input")
	}
	if Merge(p, nil).Background.Gradient != "sunset" {
		t.Error("nil overrides changed the preset")
	}
}

func TestValidate(t *testing.T) {
	p := &Preset{
		Canvas:     Canvas{Size: "8k"},
		Background: BackgroundSpec{Type: FillFreeform, Points: []PointSpec{{Color: "#fff", X: 120, Y: 5}}},
		Shadow:     ShadowSpec{Color: "#12", Blur: Float(35)},
		Image:      ImageSpec{Padding: Float(70)},
	}
	w := strings.Join(Validate(p), "\n")
	for _, want := range []string{"8k", "points[0]", "shadow.color", "shadow.blur", "image.padding"} {
		if !strings.Contains(w, want) {
			t.Errorf("warnings missing %q:\n%s", want, w)
		}
	}
	if Validate(nil) != nil {
		t.Error("nil preset should have no warnings")
	}
}

func TestCanvasResolve(t *testing.T) {
	tests := []struct {
		c    Canvas
		w, h int
	}{
		{Canvas{}, 640, 480},
		{Canvas{Size: "1080p"}, 1920, 1080},
		{Canvas{Width: 300, Height: 200}, 300, 200},
		{Canvas{Width: 300}, 640, 480},
		{Canvas{Size: "bogus", Width: 10, Height: 10}, 10, 10},
	}
	for _, tt := range tests {
		if w, h := tt.c.Resolve(640, 480); w != tt.w || h != tt.h {
			t.Errorf("%+v.Resolve = %dx%d, want %dx%d", tt.c, w, h, tt.w, tt.h)
		}
	}
}

func TestDescribe(t *testing.T) {
	presetJSON, _ := GetExampleJSON()
	p, err := ParsePreset([]byte(presetJSON))
	if err != nil {
		t.Fatal(err)
	}
	d := Describe(p)
	for _, want := range []string{"Sunset Card", "1080p", "gradient", "padding 35%", "blur 12%"} {
		if !strings.Contains(d, want) {
			t.Errorf("description missing %q:\n%s", want, d)
		}
	}
}

func TestLoadOverrides_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	o, warnings, err := LoadOverrides(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || o == nil || o.Background != nil {
		t.Errorf("overrides = %+v, warnings = %v", o, warnings)
	}
}

func writeBundle(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "style"+BundleExt)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPreset_Bundle(t *testing.T) {
	var bg bytes.Buffer
	if err := png.Encode(&bg, image.NewRGBA(image.Rect(0, 0, 6, 4))); err != nil {
		t.Fatal(err)
	}
	path := writeBundle(t, map[string][]byte{
		"preset.json":      []byte(`{"meta":{"name":"bundle"},"background":{"source":"assets/bg.png"}}`),
		"assets/bg.png":    bg.Bytes(),
		"assets/README.md": []byte("ignored"),
	})

	p, cleanup, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	if p.Background.Type != FillImage || !filepath.IsAbs(p.Background.Source) {
		t.Fatalf("background = %+v", p.Background)
	}
	st, err := Build(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	img, err := st.Background.Fill.(composite.Bitmap).Image.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 6 {
		t.Errorf("background width = %d", img.Bounds().Dx())
	}

	cleanup()
	if _, err := os.Stat(p.Background.Source); !os.IsNotExist(err) {
		t.Error("cleanup left the extracted assets behind")
	}
}

func TestLoadPreset_ZipSlip(t *testing.T) {
	path := writeBundle(t, map[string][]byte{
		"preset.json":   []byte(`{}`),
		"../escape.txt": []byte("x"),
	})
	if _, _, err := LoadPreset(path); err == nil {
		t.Error("bundle with an escaping path was accepted")
	}
}

func TestLoadPreset_MissingPresetJSON(t *testing.T) {
	path := writeBundle(t, map[string][]byte{"other.json": []byte(`{}`)})
	if _, _, err := LoadPreset(path); err == nil {
		t.Error("expected error for bundle without preset.json")
	}
}

func TestParsePresetFile_RelativeSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	if err := os.WriteFile(path, []byte(`{"background":{"type":"image","source":"bg.webp"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := ParsePresetFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Background.Source != filepath.Join(dir, "bg.webp") {
		t.Errorf("source = %q", p.Background.Source)
	}
}

func TestSpecFor(t *testing.T) {
	grad := composite.LinearGradient{
		AngleDegrees: 135,
		Stops: []composite.Stop{
			{Color: color.RGBA{0x11, 0x22, 0x33, 0xff}, Position: 0},
			{Color: color.RGBA{0x44, 0x55, 0x66, 0xff}, Position: 0.5},
			{Color: color.RGBA{0x77, 0x88, 0x99, 0xff}, Position: 1},
		},
	}
	fills := []composite.Background{
		composite.Solid{Color: color.RGBA{0x12, 0x34, 0x56, 0xff}},
		grad,
		composite.Freeform{Points: []freeform.ColorPoint{
			{Color: color.RGBA{0xff, 0, 0, 0xff}, X: 12.5, Y: 80},
			{Color: color.RGBA{0, 0, 0xff, 0xff}, X: 90, Y: 3},
		}},
	}
	for _, fill := range fills {
		spec := SpecFor(fill)
		st, err := Build(&Preset{Background: spec}, nil)
		if err != nil {
			t.Fatalf("%T: %v", fill, err)
		}
		got := st.Background.Fill
		switch want := fill.(type) {
		case composite.LinearGradient:
			g := got.(composite.LinearGradient)
			if g.AngleDegrees != want.AngleDegrees || len(g.Stops) != len(want.Stops) {
				t.Fatalf("gradient round trip: %+v", g)
			}
			for i := range g.Stops {
				if g.Stops[i] != want.Stops[i] {
					t.Errorf("stop %d = %+v, want %+v", i, g.Stops[i], want.Stops[i])
				}
			}
		case composite.Freeform:
			f := got.(composite.Freeform)
			for i := range f.Points {
				if f.Points[i] != want.Points[i] {
					t.Errorf("point %d = %+v, want %+v", i, f.Points[i], want.Points[i])
				}
			}
		default:
			if got != fill {
				t.Errorf("round trip = %+v, want %+v", got, fill)
			}
		}
	}

	if got := FormatLinearGradient(grad); got != "linear-gradient(135deg, #112233 0%, #445566 50%, #778899 100%)" {
		t.Errorf("FormatLinearGradient = %q", got)
	}
	if SpecFor(nil).Type != FillNone {
		t.Error("nil fill should describe as none")
	}
}

func TestBundleRoundTrip(t *testing.T) {
	p := &Preset{
		Meta:       Meta{Name: "round trip"},
		Background: BackgroundSpec{Type: FillImage, Source: "assets/bg.png"},
		Image:      ImageSpec{Padding: Float(12)},
	}
	var buf bytes.Buffer
	if err := WriteBundle(&buf, p, map[string][]byte{"assets/bg.png": []byte("png bytes")}); err != nil {
		t.Fatal(err)
	}

	got, assets, err := ReadBundle(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Meta.Name != "round trip" || got.Background.Source != "assets/bg.png" || *got.Image.Padding != 12 {
		t.Errorf("preset = %+v", got)
	}
	if string(assets["assets/bg.png"]) != "png bytes" || len(assets) != 1 {
		t.Errorf("assets = %v", assets)
	}

	if err := WriteBundle(&bytes.Buffer{}, p, map[string][]byte{"../evil": nil}); err == nil {
		t.Error("WriteBundle accepted an escaping asset path")
	}
	if _, _, err := ReadBundle([]byte("not a zip")); err == nil {
		t.Error("ReadBundle accepted garbage")
	}

	var empty bytes.Buffer
	zw := zip.NewWriter(&empty)
	if _, err := zw.Create("assets/only.png"); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	if _, _, err := ReadBundle(empty.Bytes()); err == nil {
		t.Error("ReadBundle accepted a bundle without preset.json")
	}
}

func TestCheckSize(t *testing.T) {
	for _, ok := range [][2]int{{1, 1}, {3840, 2160}, {MaxSide, 100}, {8192, 8192}} {
		if err := CheckSize(ok[0], ok[1]); err != nil {
			t.Errorf("CheckSize(%v) = %v", ok, err)
		}
	}
	for _, big := range [][2]int{{MaxSide + 1, 1}, {1, 200000}, {10000, 10000}} {
		if err := CheckSize(big[0], big[1]); !errors.Is(err, ErrCanvasTooLarge) {
			t.Errorf("CheckSize(%v) = %v, want ErrCanvasTooLarge", big, err)
		}
	}

	warnings := Validate(&Preset{Canvas: Canvas{Width: 40000, Height: 30}})
	if len(warnings) == 0 || !strings.Contains(strings.Join(warnings, "\n"), "too large") {
		t.Errorf("warnings = %v", warnings)
	}
}
