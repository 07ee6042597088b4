package generator

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff0000", color.RGBA{255, 0, 0, 255}},
		{"00ff00", color.RGBA{0, 255, 0, 255}},
		{"#abc", color.RGBA{0xaa, 0xbb, 0xcc, 255}},
		{"#11223380", color.RGBA{0x11, 0x22, 0x33, 0x80}},
		{" #FFFFFF ", color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"#12", "#12345", "#gggggg", "red"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) succeeded, want error", bad)
		}
	}
}

func TestParseColor_Random(t *testing.T) {
	for _, in := range []string{"", "random", "RANDOM"} {
		c, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if c.A != 255 {
			t.Errorf("random colour %v is not opaque", c)
		}
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex(color.RGBA{0x12, 0xab, 0x00, 0xff}); got != "#12ab00" {
		t.Errorf("FormatHex = %q", got)
	}
	if got := FormatHex(color.RGBA{1, 2, 3, 4}); got != "#01020304" {
		t.Errorf("FormatHex = %q", got)
	}
}

func TestGenerate_PNG(t *testing.T) {
	src := solid(40, 30, color.RGBA{10, 20, 30, 255})
	out := filepath.Join(t.TempDir(), "out.png")
	if err := Generate(out, Config{Image: src}); err != nil {
		t.Fatal(err)
	}
	img, err := LoadImage(out)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestGenerate_NoImage(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateToWriter(&buf, ".png", Config{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
	empty := image.NewRGBA(image.Rectangle{})
	if err := GenerateToWriter(&buf, ".png", Config{Image: empty}); !errors.Is(err, ErrNoImage) {
		t.Errorf("empty image: err = %v, want ErrNoImage", err)
	}
}

func TestGenerate_BMPRoundTrip(t *testing.T) {
	src := solid(7, 5, color.RGBA{200, 100, 50, 255})
	var buf bytes.Buffer
	if err := GenerateToWriter(&buf, ".BMP", Config{Image: src}); err != nil {
		t.Fatal(err)
	}
	img, format, err := DecodeImage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if format != "bmp" {
		t.Errorf("format = %q", format)
	}
	if got := color.RGBAModel.Convert(img.At(6, 4)).(color.RGBA); got != (color.RGBA{200, 100, 50, 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestGenerate_JPEG(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Image: solid(16, 16, color.RGBA{128, 128, 128, 255}), Quality: 80}
	if err := GenerateToWriter(&buf, ".jpg", cfg); err != nil {
		t.Fatal(err)
	}
	_, format, err := DecodeImage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q", format)
	}
}

func TestGenerate_AVI(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Image: solid(33, 17, color.RGBA{1, 2, 3, 255}), Duration: 2}
	if err := GenerateToWriter(&buf, ".avi", cfg); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Fatalf("bad RIFF header %q", data[:12])
	}
	if size := binary.LittleEndian.Uint32(data[4:8]); int(size) != len(data)-8 {
		t.Errorf("RIFF size = %d, file has %d bytes after header", size, len(data)-8)
	}
	if w := binary.LittleEndian.Uint32(data[64:68]); w != 33 {
		t.Errorf("avih width = %d, want 33", w)
	}
	// Each frame appears once in movi and once in idx1.
	if n := bytes.Count(data, []byte("00dc")); n != 2*2*aviFPS {
		t.Errorf("found %d frame tags, want %d", n, 2*2*aviFPS)
	}
	if !bytes.Contains(data, []byte("idx1")) {
		t.Error("missing idx1 index")
	}
}

func TestGenerate_Unsupported(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.gif")
	err := Generate(out, Config{Image: solid(2, 2, color.RGBA{A: 255})})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("err = %v, want unsupported format", err)
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Error("unsupported format still created a file")
	}
}

func TestFormats(t *testing.T) {
	got := strings.Join(Formats(), " ")
	if got != ".avi .bmp .jpeg .jpg .png" {
		t.Errorf("Formats = %q", got)
	}
	if ContentType(".png") != "image/png" || ContentType(".gif") != "" {
		t.Error("unexpected content types")
	}
}

func TestDecodeImage_Garbage(t *testing.T) {
	if _, _, err := DecodeImage(strings.NewReader("not an image")); err == nil {
		t.Error("expected decode error")
	}
}
