package composite

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

func TestTarget_Render(t *testing.T) {
	surface := image.NewRGBA(image.Rect(0, 0, 64, 48))
	tg := NewTarget(surface, nil)
	req := DefaultStyle().Request(pattern(32, 32), 64, 48)

	if err := tg.Render(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	want, err := New().Compose(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if got := tg.Snapshot(); !bytes.Equal(got.Pix, want.Pix) {
		t.Error("surface differs from a direct composition")
	}
	if g := tg.Generation(); g != 1 {
		t.Errorf("generation = %d, want 1", g)
	}
}

func TestTarget_DropsStaleRender(t *testing.T) {
	surface := image.NewRGBA(image.Rect(0, 0, 40, 40))
	tg := NewTarget(surface, New())

	gate := make(chan struct{})
	slow := flatStyle(Bitmap{Image: Load(func() (image.Image, error) {
		<-gate
		return uniform(4, 4, red), nil
	})}, 50).Request(uniform(20, 20, blue), 40, 40)
	fast := flatStyle(Solid{Color: white}, 50).Request(uniform(20, 20, blue), 40, 40)

	first := tg.Submit(context.Background(), slow)
	if err := <-tg.Submit(context.Background(), fast); err != nil {
		t.Fatalf("newer render: %v", err)
	}
	close(gate)

	select {
	case err := <-first:
		if !errors.Is(err, ErrStale) {
			t.Fatalf("older render: err = %v, want ErrStale", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("older render never finished")
	}

	if c := tg.Snapshot().RGBAAt(1, 20); c != white {
		t.Errorf("padding = %v, want the newer white background", c)
	}
}

func TestTarget_SetSurfaceInvalidates(t *testing.T) {
	tg := NewTarget(image.NewRGBA(image.Rect(0, 0, 8, 8)), nil)
	gate := make(chan struct{})
	req := flatStyle(Bitmap{Image: Load(func() (image.Image, error) {
		<-gate
		return uniform(2, 2, red), nil
	})}, 20).Request(uniform(4, 4, blue), 8, 8)

	pending := tg.Submit(context.Background(), req)
	tg.SetSurface(image.NewRGBA(image.Rect(0, 0, 16, 16)))
	close(gate)
	if err := <-pending; !errors.Is(err, ErrStale) {
		t.Errorf("err = %v, want ErrStale", err)
	}
	if b := tg.Snapshot().Bounds(); b.Dx() != 16 {
		t.Errorf("snapshot width = %d, want 16", b.Dx())
	}
}

func TestTarget_NoSurface(t *testing.T) {
	tg := NewTarget(nil, nil)
	err := tg.Render(context.Background(), DefaultStyle().Request(uniform(4, 4, blue), 4, 4))
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("err = %v, want ErrSurfaceUnavailable", err)
	}
	if tg.Snapshot() != nil {
		t.Error("snapshot of a missing surface should be nil")
	}

	var unset *image.RGBA
	tg.SetSurface(unset)
	err = tg.Render(context.Background(), DefaultStyle().Request(uniform(4, 4, blue), 4, 4))
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("nil *image.RGBA surface: err = %v", err)
	}
	if tg.Snapshot() != nil {
		t.Error("snapshot of a nil *image.RGBA surface should be nil")
	}
}

func TestImageFuture(t *testing.T) {
	var nilFuture *ImageFuture
	if !nilFuture.Ready() {
		t.Error("nil future should report ready")
	}
	if _, err := nilFuture.Wait(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("nil future: err = %v", err)
	}

	img := uniform(1, 1, red)
	f := Resolved(img)
	select {
	case <-f.Done():
	default:
		t.Fatal("resolved future not done")
	}
	got, err := f.Wait(context.Background())
	if err != nil || got != img {
		t.Errorf("Wait = %v, %v", got, err)
	}
}
