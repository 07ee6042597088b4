package composite

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
)

// Target is a drawing surface fed by a stream of requests, such as a live
// preview. Every submission gets a generation number; a render that finishes
// after a newer submission is dropped with ErrStale instead of overwriting
// the newer result.
type Target struct {
	c   *Compositor
	gen atomic.Uint64

	mu  sync.Mutex
	dst draw.Image
}

// NewTarget wraps dst. A nil Compositor selects the default one.
func NewTarget(dst draw.Image, c *Compositor) *Target {
	if c == nil {
		c = defaultCompositor
	}
	return &Target{c: c, dst: dst}
}

// Generation returns the number of the latest submission.
func (t *Target) Generation() uint64 {
	return t.gen.Load()
}

// SetSurface swaps the underlying surface, for example after a resize.
// Renders already in flight are invalidated.
func (t *Target) SetSurface(dst draw.Image) {
	t.mu.Lock()
	t.dst = dst
	t.mu.Unlock()
	t.gen.Add(1)
}

// Submit starts rendering req in the background. The returned channel
// receives exactly one value: nil once the result is on the surface, ErrStale
// if a newer request overtook this one, or the rendering error.
func (t *Target) Submit(ctx context.Context, req Request) <-chan error {
	g := t.gen.Add(1)
	done := make(chan error, 1)
	go func() {
		done <- t.render(ctx, g, req)
	}()
	return done
}

// Render submits req and waits for it.
func (t *Target) Render(ctx context.Context, req Request) error {
	return <-t.Submit(ctx, req)
}

func (t *Target) render(ctx context.Context, g uint64, req Request) error {
	img, err := t.c.Compose(ctx, req)
	if t.gen.Load() != g {
		Logger().Debug("composite: dropping stale render", "generation", g)
		return ErrStale
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen.Load() != g {
		Logger().Debug("composite: dropping stale render", "generation", g)
		return ErrStale
	}
	if noSurface(t.dst) {
		return ErrSurfaceUnavailable
	}
	blit(t.dst, img)
	return nil
}

// Snapshot copies the current surface contents.
func (t *Target) Snapshot() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	if noSurface(t.dst) {
		return nil
	}
	b := t.dst.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), t.dst, b.Min, draw.Src)
	return out
}
