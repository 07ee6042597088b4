package composite

import (
	"context"
	"image"
)

// ImageFuture is an image that may still be loading, such as a background
// photo being fetched and decoded. It resolves exactly once.
type ImageFuture struct {
	done chan struct{}
	img  image.Image
	err  error
}

// Resolved returns a future that is already complete.
func Resolved(img image.Image) *ImageFuture {
	f := &ImageFuture{done: make(chan struct{}), img: img}
	close(f.done)
	return f
}

// Load runs load in its own goroutine and resolves with its result.
func Load(load func() (image.Image, error)) *ImageFuture {
	f := &ImageFuture{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.img, f.err = load()
	}()
	return f
}

// Done is closed once the image is available or has failed.
func (f *ImageFuture) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the future has resolved.
func (f *ImageFuture) Ready() bool {
	if f == nil {
		return true
	}
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the image resolves or ctx is done.
func (f *ImageFuture) Wait(ctx context.Context) (image.Image, error) {
	if f == nil {
		return nil, ErrNoSource
	}
	select {
	case <-f.done:
		return f.img, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
