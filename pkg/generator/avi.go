// avi.go: Still-image AVI clip using Motion JPEG (MJPEG).
// The same JPEG frame is repeated for the whole duration, which gives a clip
// that plays natively on Windows and in most browsers' download previews.
package generator

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// aviFPS is the frame rate of generated clips.
const aviFPS = 15

// riffWriter writes little-endian RIFF fields and keeps the first error.
type riffWriter struct {
	w   io.Writer
	err error
}

func (r *riffWriter) fourCC(s string) { r.write([]byte(s)) }

func (r *riffWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	r.write(b[:])
}

func (r *riffWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	r.write(b[:])
}

func (r *riffWriter) write(p []byte) {
	if r.err != nil {
		return
	}
	_, r.err = r.w.Write(p)
}

// writeAVI writes img as an MJPEG AVI lasting cfg.Duration seconds.
func writeAVI(w io.Writer, img image.Image, cfg Config) error {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality(cfg)}); err != nil {
		return fmt.Errorf("encode JPEG frame: %w", err)
	}
	jpegData := buf.Bytes()
	jpegSize := uint32(len(jpegData))

	// Chunks are padded to an even size.
	paddedJPEGSize := jpegSize + jpegSize%2

	width := uint32(img.Bounds().Dx())
	height := uint32(img.Bounds().Dy())
	totalFrames := uint32(max(cfg.Duration, 1)) * aviFPS

	frameChunkSize := 8 + paddedJPEGSize // "00dc" + size + data
	moviSize := 4 + totalFrames*frameChunkSize
	idx1Size := 8 + totalFrames*16
	hdrlSize := uint32(4 + 64 + 124) // "hdrl" + avih + strl
	fileSize := 4 + (8 + hdrlSize) + (8 + moviSize) + idx1Size

	rw := &riffWriter{w: w}

	rw.fourCC("RIFF")
	rw.u32(fileSize)
	rw.fourCC("AVI ")

	rw.fourCC("LIST")
	rw.u32(hdrlSize)
	rw.fourCC("hdrl")

	// Main AVI header.
	rw.fourCC("avih")
	rw.u32(56)
	rw.u32(1000000 / aviFPS) // microseconds per frame
	rw.u32(jpegSize * aviFPS)
	rw.u32(0)    // padding granularity
	rw.u32(0x10) // AVIF_HASINDEX
	rw.u32(totalFrames)
	rw.u32(0) // initial frames
	rw.u32(1) // streams
	rw.u32(jpegSize)
	rw.u32(width)
	rw.u32(height)
	for range 4 {
		rw.u32(0) // reserved
	}

	rw.fourCC("LIST")
	rw.u32(116) // "strl" + strh(64) + strf(48)
	rw.fourCC("strl")

	// Stream header.
	rw.fourCC("strh")
	rw.u32(56)
	rw.fourCC("vids")
	rw.fourCC("MJPG")
	rw.u32(0) // flags
	rw.u16(0) // priority
	rw.u16(0) // language
	rw.u32(0) // initial frames
	rw.u32(1) // scale
	rw.u32(aviFPS)
	rw.u32(0) // start
	rw.u32(totalFrames)
	rw.u32(jpegSize)
	rw.u32(0) // quality
	rw.u32(0) // sample size
	rw.u16(0)
	rw.u16(0)
	rw.u16(uint16(width))
	rw.u16(uint16(height))

	// Stream format (BITMAPINFOHEADER).
	rw.fourCC("strf")
	rw.u32(40)
	rw.u32(40)
	rw.u32(width)
	rw.u32(height)
	rw.u16(1)  // planes
	rw.u16(24) // bit count
	rw.fourCC("MJPG")
	rw.u32(width * height * 3)
	for range 4 {
		rw.u32(0)
	}

	rw.fourCC("LIST")
	rw.u32(moviSize)
	rw.fourCC("movi")
	for range totalFrames {
		rw.fourCC("00dc")
		rw.u32(jpegSize)
		rw.write(jpegData)
		if jpegSize%2 != 0 {
			rw.write([]byte{0})
		}
	}

	rw.fourCC("idx1")
	rw.u32(totalFrames * 16)
	offset := uint32(4) // relative to the "movi" tag
	for range totalFrames {
		rw.fourCC("00dc")
		rw.u32(0x10) // AVIIF_KEYFRAME
		rw.u32(offset)
		rw.u32(jpegSize)
		offset += frameChunkSize
	}

	if rw.err != nil {
		return fmt.Errorf("write AVI: %w", rw.err)
	}
	return nil
}
