// bundle.go: Build and read .shotpreset archives in memory.
package preset

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
)

// maxBundleEntry caps the size of one decompressed bundle entry.
const maxBundleEntry = 64 << 20

// WriteBundle writes p as preset.json plus the given assets (archive path →
// content) to w as a ZIP archive.
func WriteBundle(w io.Writer, p *Preset, assets map[string][]byte) error {
	zw := zip.NewWriter(w)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	pw, err := zw.Create("preset.json")
	if err != nil {
		return err
	}
	if _, err := pw.Write(data); err != nil {
		return err
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if !localName(name) {
			return fmt.Errorf("illegal asset path %q", name)
		}
		aw, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := aw.Write(assets[name]); err != nil {
			return err
		}
	}
	return zw.Close()
}

// ReadBundle parses a bundle held in memory. It returns the preset with asset
// paths as written and every other file keyed by its archive path.
func ReadBundle(data []byte) (*Preset, map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("open bundle: %w", err)
	}

	var p *Preset
	assets := make(map[string][]byte)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !localName(f.Name) {
			return nil, nil, fmt.Errorf("illegal path in zip: %s", f.Name)
		}
		content, err := readEntry(f)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if f.Name == "preset.json" {
			if p, err = ParsePreset(content); err != nil {
				return nil, nil, err
			}
			continue
		}
		assets[path.Clean(f.Name)] = content
	}
	if p == nil {
		return nil, nil, fmt.Errorf("bundle has no preset.json")
	}
	return p, assets, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBundleEntry+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBundleEntry {
		return nil, fmt.Errorf("entry larger than %d bytes", maxBundleEntry)
	}
	return data, nil
}

// localName reports whether an archive path stays inside the archive root.
func localName(name string) bool {
	clean := path.Clean(name)
	return name != "" && !path.IsAbs(clean) && clean != ".." && !strings.HasPrefix(clean, "../")
}
