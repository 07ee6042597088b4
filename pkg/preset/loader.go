// loader.go: Load .shotpreset (ZIP) bundles and override files.
package preset

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BundleExt is the file extension of preset bundles.
const BundleExt = ".shotpreset"

// LoadPreset opens a .shotpreset ZIP, extracts it to a temp directory,
// parses preset.json, resolves asset paths, and returns the preset.
// The returned cleanup function removes the temp directory.
func LoadPreset(path string) (*Preset, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "shotpreset-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(r, tmpDir); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	p, err := readPreset(filepath.Join(tmpDir, "preset.json"))
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	resolveAssetPaths(p, tmpDir)

	return p, cleanup, nil
}

// Load opens either a bundle or a standalone preset JSON, chosen by
// extension. Cleanup is a no-op for JSON files.
func Load(path string) (*Preset, func(), error) {
	if strings.EqualFold(filepath.Ext(path), BundleExt) {
		return LoadPreset(path)
	}
	p, err := ParsePresetFile(path)
	return p, func() {}, err
}

// LoadOverrides reads and parses an overrides file. A malformed file is not
// fatal: it yields a warning and empty overrides.
func LoadOverrides(path string) (*Overrides, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides is LoadOverrides for in-memory JSON.
func ParseOverrides(data []byte) (*Overrides, []string, error) {
	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return &Overrides{}, []string{fmt.Sprintf("malformed overrides: %v; using the preset unchanged", err)}, nil
	}
	return &o, nil, nil
}

// resolveAssetPaths makes relative asset paths absolute using baseDir.
func resolveAssetPaths(p *Preset, baseDir string) {
	src := p.Background.Source
	if src == "" || filepath.IsAbs(src) || strings.Contains(src, ":") {
		return
	}
	p.Background.Source = filepath.Join(baseDir, src)
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.ReadCloser, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
