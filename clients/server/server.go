// Package server provides the ShotBeautifier web UI and HTTP API.
package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	mrand "math/rand/v2"
	"net/http"
	"os"
	"os/exec"
	"path"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/freeform"
	"github.com/xob0t/ShotBeautifier/pkg/generator"
	"github.com/xob0t/ShotBeautifier/pkg/palette"
	"github.com/xob0t/ShotBeautifier/pkg/preset"
)

//go:embed web/*
var webContent embed.FS

const (
	maxUploadBytes = 32 << 20
	maxBodyBytes   = 4 << 20

	// previewSide bounds the longer side of a preview when the request does
	// not give an explicit size.
	previewSide = 1024

	assetPrefix = "asset:"
)

var errUnknownAsset = errors.New("unknown asset")

// ── Asset Manager ──

// asset is an uploaded image, kept both encoded (for download and bundles)
// and decoded (for compositing).
type asset struct {
	Name   string
	Data   []byte
	Mime   string
	Format string
	Image  image.Image
}

type assetManager struct {
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager() *assetManager {
	return &assetManager{assets: make(map[string]*asset)}
}

// add decodes data and stores it under a fresh id.
func (am *assetManager) add(name string, data []byte) (string, *asset, error) {
	img, format, err := generator.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}
	a := &asset{
		Name:   name,
		Data:   data,
		Mime:   "image/" + format,
		Format: format,
		Image:  img,
	}
	id := randomID()
	am.mu.Lock()
	am.assets[id] = a
	am.mu.Unlock()
	return id, a, nil
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

// lookup accepts a bare id or an "asset:<id>" reference.
func (am *assetManager) lookup(ref string) (*asset, error) {
	id := strings.TrimPrefix(ref, assetPrefix)
	a, ok := am.get(id)
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownAsset, id)
	}
	return a, nil
}

type assetInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mime   string `json:"mime"`
	Size   int    `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

func (a *asset) info(id string) assetInfo {
	b := a.Image.Bounds()
	return assetInfo{
		ID:     id,
		Name:   a.Name,
		Mime:   a.Mime,
		Size:   len(a.Data),
		Width:  b.Dx(),
		Height: b.Dy(),
		URL:    "/api/assets/" + id,
	}
}

func (am *assetManager) listAll() []assetInfo {
	am.mu.RLock()
	defer am.mu.RUnlock()
	result := make([]assetInfo, 0, len(am.assets))
	for id, a := range am.assets {
		result = append(result, a.info(id))
	}
	slices.SortFunc(result, func(x, y assetInfo) int { return strings.Compare(x.Name, y.Name) })
	return result
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	delete(am.assets, id)
	return true
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// ── Server ──

type srv struct {
	assets     *assetManager
	compositor *composite.Compositor
	log        *slog.Logger
}

func newServer(log *slog.Logger) *srv {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &srv{
		assets:     newAssetManager(),
		compositor: composite.New(),
		log:        log,
	}
}

// handler returns the API and static UI routes.
func (s *srv) handler() (http.Handler, error) {
	webFS, err := fs.Sub(webContent, "web")
	if err != nil {
		return nil, fmt.Errorf("embed web: %w", err)
	}

	mux := http.NewServeMux()

	// API routes.
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("POST /api/export/{format}", s.handleExport)
	mux.HandleFunc("POST /api/suggest", s.handleSuggest)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/example", s.handleExample)
	mux.HandleFunc("POST /api/upload/image", s.handleUploadImage)
	mux.HandleFunc("POST /api/bundle/export", s.handleExportBundle)
	mux.HandleFunc("POST /api/bundle/import", s.handleImportBundle)
	mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)

	// Static files.
	mux.Handle("/", http.FileServer(http.FS(webFS)))

	return s.logRequests(mux), nil
}

// RunServe starts the web UI server.
func RunServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fset.String("port", "8080", "port to listen on")
	fset.StringVar(port, "p", "8080", "shorthand for --port")
	noBrowser := fset.Bool("no-browser", false, "do not open a browser window")
	verbose := fset.Bool("v", false, "log compositor details")
	if err := fset.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	composite.SetLogger(log)

	s := newServer(log)
	h, err := s.handler()
	if err != nil {
		return err
	}

	addr := ":" + *port
	log.Info("ShotBeautifier UI", "url", "http://localhost"+addr)

	if !*noBrowser {
		go openBrowser("http://localhost" + addr)
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpSrv.ListenAndServe()
}

// ── Middleware ──

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *srv) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// ── Render (core) ──

type renderRequest struct {
	Source    string          `json:"source"`    // asset id of the screenshot
	Preset    json.RawMessage `json:"preset"`    // preset JSON; empty means defaults
	Overrides json.RawMessage `json:"overrides"` // optional overrides JSON
	Width     int             `json:"width"`     // preview size; 0 picks one
	Height    int             `json:"height"`
	Duration  int             `json:"duration"` // AVI export only
	Quality   int             `json:"quality"`  // JPEG and AVI export
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// resolveImage serves background images from uploaded assets. The server
// never reads image paths from its own filesystem.
func (s *srv) resolveImage(source string) *composite.ImageFuture {
	a, err := s.assets.lookup(source)
	if err != nil {
		return composite.Load(func() (image.Image, error) { return nil, err })
	}
	return composite.Resolved(a.Image)
}

// parsePreset merges the request's preset and overrides.
func (s *srv) parsePreset(req *renderRequest) (*preset.Preset, error) {
	raw := req.Preset
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	p, err := preset.ParsePreset(raw)
	if err != nil {
		return nil, err
	}
	if len(req.Overrides) > 0 && string(req.Overrides) != "null" {
		o, warnings, err := preset.ParseOverrides(req.Overrides)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			s.log.Warn(w)
		}
		p = preset.Merge(p, o)
	}
	return p, nil
}

// compose renders the request. Exports use the preset's canvas (by default
// the screenshot's native size); previews use the requested size or the
// canvas scaled down to previewSide.
func (s *srv) compose(ctx context.Context, req *renderRequest, export bool) (*image.RGBA, error) {
	src, err := s.assets.lookup(req.Source)
	if err != nil {
		return nil, err
	}
	p, err := s.parsePreset(req)
	if err != nil {
		return nil, err
	}
	style, err := preset.Build(p, s.resolveImage)
	if err != nil {
		return nil, err
	}

	b := src.Image.Bounds()
	w, h := p.Canvas.Resolve(b.Dx(), b.Dy())
	if !export {
		w, h = previewSize(w, h, req.Width, req.Height)
	}
	if err := preset.CheckSize(w, h); err != nil {
		return nil, err
	}
	return s.compositor.Compose(ctx, style.Request(src.Image, w, h))
}

func previewSize(w, h, reqW, reqH int) (int, int) {
	if reqW > 0 && reqH > 0 {
		return reqW, reqH
	}
	longest := max(w, h)
	if longest <= previewSide {
		return w, h
	}
	scale := float64(previewSide) / float64(longest)
	return max(1, int(float64(w)*scale+0.5)), max(1, int(float64(h)*scale+0.5))
}

// renderStatus maps a compose error to an HTTP status.
func renderStatus(err error) int {
	switch {
	case errors.Is(err, errUnknownAsset):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func (s *srv) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	img, err := s.compose(r.Context(), &req, false)
	if err != nil {
		jsonError(w, err.Error(), renderStatus(err))
		return
	}
	s.writeImage(w, ".png", generator.Config{Image: img}, "")
}

// ── Export ──

func (s *srv) handleExport(w http.ResponseWriter, r *http.Request) {
	ext := "." + strings.ToLower(r.PathValue("format"))
	if generator.ContentType(ext) == "" {
		jsonError(w, fmt.Sprintf("unsupported format %q: use one of %s", ext, strings.Join(generator.Formats(), ", ")), http.StatusNotFound)
		return
	}

	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	img, err := s.compose(r.Context(), &req, true)
	if err != nil {
		jsonError(w, err.Error(), renderStatus(err))
		return
	}

	cfg := generator.Config{Image: img, Duration: max(req.Duration, 1), Quality: req.Quality}
	s.writeImage(w, ext, cfg, "processed_image"+ext)
}

// writeImage encodes into memory first so encoder failures still produce a
// JSON error.
func (s *srv) writeImage(w http.ResponseWriter, ext string, cfg generator.Config, filename string) {
	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, ext, cfg); err != nil {
		s.log.Error("encode", "format", ext, "err", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", generator.ContentType(ext))
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	}
	w.Write(buf.Bytes())
}

// ── Suggestions ──

// suggestRequest takes colours from Source unless Palette is given. Passing
// back a response's palette and seed reproduces its suggestions.
type suggestRequest struct {
	Source  string   `json:"source"`
	Palette []string `json:"palette"`
	Colors  int      `json:"colors"` // palette size, default palette.DefaultCount
	Seed    *uint64  `json:"seed"`   // omitted means random
}

type suggestResponse struct {
	Seed        uint64                  `json:"seed"`
	Palette     []string                `json:"palette"`
	Suggestions []preset.BackgroundSpec `json:"suggestions"`
}

func (s *srv) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	colors, status, err := s.suggestPalette(&req)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	seed := mrand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	resp := suggestResponse{
		Seed:        seed,
		Palette:     make([]string, len(colors)),
		Suggestions: []preset.BackgroundSpec{},
	}
	for i, c := range colors {
		resp.Palette[i] = generator.FormatHex(c)
	}
	for _, fill := range palette.Suggest(freeform.NewRand(seed), colors) {
		resp.Suggestions = append(resp.Suggestions, preset.SpecFor(fill))
	}
	writeJSON(w, resp)
}

func (s *srv) suggestPalette(req *suggestRequest) ([]color.RGBA, int, error) {
	if len(req.Palette) > 0 {
		colors, err := palette.ParseHex(req.Palette)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return colors, 0, nil
	}
	a, err := s.assets.lookup(req.Source)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	colors, err := palette.Extract(a.Image, req.Colors)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	return colors, 0, nil
}

// ── Presets ──

func (s *srv) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.parsePreset(&req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	warnings := preset.Validate(p)
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, map[string]any{
		"warnings":    warnings,
		"description": preset.Describe(p),
	})
}

func (s *srv) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, preset.Catalog())
}

func (s *srv) handleExample(w http.ResponseWriter, r *http.Request) {
	presetJSON, overridesJSON := preset.GetExampleJSON()
	writeJSON(w, map[string]json.RawMessage{
		"preset":    json.RawMessage(presetJSON),
		"overrides": json.RawMessage(overridesJSON),
	})
}

// ── Bundles ──

// handleExportBundle packs the preset and, when the background refers to an
// uploaded asset, that image into a .shotpreset archive.
func (s *srv) handleExportBundle(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.parsePreset(&req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := map[string][]byte{}
	if src := p.Background.Source; strings.HasPrefix(src, assetPrefix) {
		a, err := s.assets.lookup(src)
		if err != nil {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		name := "assets/" + strings.TrimPrefix(src, assetPrefix) + extensionForFormat(a.Format)
		files[name] = a.Data
		p.Background.Source = name
	}

	var buf bytes.Buffer
	if err := preset.WriteBundle(&buf, p, files); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="preset`+preset.BundleExt+`"`)
	w.Write(buf.Bytes())
}

// handleImportBundle registers a bundle's images as assets and points the
// preset's background at them.
func (s *srv) handleImportBundle(w http.ResponseWriter, r *http.Request) {
	data, _, err := readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, files, err := preset.ReadBundle(data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	imported := make([]assetInfo, 0, len(files))
	for name, content := range files {
		id, a, err := s.assets.add(path.Base(name), content)
		if err != nil {
			s.log.Warn("skipping bundle file", "name", name, "err", err)
			continue
		}
		imported = append(imported, a.info(id))
		if p.Background.Source == name {
			p.Background.Source = assetPrefix + id
		}
	}

	writeJSON(w, map[string]any{
		"preset": p,
		"assets": imported,
	})
}

// ── Upload ──

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errors.New("no file uploaded")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

func (s *srv) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	data, name, err := readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, a, err := s.assets.add(name, data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	s.log.Debug("asset added", "id", id, "name", name, "format", a.Format)
	writeJSON(w, a.info(id))
}

// ── Asset serving ──

func (s *srv) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(r.PathValue("id"))
	if !ok {
		jsonError(w, "asset not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	w.Write(a.Data)
}

func (s *srv) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.assets.listAll())
}

func (s *srv) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		jsonError(w, "asset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func extensionForFormat(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "tiff":
		return ".tif"
	case "":
		return ""
	default:
		return "." + format
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
