// ShotBeautifier: screenshot beautifier.
//
// Usage:
//
//	shotbeautifier -i <image> -o <file> [--preset <path>] [--overrides <path>] [style options]
//	shotbeautifier backdrop -o <file> --background <spec> [--size <name> | -w <px> -h <px>]
//	shotbeautifier suggest -i <image> [--seed <n>] [--palette <#hex,...>] [--out-dir <dir>]
//	shotbeautifier describe --preset <path> [--overrides <path>]
//	shotbeautifier serve [--port 8080]
//	shotbeautifier init
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xob0t/ShotBeautifier/clients/server"
	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/freeform"
	"github.com/xob0t/ShotBeautifier/pkg/generator"
	"github.com/xob0t/ShotBeautifier/pkg/palette"
	"github.com/xob0t/ShotBeautifier/pkg/preset"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "describe":
		err = runDescribe(os.Args[2:])
	case "suggest":
		err = runSuggest(os.Args[2:])
	case "backdrop":
		err = runBackdrop(os.Args[2:])
	case "serve":
		err = server.RunServe(os.Args[2:])
	case "help", "-help", "--help":
		printUsage()
	default:
		// Default: beautify mode (all flags on root).
		err = run(os.Args[1:])
	}
	if err != nil {
		fatal(err)
	}
}

// setupLogging routes compositor logs to stderr when verbose is set.
func setupLogging(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	composite.SetLogger(log)
	return log
}

// loadStyle loads the preset (or starts empty), applies the overrides file
// and then the command-line style flags, and reports validation warnings.
func loadStyle(log *slog.Logger, presetPath, overridesPath string, sf *styleFlags, fs *flag.FlagSet) (*preset.Preset, func(), error) {
	p := &preset.Preset{}
	cleanup := func() {}
	if presetPath != "" {
		var err error
		p, cleanup, err = preset.Load(presetPath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("load preset: %w", err)
		}
	}

	if overridesPath != "" {
		o, warnings, err := preset.LoadOverrides(overridesPath)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("load overrides: %w", err)
		}
		for _, w := range warnings {
			log.Warn(w)
		}
		p = preset.Merge(p, o)
	}

	o, err := sf.overrides(fs)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	p = preset.Merge(p, o)

	for _, w := range preset.Validate(p) {
		log.Warn(w)
	}
	return p, cleanup, nil
}

func run(args []string) error {
	fs := flag.NewFlagSet("shotbeautifier", flag.ExitOnError)

	var (
		input         string
		output        string
		presetPath    string
		overridesPath string
		duration      int
		quality       int
		verbose       bool
		sf            styleFlags
	)

	fs.StringVar(&input, "i", "", "Screenshot to beautify")
	fs.StringVar(&input, "input", "", "Screenshot to beautify")
	fs.StringVar(&output, "o", "", "Output file ("+strings.Join(generator.Formats(), ", ")+")")
	fs.StringVar(&output, "output", "", "Output file")
	fs.StringVar(&presetPath, "preset", "", "Path to "+preset.BundleExt+" bundle or preset JSON")
	fs.StringVar(&overridesPath, "overrides", "", "Path to overrides JSON (optional)")
	fs.IntVar(&duration, "duration", 3, "Duration in seconds (AVI only)")
	fs.IntVar(&quality, "quality", generator.DefaultQuality, "JPEG quality (JPEG and AVI)")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	sf.register(fs)

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if input == "" {
		printUsage()
		return fmt.Errorf("input image is required (-i)")
	}
	if output == "" {
		output = defaultOutput(input)
	}

	log := setupLogging(verbose)
	p, cleanup, err := loadStyle(log, presetPath, overridesPath, &sf, fs)
	if err != nil {
		return err
	}
	defer cleanup()

	src, err := generator.LoadImage(input)
	if err != nil {
		return err
	}
	style, err := preset.Build(p, preset.FileImages)
	if err != nil {
		return fmt.Errorf("build style: %w", err)
	}

	b := src.Bounds()
	w, h := p.Canvas.Resolve(b.Dx(), b.Dy())
	if err := preset.CheckSize(w, h); err != nil {
		return err
	}
	if p.Meta.Name != "" {
		fmt.Printf("Applying preset: %s\n", p.Meta.Name)
	}
	img, err := composite.New().Compose(context.Background(), style.Request(src, w, h))
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	cfg := generator.Config{Image: img, Duration: duration, Quality: quality}
	if err := generator.Generate(output, cfg); err != nil {
		return err
	}
	fmt.Printf("Done: %s (%dx%d)\n", output, w, h)
	return nil
}

// defaultOutput is processed_image.png next to the input.
func defaultOutput(input string) string {
	return filepath.Join(filepath.Dir(input), "processed_image.png")
}

func runBackdrop(args []string) error {
	fs := flag.NewFlagSet("backdrop", flag.ExitOnError)
	var (
		output     string
		presetPath string
		duration   int
		verbose    bool
		sf         styleFlags
	)
	fs.StringVar(&output, "o", "", "Output file path")
	fs.StringVar(&output, "output", "", "Output file path")
	fs.StringVar(&presetPath, "preset", "", "Take the background from this preset")
	fs.IntVar(&duration, "duration", 1, "Duration in seconds (AVI only)")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if output == "" {
		return fmt.Errorf("output file is required (-o)")
	}

	log := setupLogging(verbose)
	p, cleanup, err := loadStyle(log, presetPath, "", &sf, fs)
	if err != nil {
		return err
	}
	defer cleanup()

	style, err := preset.Build(p, preset.FileImages)
	if err != nil {
		return fmt.Errorf("build style: %w", err)
	}
	w, h := p.Canvas.Resolve(1280, 720)
	if err := preset.CheckSize(w, h); err != nil {
		return err
	}
	img, err := composite.New().Backdrop(context.Background(), style.Background, w, h)
	if err != nil {
		return fmt.Errorf("backdrop: %w", err)
	}

	fmt.Printf("Generating: %s\n", output)
	if err := generator.Generate(output, generator.Config{Image: img, Duration: duration}); err != nil {
		return err
	}
	fmt.Printf("Done: %s (%dx%d)\n", output, w, h)
	return nil
}

func runSuggest(args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	var (
		input   string
		colors  int
		seed    uint64
		outDir  string
		hexList string
	)
	fs.StringVar(&input, "i", "", "Screenshot to take colours from")
	fs.StringVar(&input, "input", "", "Screenshot to take colours from")
	fs.IntVar(&colors, "colors", palette.DefaultCount, "Palette size")
	fs.Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	fs.StringVar(&outDir, "out-dir", "", "Also render every suggestion under the screenshot into this directory")
	fs.StringVar(&hexList, "palette", "", "Comma-separated colours to use instead of extracting them (reproduces a previous run with --seed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if input == "" && (hexList == "" || outDir != "") {
		return fmt.Errorf("input image is required (-i)")
	}
	if seed == 0 {
		seed = rand.Uint64()
	}

	var (
		src image.Image
		cs  []color.RGBA
		err error
	)
	if input != "" {
		if src, err = generator.LoadImage(input); err != nil {
			return err
		}
	}
	if hexList != "" {
		cs, err = palette.ParseHex(strings.Split(hexList, ","))
	} else {
		cs, err = palette.Extract(src, colors)
	}
	if err != nil {
		return err
	}
	fills := palette.Suggest(freeform.NewRand(seed), cs)
	out, err := suggestionJSON(seed, cs, fills)
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if outDir == "" {
		return nil
	}
	return renderSuggestions(src, fills, outDir)
}

// suggestionJSON is the report printed by the suggest subcommand.
func suggestionJSON(seed uint64, cs []color.RGBA, fills []composite.Background) ([]byte, error) {
	specs := make([]preset.BackgroundSpec, len(fills))
	for i, f := range fills {
		specs[i] = preset.SpecFor(f)
	}
	hexes := make([]string, len(cs))
	for i, c := range cs {
		hexes[i] = generator.FormatHex(c)
	}
	return json.MarshalIndent(map[string]any{
		"seed":        seed,
		"palette":     hexes,
		"suggestions": specs,
	}, "", "  ")
}

// renderSuggestions writes suggestion_NN.png for each fill, using the
// default style otherwise.
func renderSuggestions(src image.Image, fills []composite.Background, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	c := composite.New()
	for i, fill := range fills {
		st := composite.DefaultStyle()
		st.Background.Fill = fill
		img, err := c.Compose(context.Background(), st.ExportRequest(src))
		if err != nil {
			return fmt.Errorf("suggestion %d: %w", i+1, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("suggestion_%02d.png", i+1))
		if err := generator.Generate(path, generator.Config{Image: img}); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "Rendered %d suggestions into %s\n", len(fills), dir)
	return nil
}

func runDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	var presetPath, overridesPath string
	fs.StringVar(&presetPath, "preset", "", "Path to "+preset.BundleExt+" or preset JSON")
	fs.StringVar(&overridesPath, "overrides", "", "Path to overrides JSON (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if presetPath == "" {
		return fmt.Errorf("--preset is required for describe command")
	}

	var sf styleFlags
	p, cleanup, err := loadStyle(slog.New(slog.DiscardHandler), presetPath, overridesPath, &sf, fs)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Print(preset.Describe(p))
	for _, w := range preset.Validate(p) {
		fmt.Printf("Warning: %s\n", w)
	}
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var presetOut, overridesOut string
	fs.StringVar(&presetOut, "preset", "preset.json", "Output path for sample preset")
	fs.StringVar(&overridesOut, "overrides", "overrides.json", "Output path for sample overrides")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, o := preset.GetExampleJSON()

	if err := os.WriteFile(presetOut, []byte(p), 0644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	if err := os.WriteFile(overridesOut, []byte(o), 0644); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}

	fmt.Printf("Created: %s, %s\n", presetOut, overridesOut)
	fmt.Println("Run: shotbeautifier -i screenshot.png -o output.png --preset preset.json --overrides overrides.json")
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func sizeNames() string {
	names := make([]string, 0, len(preset.Sizes))
	for name := range preset.Sizes {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func printUsage() {
	fmt.Printf(`ShotBeautifier: Screenshot Beautifier (Pure Go)

USAGE:
    shotbeautifier -i <image> [-o <file>] [--preset <path>] [--overrides <path>] [options]
    shotbeautifier backdrop -o <file> --background <spec> [--size <name> | -w <px> -h <px>]
    shotbeautifier suggest -i <image> [--seed <n>] [--palette <#hex,...>] [--out-dir <dir>]
    shotbeautifier describe --preset <path> [--overrides <path>]
    shotbeautifier serve [--port 8080]
    shotbeautifier init [options]

BEAUTIFY:
    -i, --input <path>       Screenshot (PNG, JPEG, GIF, BMP, TIFF, WebP)
    -o, --output <path>      Output file: %s (default: processed_image.png)
    --preset <path>          %s bundle or standalone preset JSON
    --overrides <path>       Overrides JSON merged onto the preset
    --duration <sec>         Video duration in seconds (default: 3)

STYLE (override the preset):
    --background <spec>      #hex, random, none, gradient name, linear-gradient(...) or image path
    --opacity <0-100>        Background opacity (default: 100)
    --bg-corner <0-100>      Background corner radius (default: 5)
    --shadow-color <hex>     Shadow colour (default: #000000)
    --shadow-opacity <0-100> Shadow opacity (default: 60)
    --blur <0-20>            Shadow blur (default: 10)
    --distance <0-20>        Shadow distance (default: 5)
    --corner <0-100>         Image corner radius (default: 5)
    --padding <0-50>         Image padding (default: 30)
    --offset-x, --offset-y   Image offset, -50 to 50 (default: 0)
    --size <name>            Output size: %s
    -w, -h <px>              Output size in pixels (default: the screenshot's size)

UI SERVER:
    shotbeautifier serve [--port 8080]   Start the web UI

EXAMPLES:
    shotbeautifier init
    shotbeautifier serve
    shotbeautifier -i shot.png -o card.png --background sunset --padding 40
    shotbeautifier -i shot.png -o card.png --preset theme%s --size twitter_post
    shotbeautifier -i shot.png -o clip.avi --preset preset.json --duration 5
    shotbeautifier suggest -i shot.png --out-dir ideas
    shotbeautifier backdrop -o wallpaper.png --background "linear-gradient(45deg, #ed4264, #ffedbc)" --size 4k
`, strings.Join(generator.Formats(), ", "), preset.BundleExt, sizeNames(), preset.BundleExt)
}
