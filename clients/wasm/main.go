//go:build js && wasm

// ShotBeautifier WASM: client-side compositor.
// Compiled with: GOOS=js GOARCH=wasm go build -o shotbeautifier.wasm ./clients/wasm/
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/preset"
)

var sess = newSession()

func main() {
	composite.SetLogger(slog.Default())
	fmt.Println("ShotBeautifier WASM loaded")

	// Register JS-callable functions.
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goRenderPreview", js.FuncOf(renderPreview))
	js.Global().Set("goRemoveTarget", js.FuncOf(removeTarget))
	js.Global().Set("goExport", js.FuncOf(exportImage))
	js.Global().Set("goSuggest", js.FuncOf(suggest))
	js.Global().Set("goCatalog", js.FuncOf(catalog))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// promise runs work off the JS event loop and settles a Promise with its
// base64 or JSON string result. Stale previews reject with "stale" so pages
// can ignore them.
func promise(work func() (string, error)) js.Value {
	executor := js.FuncOf(func(this js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			out, err := work()
			switch {
			case errors.Is(err, composite.ErrStale):
				reject.Invoke("stale")
			case err != nil:
				reject.Invoke("error: " + err.Error())
			default:
				resolve.Invoke(out)
			}
		}()
		return nil
	})
	defer executor.Release()
	return js.Global().Get("Promise").New(executor)
}

func parseRequest(v js.Value) (request, error) {
	var req request
	if err := json.Unmarshal([]byte(v.String()), &req); err != nil {
		return req, fmt.Errorf("parse request: %w", err)
	}
	return req, nil
}

// goRegisterAsset(id, base64Data): decode an image into Go memory.
// Returns "WxH" or an error string.
func registerAsset(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need id, base64Data")
	}
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}
	b, err := sess.registerAsset(args[0].String(), data)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
}

// goRemoveAsset(id): remove an asset from Go memory.
func removeAsset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	if !sess.removeAsset(args[0].String()) {
		return js.ValueOf("error: unknown asset")
	}
	return js.ValueOf("ok")
}

// goRenderPreview(targetId, requestJSON): Promise of a base64 PNG. Each
// canvas passes its own targetId; a newer call for the same target rejects
// older ones with "stale".
func renderPreview(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need targetId, requestJSON")
	}
	targetID := args[0].String()
	req, err := parseRequest(args[1])
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return promise(func() (string, error) {
		png, err := sess.preview(context.Background(), targetID, req)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(png), nil
	})
}

// goRemoveTarget(targetId): drop a canvas and invalidate its renders.
func removeTarget(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need targetId")
	}
	sess.removeTarget(args[0].String())
	return js.ValueOf("ok")
}

// goExport(requestJSON): Promise of the base64 encoded file in
// request.format (png, jpg, bmp or avi) at the preset's canvas size.
func exportImage(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need requestJSON")
	}
	req, err := parseRequest(args[0])
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return promise(func() (string, error) {
		data, err := sess.export(context.Background(), req)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	})
}

// goSuggest(assetId, seed[, paletteJSON]): Promise of {palette, suggestions}
// JSON. A palette from an earlier result makes the call reproducible.
func suggest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need assetId, seed")
	}
	id, seed := args[0].String(), uint64(args[1].Float())
	var hexes []string
	if len(args) > 2 && args[2].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[2].String()), &hexes); err != nil {
			return js.ValueOf("error: palette: " + err.Error())
		}
	}
	return promise(func() (string, error) {
		out, err := sess.suggest(id, 0, seed, hexes)
		return string(out), err
	})
}

// goCatalog(): the stock gradients as JSON.
func catalog(this js.Value, args []js.Value) any {
	data, err := json.Marshal(preset.Catalog())
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(string(data))
}
