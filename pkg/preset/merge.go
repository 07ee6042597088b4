// merge.go: Merge overrides onto a preset.
package preset

// Merge returns a copy of p with the overrides applied. Present fields win;
// absent fields keep the preset's values. Choosing a different fill type
// drops the preset's fill parameters so they cannot leak into the new fill.
func Merge(p *Preset, o *Overrides) *Preset {
	out := *p
	out.Background.Points = append([]PointSpec(nil), p.Background.Points...)
	if o == nil {
		return &out
	}

	if o.Canvas != nil {
		mergeCanvas(&out.Canvas, *o.Canvas)
	}
	if o.Background != nil {
		mergeBackground(&out.Background, *o.Background)
	}
	if o.Shadow != nil {
		mergeShadow(&out.Shadow, *o.Shadow)
	}
	if o.Image != nil {
		mergeImage(&out.Image, *o.Image)
	}
	return &out
}

func mergeCanvas(base *Canvas, over Canvas) {
	if over.Size != "" {
		*base = Canvas{Size: over.Size}
		return
	}
	if over.Width > 0 && over.Height > 0 {
		*base = Canvas{Width: over.Width, Height: over.Height}
	}
}

func mergeBackground(base *BackgroundSpec, over BackgroundSpec) {
	kind := over.Type
	if kind == "" {
		kind = inferType(over, base.Type)
	}
	if kind != base.Type {
		*base = BackgroundSpec{
			Type:         kind,
			Opacity:      base.Opacity,
			CornerRadius: base.CornerRadius,
		}
	}

	if over.Color != "" {
		base.Color = over.Color
	}
	if over.Gradient != "" {
		base.Gradient = over.Gradient
	}
	if over.Points != nil {
		base.Points = over.Points // replace, not append
	}
	if over.Source != "" {
		base.Source = over.Source
	}
	mergeFloat(&base.Opacity, over.Opacity)
	mergeFloat(&base.CornerRadius, over.CornerRadius)
}

// inferType guesses the fill kind an untyped override means.
func inferType(over BackgroundSpec, current string) string {
	switch {
	case len(over.Points) > 0:
		return FillFreeform
	case over.Gradient != "":
		return FillGradient
	case over.Source != "":
		return FillImage
	case over.Color != "" && current != FillSolid:
		return FillSolid
	default:
		return current
	}
}

func mergeShadow(base *ShadowSpec, over ShadowSpec) {
	if over.Color != "" {
		base.Color = over.Color
	}
	mergeFloat(&base.Opacity, over.Opacity)
	mergeFloat(&base.Blur, over.Blur)
	mergeFloat(&base.Distance, over.Distance)
}

func mergeImage(base *ImageSpec, over ImageSpec) {
	mergeFloat(&base.CornerRadius, over.CornerRadius)
	mergeFloat(&base.Padding, over.Padding)
	mergeFloat(&base.OffsetX, over.OffsetX)
	mergeFloat(&base.OffsetY, over.OffsetY)
}

func mergeFloat(base **float64, over *float64) {
	if over != nil {
		v := *over
		*base = &v
	}
}
