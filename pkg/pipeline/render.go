package pipeline

import (
	"context"

	"github.com/matzehuels/portlayout/pkg/cache"
	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/graph"
	"github.com/matzehuels/portlayout/pkg/observability"
	"github.com/matzehuels/portlayout/pkg/render/dot"
	"github.com/matzehuels/portlayout/pkg/render/svg"
)

// RenderOptions configures how a drawing is turned into an artifact.
type RenderOptions struct {
	Format     string `json:"format,omitempty" toml:"format"`
	Engine     string `json:"engine,omitempty" toml:"engine"` // SVG only
	Labels     bool   `json:"labels,omitempty" toml:"labels"`
	PortLabels bool   `json:"port_labels,omitempty" toml:"port_labels"`
}

// ValidateAndSetDefaults checks the render options and fills in defaults.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Engine == "" {
		o.Engine = EngineNative
	}
	if !ValidFormats[o.Format] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid format: %q (must be one of: svg, dot, json, yaml)", o.Format)
	}
	if !ValidEngines[o.Engine] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid engine: %q (must be one of: native, graphviz)", o.Engine)
	}
	return nil
}

func (o *RenderOptions) keyOpts() cache.RenderKeyOpts {
	engine := o.Engine
	if o.Format != FormatSVG {
		engine = ""
	}
	return cache.RenderKeyOpts{Format: o.Format, Engine: engine, Labels: o.Labels || o.PortLabels}
}

// Render produces one artifact from a drawing without caching.
func Render(ctx context.Context, d graph.Drawing, opts RenderOptions) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	switch opts.Format {
	case FormatJSON:
		return graph.MarshalDrawing(d, graph.FormatJSON)
	case FormatYAML:
		return graph.MarshalDrawing(d, graph.FormatYAML)
	case FormatDOT:
		return []byte(dot.ToDOT(d, dot.Options{Labels: opts.Labels})), nil
	}

	if opts.Engine == EngineGraphviz {
		data, err := dot.RenderSVG(ctx, dot.ToDOT(d, dot.Options{Labels: opts.Labels}))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz")
		}
		return data, nil
	}
	var svgOpts []svg.Option
	if opts.Labels {
		svgOpts = append(svgOpts, svg.WithLabels())
	}
	if opts.PortLabels {
		svgOpts = append(svgOpts, svg.WithPortLabels())
	}
	return svg.Render(d, svgOpts...), nil
}

// Render produces an artifact with caching and reports whether it came
// from the cache.
func (r *Runner) Render(ctx context.Context, d graph.Drawing, opts RenderOptions) ([]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	// The run ID does not change the picture.
	keyed := d
	keyed.RunID = ""
	drawingHash, err := cache.HashJSON(keyed)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash drawing")
	}
	key := r.Keyer.RenderKey(drawingHash, opts.keyOpts())

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	data, err := Render(ctx, d, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}
	return data, false, nil
}
