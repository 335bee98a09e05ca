package pipeline

import (
	"cmp"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/portlayout/pkg/cache"
	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/graph"
	"github.com/matzehuels/portlayout/pkg/layered"
	"github.com/matzehuels/portlayout/pkg/observability"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// Runner executes layouts and renders with caching. It holds no per-run
// state, so one Runner serves concurrent callers.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger, TTL: DefaultTTL}
}

// Layout lays out g. On success the shapes and paths of g are set and the
// drawing is returned. Runs with SkipRestore bypass the cache because they
// replace the structure of g.
func (r *Runner) Layout(ctx context.Context, g *portgraph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID: uuid.NewString(),
		Graph: g,
		Stats: Stats{Vertices: g.VertexCount(), Edges: g.EdgeCount(), Ports: g.PortCount()},
	}
	logger := opts.Logger.With("run", res.RunID)

	key, err := r.layoutKey(g, &opts)
	if err != nil {
		return nil, err
	}
	if !opts.Refresh && !opts.SkipRestore {
		if d, ok := r.cachedDrawing(ctx, key, logger); ok {
			graph.ApplyDrawing(g, d)
			res.Layout = d
			res.CacheHit = true
			res.Stats.Ranks = len(d.Ranks)
			res.Stats.Crossings = d.Crossings
			logger.Debug("layout cache hit", "computed_by", d.RunID)
			return res, nil
		}
	}

	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, res.RunID, res.Stats.Vertices, res.Stats.Edges)
	start := time.Now()
	lr, err := r.run(ctx, g, opts, res, logger)
	res.Stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, res.RunID, res.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}

	d := graph.NewDrawing(g)
	d.RunID = res.RunID
	d.Crossings = lr.Crossings
	d.Ranks = rankNames(g, lr)
	d.Diagnostics = lr.Diagnostics
	res.Layout = d
	res.Stats.Ranks = lr.Ranks
	res.Stats.Crossings = lr.Crossings
	res.Stats.Dummies = lr.Dummies

	logger.Info("computed layout",
		"vertices", res.Stats.Vertices,
		"ranks", lr.Ranks,
		"crossings", lr.Crossings,
		"duration", res.Stats.LayoutTime)

	if !opts.SkipRestore {
		r.store(ctx, key, d, logger)
	}
	return res, nil
}

// run advances the layouter stage by stage so hooks see every stage.
func (r *Runner) run(ctx context.Context, g *portgraph.Graph, opts Options, res *Result, logger *log.Logger) (layered.Result, error) {
	cfg := opts.Config()
	cfg.Logger = logger
	l := layered.New(g, cfg)
	hooks := observability.Layout()

	for l.Stage() < layered.StageRouted {
		if err := ctx.Err(); err != nil {
			return layered.Result{}, err
		}
		next := l.Stage() + 1
		hooks.OnStageStart(ctx, res.RunID, next.String())
		t := time.Now()
		s, err := l.Advance()
		d := time.Since(t)
		hooks.OnStageComplete(ctx, res.RunID, s.String(), d, err)
		if err != nil {
			return layered.Result{}, errors.Wrap(cmp.Or(errors.GetCode(err), errors.ErrCodeInternal), err, "stage %s", s)
		}
		res.Stats.Stages = append(res.Stats.Stages, StageTime{Stage: s.String(), Duration: d})
		logger.Debug("stage complete", "stage", s, "duration", d)
	}
	return l.Result(), nil
}

func (r *Runner) layoutKey(g *portgraph.Graph, opts *Options) (string, error) {
	data, err := graph.Marshal(g, graph.FormatJSON)
	if err != nil {
		return "", err
	}
	optsHash, err := opts.Hash()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash options")
	}
	return r.Keyer.LayoutKey(cache.Hash(data), optsHash), nil
}

func (r *Runner) cachedDrawing(ctx context.Context, key string, logger *log.Logger) (graph.Drawing, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("layout cache unavailable", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Drawing{}, false
	}
	d, err := graph.UnmarshalDrawing(data, graph.FormatJSON)
	if err != nil {
		logger.Warn("discarding corrupt cache entry", "key", key, "err", err)
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Drawing{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return d, true
}

func (r *Runner) store(ctx context.Context, key string, d graph.Drawing, logger *log.Logger) {
	data, err := graph.MarshalDrawing(d, graph.FormatJSON)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		logger.Warn("layout not cached", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "layout", len(data))
}

// rankNames lists the document IDs of every rank. Vertex group
// representatives expand to their member vertices; dummies and other
// synthetic vertices are left out.
func rankNames(g *portgraph.Graph, lr layered.Result) [][]string {
	if lr.Order == nil {
		return nil
	}
	ranks := make([][]string, len(lr.Order.Layers))
	for i, layer := range lr.Order.Layers {
		names := []string{}
		for _, v := range layer {
			grp, ok := lr.VertexGroups[v]
			if !ok {
				grp, ok = lr.Plugs[v]
			}
			if ok && g.VertexGroup(grp) != nil {
				for _, m := range g.GroupVertices(grp) {
					names = append(names, graph.VertexName(g, m))
				}
				continue
			}
			if g.Vertex(v) != nil {
				names = append(names, graph.VertexName(g, v))
			}
		}
		ranks[i] = names
	}
	return ranks
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
