package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forge/pkg/cache"
	"github.com/matzehuels/forge/pkg/diagram"
	"github.com/matzehuels/forge/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so caching behaves the same everywhere.
//
// The Runner holds no per-document state. Multiple goroutines can safely
// use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Parser *diagram.Parser
	Logger *log.Logger

	// TTL overrides the default expiry of cached entries when positive.
	TTL time.Duration
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
// If parser is nil, a parser for the default language is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, parser *diagram.Parser, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	if parser == nil {
		parser = diagram.NewParser("", logger)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Parser: parser,
		Logger: logger,
	}
}

// Execute parses content and renders the requested formats.
func (r *Runner) Execute(ctx context.Context, content string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{ContentHash: cache.Hash([]byte(content))}

	parseStart := time.Now()
	parsed, parseHit, err := r.ParseWithCacheInfo(ctx, content, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Parsed = parsed
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = parsed.Data.NodeCount()
	result.Stats.EdgeCount = parsed.Data.EdgeCount()
	result.CacheInfo.ParseHit = parseHit

	r.Logger.Debug("parsed diagram",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"diagnostics", len(parsed.Diagnostics),
		"cached", parseHit,
		"duration", result.Stats.ParseTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, parsed.Data, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Debug("rendered diagram",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo parses content, consulting the cache first, and reports
// whether the result came from the cache. Diagnostics are returned, not
// logged.
//
// Content that is not valid UTF-8 is never cached: JSON would replace the
// invalid bytes and a cache hit would no longer match a fresh parse.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, content string, refresh bool) (Parsed, bool, error) {
	key := r.Keyer.ParseKey(r.Parser.Language, cache.Hash([]byte(content)))
	hooks := observability.Pipeline()
	cacheable := utf8.ValidString(content)

	if !refresh && cacheable {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var p Parsed
			if err := json.Unmarshal(data, &p); err == nil {
				normalize(&p.Data)
				observability.Cache().OnCacheHit(ctx, "parse")
				return p, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "parse")
	}

	if err := ctx.Err(); err != nil {
		return Parsed{}, false, err
	}
	start := time.Now()
	hooks.OnParseStart(ctx, r.Parser.Language)
	d, diags := r.Parser.ParseReport(content)
	p := Parsed{Data: d, Diagnostics: diags}
	hooks.OnParseComplete(ctx, r.Parser.Language, d.NodeCount(), len(diags), time.Since(start), nil)

	if !cacheable {
		return p, false, nil
	}
	if data, err := json.Marshal(p); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLParse)); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "parse", len(data))
		}
	}
	return p, false, nil
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, content string) (Parsed, error) {
	p, _, err := r.ParseWithCacheInfo(ctx, content, false)
	return p, err
}

// RenderWithCacheInfo renders d in every requested format and reports whether
// all artifacts came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d diagram.Data, opts Options) (map[string][]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return nil, false, fmt.Errorf("serialize diagram for cache key: %w", err)
	}
	dataHash := cache.Hash(raw)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(dataHash, opts.variant(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	rendered, err := RenderArtifacts(ctx, d, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(dataHash, opts.variant(format)), data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, d diagram.Data, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// normalize restores the non-nil empty slices a fresh parse returns, which
// JSON decoding of an empty array does not guarantee.
func normalize(d *diagram.Data) {
	if d.Nodes == nil {
		d.Nodes = []diagram.Node{}
	}
	if d.Edges == nil {
		d.Edges = []diagram.Edge{}
	}
}
