package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"excel2web/internal"
	"excel2web/internal/catalog"
)

// Remote is the price lookup used when the local index has no entry.
type Remote interface {
	SearchPrice(ctx context.Context, drugName string) (internal.PriceResult, error)
}

type ResolverOptions struct {
	// CodeHeaderLabel and PriceHeaderLabel handle a header row repeated
	// inside the data in code mode: a value equal to CodeHeaderLabel
	// resolves to PriceHeaderLabel.
	CodeHeaderLabel  string
	PriceHeaderLabel string
	Logger           *slog.Logger
}

type strategy interface {
	resolve(ctx context.Context, value string) internal.PriceResult
}

// Resolver answers one query per input value. The strategy is chosen once
// at construction; the index is only read.
type Resolver struct {
	mode     internal.QueryMode
	strategy strategy
	log      *slog.Logger
}

func NewResolver(mode internal.QueryMode, index *catalog.Index, remote Remote, opts ResolverOptions) (*Resolver, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if index == nil {
		index = catalog.NewIndex(nil)
	}

	switch mode {
	case internal.ModeName:
		if remote == nil {
			return nil, errors.New("name mode requires a remote price client")
		}
		return &Resolver{mode: mode, strategy: &nameStrategy{index: index, remote: remote, log: log}, log: log}, nil
	case internal.ModeCode:
		return &Resolver{mode: mode, strategy: &codeStrategy{
			index:      index,
			codeLabel:  strings.TrimSpace(opts.CodeHeaderLabel),
			priceLabel: opts.PriceHeaderLabel,
		}, log: log}, nil
	default:
		return nil, fmt.Errorf("unsupported query mode: %q", mode)
	}
}

func (r *Resolver) Mode() internal.QueryMode { return r.mode }

// Resolve returns exactly one result per value, in input order. Failures are
// row-scoped and never stop the batch.
func (r *Resolver) Resolve(ctx context.Context, values []string) []internal.PriceResult {
	out := make([]internal.PriceResult, 0, len(values))
	for _, v := range values {
		out = append(out, r.ResolveOne(ctx, v))
	}
	return out
}

func (r *Resolver) ResolveOne(ctx context.Context, value string) internal.PriceResult {
	return r.ResolveQuery(ctx, internal.PriceQuery{Value: value, Mode: r.mode})
}

// ResolveQuery answers q with the resolver's strategy. A query carrying a
// different mode is answered with the error sentinel.
func (r *Resolver) ResolveQuery(ctx context.Context, q internal.PriceQuery) internal.PriceResult {
	if q.Mode != "" && q.Mode != r.mode {
		r.log.Warn("query mode mismatch", "query", q.Value, "mode", q.Mode, "resolver_mode", r.mode)
		return internal.PriceResult{Query: q.Value, PriceText: internal.PriceError, Source: internal.SourceError}
	}
	trimmed := strings.TrimSpace(q.Value)
	if trimmed == "" {
		return internal.PriceResult{Query: q.Value, Source: internal.SourceNotFound}
	}
	return r.strategy.resolve(ctx, trimmed)
}

type nameStrategy struct {
	index  *catalog.Index
	remote Remote
	log    *slog.Logger
}

func (s *nameStrategy) resolve(ctx context.Context, name string) internal.PriceResult {
	if price, ok := s.index.LookupName(name); ok {
		return internal.PriceResult{Query: name, PriceText: price, Source: internal.SourceLocal}
	}

	res, err := s.remote.SearchPrice(ctx, name)
	if err != nil {
		s.log.Warn("price lookup failed", "query", name, "error", err)
		return internal.PriceResult{Query: name, PriceText: internal.PriceError, Source: internal.SourceError}
	}
	res.Query = name
	if res.Source == "" {
		res.Source = internal.SourceRemote
	}
	return res
}

type codeStrategy struct {
	index      *catalog.Index
	codeLabel  string
	priceLabel string
}

func (s *codeStrategy) resolve(_ context.Context, code string) internal.PriceResult {
	if price, ok := s.index.LookupCode(code); ok {
		return internal.PriceResult{Query: code, PriceText: price, Source: internal.SourceLocal}
	}
	if s.codeLabel != "" && strings.EqualFold(code, s.codeLabel) {
		return internal.PriceResult{Query: code, PriceText: s.priceLabel, Source: internal.SourceLocal}
	}
	return internal.PriceResult{Query: code, Source: internal.SourceNotFound}
}
