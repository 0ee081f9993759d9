package strategy

import (
	"context"
	"fmt"

	"github.com/vk/seedvault/internal/ctxlog"
)

// RelatedOptions configure the related strategy.
type RelatedOptions struct {
	// Parent is the entity-type label whose exported rows bound this
	// export.
	Parent string `sv:"parent"`
	// Via is the foreign key column on this type pointing at the parent.
	Via string `sv:"via"`
	// ChunkSize caps records per snapshot file.
	ChunkSize int `sv:"chunk_size"`
}

// Related exports only the rows that reference an already-exported parent
// row, so a trimmed parent set propagates down its dependents. Importing is
// identical to the query strategy; the filtering already happened at export
// time.
type Related struct {
	query *Query
	opts  RelatedOptions
	deps  []string
}

// NewRelated creates a related strategy. The parent label is an implicit
// extra dependency: its export must finish before ours starts.
func NewRelated(name string, opts RelatedOptions, deps []string) (*Related, error) {
	if opts.Parent == "" || opts.Via == "" {
		return nil, fmt.Errorf("related strategy %q requires parent and via options", name)
	}
	allDeps := append([]string{opts.Parent}, deps...)
	return &Related{
		query: NewQuery(name, QueryOptions{ChunkSize: opts.ChunkSize}, allDeps),
		opts:  opts,
		deps:  allDeps,
	}, nil
}

// Name implements Strategy.
func (r *Related) Name() string { return r.query.Name() }

// Capabilities implements Strategy.
func (r *Related) Capabilities() Capability { return CapExport | CapImport }

// ExtraDeps implements Strategy.
func (r *Related) ExtraDeps() []string { return r.deps }

// Export implements Exporter.
func (r *Related) Export(ctx context.Context, rc *RunContext, model ModelRef) error {
	logger := ctxlog.FromContext(ctx).With("type", model.Label, "strategy", r.Name())

	if rc.NoUpdate {
		exists, err := rc.Dest.Exists(ctx, dataPrefix(model.Label))
		if err != nil {
			return err
		}
		if exists {
			logger.Info("Data already present, skipping export.")
			return nil
		}
	}

	parent, ok := rc.Resolve(r.opts.Parent)
	if !ok {
		return fmt.Errorf("related strategy %q: parent %q is not part of the work set", r.Name(), r.opts.Parent)
	}
	parentPKs, err := rc.ExportedPKs(ctx, parent)
	if err != nil {
		return fmt.Errorf("loading exported keys of %s: %w", parent.Label, err)
	}
	allowed := make(map[string]struct{}, len(parentPKs))
	for _, pk := range parentPKs {
		allowed[pk] = struct{}{}
	}

	records, err := r.query.fetch(ctx, rc, model)
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		ref, ok := rec[r.opts.Via]
		if !ok {
			return fmt.Errorf("related strategy %q: %s has no column %q", r.Name(), model.Table, r.opts.Via)
		}
		if ref == nil {
			kept = append(kept, rec)
			continue
		}
		if _, ok := allowed[fmt.Sprint(ref)]; ok {
			kept = append(kept, rec)
		}
	}
	logger.Debug("Filtered rows against parent export.", "total", len(records), "kept", len(kept))

	return writeChunks(ctx, rc.Dest, model.Label, kept, r.opts.ChunkSize)
}

// Import implements Importer.
func (r *Related) Import(ctx context.Context, rc *RunContext, model ModelRef) error {
	return r.query.Import(ctx, rc, model)
}
