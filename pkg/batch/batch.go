// Package batch drives the instantiation of a template into many documents
// and the optional upload of the results.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jsonhammer/jsonhammer/pkg/observability"
	"github.com/jsonhammer/jsonhammer/pkg/templating"
	"github.com/jsonhammer/jsonhammer/pkg/uploader"
)

type Options struct {
	Copies    int
	Workers   int
	OutputDir string
	// UploadJSON enables the upload phase and the manifest.
	UploadJSON bool
	// Seed derives the random source of every copy. Zero picks a seed from
	// the clock; the chosen seed is logged.
	Seed int64
}

type Result struct {
	Seed int64
	// Paths of the written documents, in completion order.
	Paths []string
	// Identifiers of the uploaded documents, in completion order.
	Identifiers  []string
	ManifestPath string
}

type Orchestrator struct {
	fs       afero.Fs
	walker   *templating.Walker
	uploader uploader.Uploader
	opts     Options
	logger   *observability.HammerLogger
	now      func() time.Time
}

func New(fs afero.Fs, walker *templating.Walker, up uploader.Uploader, opts Options, logger *observability.HammerLogger) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{
		fs:       fs,
		walker:   walker,
		uploader: up,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// CopyPath is the output path of the n-th copy, counting from 1.
func CopyPath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("copy_%d.json", n))
}

// InstanceSeed derives the seed of copy i from the run seed, so that a copy's
// content does not depend on which worker runs it or when.
func InstanceSeed(seed int64, i int) int64 {
	return int64(uint64(seed) + uint64(i+1)*0x9E3779B97F4A7C15)
}

// collector is an append-only list shared by the workers of a phase.
type collector struct {
	mutex sync.Mutex
	items []string
}

func (c *collector) add(item string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = append(c.items, item)
}

func (c *collector) list() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]string(nil), c.items...)
}

// Run generates every copy and then, if enabled, uploads them all. The
// upload phase starts only after every copy has been written. The first
// error cancels all outstanding work and is returned.
func (o *Orchestrator) Run(ctx context.Context, template *structpb.Struct) (*Result, error) {
	seed := o.opts.Seed
	if seed == 0 {
		seed = o.now().UnixNano()
	}
	result := &Result{Seed: seed}
	o.logger.Info("making copies", "copies", o.opts.Copies, "workers", o.opts.Workers, "seed", seed)

	paths, err := o.Generate(ctx, template, seed)
	result.Paths = paths
	if err != nil {
		return result, err
	}
	if !o.opts.UploadJSON {
		return result, nil
	}

	o.logger.Info("uploading JSON to IPFS", "documents", len(paths))
	ids, err := o.Upload(ctx, paths)
	result.Identifiers = ids
	if err != nil {
		if len(ids) > 0 {
			o.logger.Warn("upload aborted, no manifest written", "uploaded", ids)
		}
		return result, err
	}

	manifest := filepath.Join(o.opts.OutputDir, ManifestName)
	if err := WriteManifest(o.fs, manifest, ids, o.now()); err != nil {
		return result, err
	}
	result.ManifestPath = manifest
	return result, nil
}

// Generate writes Copies resolved copies of template to the output
// directory and returns their paths.
func (o *Orchestrator) Generate(ctx context.Context, template *structpb.Struct, seed int64) ([]string, error) {
	if err := o.ensureOutputDir(); err != nil {
		return nil, err
	}

	written := &collector{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i := 0; i < o.opts.Copies; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			path, err := o.createCopy(gctx, template, i, seed)
			if err != nil {
				return err
			}
			written.add(path)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return written.list(), err
}

func (o *Orchestrator) createCopy(ctx context.Context, template *structpb.Struct, i int, seed int64) (string, error) {
	n := i + 1
	logger := o.logger.With("copy", n)
	logger.Info(fmt.Sprintf("creating copy %d of %d", n, o.opts.Copies))

	doc := proto.Clone(template).(*structpb.Struct)
	idx := templating.NewIndexContext(rand.New(rand.NewSource(InstanceSeed(seed, i))))
	if _, err := o.walker.ResolveStruct(ctx, doc, idx); err != nil {
		return "", fmt.Errorf("copy %d: %w", n, err)
	}

	data, err := json.Marshal(doc.AsMap())
	if err != nil {
		return "", fmt.Errorf("copy %d: encode: %w", n, err)
	}
	path := CopyPath(o.opts.OutputDir, n)
	if err := afero.WriteFile(o.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("copy %d: %w", n, err)
	}
	logger.Info("JSON written", "path", filepath.ToSlash(path))
	return path, nil
}

// Upload sends every path to the uploader and returns the identifiers
// obtained, including those obtained before a failure.
func (o *Orchestrator) Upload(ctx context.Context, paths []string) ([]string, error) {
	if o.uploader == nil {
		return nil, fmt.Errorf("upload: no uploader configured")
	}

	uploaded := &collector{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			cid, err := o.uploader.Upload(gctx, path)
			if err != nil {
				return err
			}
			o.logger.Debug("document uploaded", "path", filepath.ToSlash(path), "cid", cid)
			uploaded.add(cid)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return uploaded.list(), err
}

func (o *Orchestrator) ensureOutputDir() error {
	dir := o.opts.OutputDir
	exists, err := afero.DirExists(o.fs, dir)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	o.logger.Warn("output directory does not exist, creating...", "dir", dir)
	return o.fs.MkdirAll(dir, 0o755)
}
