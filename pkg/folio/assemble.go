package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/tstromberg/folio/pkg/metrics"
)

// Pipeline turns the source tree into photo records, generating derivatives as needed.
type Pipeline struct {
	c       *Config
	gen     *Generator
	exif    *ExifReader
	workers int
}

// NewPipeline returns a pipeline. exif may be nil to skip EXIF details.
func NewPipeline(c *Config, gen *Generator, exif *ExifReader) *Pipeline {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{c: c, gen: gen, exif: exif, workers: workers}
}

// Photos scans the source tree and returns the photos that processed successfully, sorted by ID.
// Only a missing or unreadable source root is an error.
func (p *Pipeline) Photos(ctx context.Context) ([]*Photo, error) {
	rs, err := p.Scan(ctx)
	if err != nil {
		return nil, err
	}

	ps := []*Photo{}
	for _, r := range rs {
		if r.OK() {
			ps = append(ps, r.Photo)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].ID < ps[j].ID
	})
	return ps, nil
}

// Scan returns one result per source image, sorted by source path.
func (p *Pipeline) Scan(ctx context.Context) ([]Result, error) {
	start := time.Now()
	klog.Infof("scan: %s -> %s", p.c.InDir, p.c.OutDir)

	srcs, err := Find(p.c.InDir)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find: %w", err)
	}

	if err := os.MkdirAll(p.c.OutDir, 0o755); err != nil {
		metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	plans, rejected := plan(srcs, p.c.OutDir)
	results := make([]Result, len(plans))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, n := range plans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Source: n.Source, Err: err}
				return nil
			}
			results[i] = p.process(n)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.ScansTotal.WithLabelValues("canceled").Inc()
		return nil, err
	}

	results = append(results, rejected...)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Source < results[j].Source
	})

	ok := 0
	photos := []*Photo{}
	for _, r := range results {
		if r.OK() {
			ok++
			photos = append(photos, r.Photo)
			continue
		}
		klog.Errorf("excluding %s: %v", r.Source, r.Err)
	}
	warnLookalikes(photos)

	metrics.ScansTotal.WithLabelValues("ok").Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	metrics.ScanPhotos.WithLabelValues("ok").Set(float64(ok))
	metrics.ScanPhotos.WithLabelValues("failed").Set(float64(len(results) - ok))

	klog.Infof("scan complete: %d of %d sources usable in %s", ok, len(results), time.Since(start).Round(time.Millisecond))
	return results, nil
}

// plan derives names for sorted sources. Sources that repeat an earlier photo ID are rejected.
// Sources whose derivative names collide are all rejected, since none of them can own the
// derivatives on disk.
func plan(srcs []string, outDir string) ([]Names, []Result) {
	rejected := []Result{}
	kept := []Names{}
	ids := map[string]string{}
	tokens := map[string][]string{}

	for _, s := range srcs {
		n := Derive(s, outDir)

		if first, ok := ids[n.ID]; ok {
			klog.Warningf("duplicate photo id %q: keeping %s, discarding %s", n.ID, first, s)
			metrics.DuplicatesTotal.WithLabelValues("id").Inc()
			rejected = append(rejected, Result{
				Source: s,
				Err:    fmt.Errorf("%w: %q is already provided by %s", ErrDuplicateID, n.ID, first),
			})
			continue
		}

		ids[n.ID] = s
		tokens[n.Token] = append(tokens[n.Token], s)
		kept = append(kept, n)
	}

	plans := []Names{}
	for _, n := range kept {
		group := tokens[n.Token]
		if len(group) == 1 {
			plans = append(plans, n)
			continue
		}

		klog.Errorf("%s all map to %s: rename them", strings.Join(group, ", "), filepath.Base(n.Optimized))
		metrics.DuplicatesTotal.WithLabelValues("token").Inc()
		rejected = append(rejected, Result{
			Source: n.Source,
			Err:    fmt.Errorf("%w: %s share token %q", ErrTokenCollision, strings.Join(group, ", "), n.Token),
		})
	}
	return plans, rejected
}

// process runs the per-photo pipeline. Errors are reported in the result, never returned.
func (p *Pipeline) process(n Names) Result {
	r := Result{Source: n.Source}
	src := filepath.Join(p.c.InDir, filepath.FromSlash(n.Source))

	d, err := p.gen.Generate(src, n.Optimized, n.Thumbnail)
	if err != nil {
		r.Err = fmt.Errorf("derivatives: %w", err)
		return r
	}

	ph := &Photo{
		ID:              n.ID,
		Title:           n.Title,
		SourcePath:      n.Source,
		OptimizedPath:   n.Optimized,
		ThumbnailPath:   n.Thumbnail,
		Width:           d.Width,
		Height:          d.Height,
		ThumbnailWidth:  d.ThumbnailWidth,
		ThumbnailHeight: d.ThumbnailHeight,
	}

	thumb, err := os.ReadFile(n.Thumbnail)
	if err != nil {
		r.Err = fmt.Errorf("%w: %v", ErrMissingDerivative, err)
		return r
	}

	if img, err := decodeBytes(thumb); err != nil {
		klog.Warningf("no placeholder for %s: %v", n.Source, err)
		metrics.PlaceholderErrorsTotal.Inc()
	} else {
		ph.Fingerprint = fingerprintFor(img)
		ph.BlurPlaceholder, err = placeholderFor(img)
		if err != nil {
			klog.Warningf("no placeholder for %s: %v", n.Source, err)
			metrics.PlaceholderErrorsTotal.Inc()
		}
	}

	if p.exif != nil {
		e, err := p.exif.Read(src)
		if err != nil {
			klog.Warningf("exif for %s: %v", n.Source, err)
		} else {
			ph.Exif = e
		}
	}

	sc, err := ReadSidecar(n.Sidecar)
	switch {
	case err == nil:
		ph.Description = sc.Description
		ph.Tags = sc.Tags
	case !errors.Is(err, fs.ErrNotExist):
		klog.Warningf("sidecar for %s: %v", n.Source, err)
	}

	klog.V(1).Infof("processed %s: %dx%d", n.Source, ph.Width, ph.Height)
	r.Photo = ph
	return r
}

// warnLookalikes logs photos that are perceptually identical to an earlier one.
func warnLookalikes(ps []*Photo) {
	seen := map[string]string{}
	for _, p := range ps {
		if p.Fingerprint == "" {
			continue
		}
		if first, ok := seen[p.Fingerprint]; ok {
			klog.Warningf("%s looks like a duplicate of %s", p.ID, first)
			metrics.DuplicatesTotal.WithLabelValues("fingerprint").Inc()
			continue
		}
		seen[p.Fingerprint] = p.ID
	}
}
