// folio builds image derivatives for a photo tree and serves the gallery API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tstromberg/folio/pkg/folio"
	"github.com/tstromberg/folio/pkg/server"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	inDir      = flag.String("in", "", "location of the source photo directory")
	outDir     = flag.String("out", "", "location of the derivative directory")
	title      = flag.String("title", "", "title of the photo collection in exported manifests")
	listen     = flag.Bool("listen", false, "serve the gallery API via HTTP")
	addr       = flag.String("addr", "", "host:port to bind to in listen mode")
	watchFlag  = flag.Bool("watch", false, "watch the source directory and regenerate derivatives")
	exportDir  = flag.String("export", "", "write a static copy of derivatives and manifests to this directory")
	workers    = flag.Int("workers", 0, "number of images to process at once (0 = GOMAXPROCS)")
	exifFlag   = flag.Bool("exif", false, "read EXIF details with exiftool")
)

// debounce is how long to wait for a burst of file events to settle before rescanning.
const debounce = 2 * time.Second

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	c, err := folio.LoadConfig(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	override(c)

	folio.StartVips()
	defer folio.ShutdownVips()

	var er *folio.ExifReader
	if c.Exif {
		er, err = folio.NewExifReader()
		if err != nil {
			klog.Exitf("exif: %v", err)
		}
		defer func() {
			if err := er.Close(); err != nil {
				klog.Errorf("close exiftool: %v", err)
			}
		}()
	}

	g := folio.NewGenerator(c, folio.WebPEncoder{Effort: c.Effort})
	p := folio.NewPipeline(c, g, er)
	cache := folio.NewCache(p.Photos, c.CacheTTL, time.Now)
	lib := folio.NewLibrary(c, cache)

	ctx := context.Background()
	ps, err := lib.Photos(ctx)
	if err != nil {
		klog.Exitf("scan failed: %v", err)
	}
	klog.Infof("%d photos ready in %s", len(ps), c.OutDir)

	if *exportDir != "" {
		if err := lib.Export(ctx, *exportDir); err != nil {
			klog.Exitf("export failed: %v", err)
		}
	}

	errc := make(chan error, 2)
	running := 0

	if *watchFlag {
		running++
		go func() {
			errc <- watch(ctx, c, p)
		}()
	}

	if *listen {
		running++
		go func() {
			klog.Infof("Listening on %s...", c.Addr)
			errc <- http.ListenAndServe(c.Addr, server.New(c, lib).Router())
		}()
	}

	for range running {
		if err := <-errc; err != nil {
			klog.Exitf("%v", err)
		}
	}
}

// override applies command-line flags on top of the loaded configuration.
func override(c *folio.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			c.InDir = *inDir
		case "out":
			c.OutDir = *outDir
		case "title":
			c.Title = *title
		case "addr":
			c.Addr = *addr
		case "workers":
			c.Workers = *workers
		case "exif":
			c.Exif = *exifFlag
		}
	})
}

// dirs returns the source root and every visible directory below it.
func dirs(root string) ([]string, error) {
	ds := []string{root}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(p string, de *godirwalk.Dirent) error {
			if !de.IsDir() || p == root {
				return nil
			}
			if strings.HasPrefix(de.Name(), ".") {
				return godirwalk.SkipThis
			}
			ds = append(ds, p)
			return nil
		},
		Unsorted: true,
	})
	slices.Sort(ds)
	return slices.Compact(ds), err
}

// watch regenerates derivatives when the source tree changes. The photo listing itself is
// refreshed by the cache once it expires.
func watch(ctx context.Context, c *folio.Config, p *folio.Pipeline) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	ds, err := dirs(c.InDir)
	if err != nil {
		return fmt.Errorf("list dirs: %w", err)
	}
	klog.Infof("watching %d dirs ...", len(ds))
	for _, d := range ds {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %s", event)
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() && !strings.HasPrefix(fi.Name(), ".") {
					if err := w.Add(event.Name); err != nil {
						klog.Warningf("watch %s: %v", event.Name, err)
					}
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			if _, err := p.Scan(ctx); err != nil {
				klog.Errorf("rescan failed: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
