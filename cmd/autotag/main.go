// autotag writes suggested tags for each photo into its sidecar using Google Gemini.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"

	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/tstromberg/folio/pkg/autotag"
	"github.com/tstromberg/folio/pkg/folio"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	inDir      = flag.String("in", "", "location of the source photo directory")
	outDir     = flag.String("out", "", "location of the derivative directory")
	dryRun     = flag.Bool("n", false, "dry-run mode, don't tag things")
	overwrite  = flag.Bool("o", false, "overwrite existing tags")
	model      = flag.String("model", "gemini-2.5-flash", "Gemini model to tag with")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	c, err := folio.LoadConfig(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	if *inDir != "" {
		c.InDir = *inDir
	}
	if *outDir != "" {
		c.OutDir = *outDir
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_AI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		klog.Exitf("genai: %v", err)
	}

	folio.StartVips()
	defer folio.ShutdownVips()

	g := folio.NewGenerator(c, folio.WebPEncoder{Effort: c.Effort})
	ps, err := folio.NewPipeline(c, g, nil).Photos(ctx)
	if err != nil {
		klog.Exitf("unable to collect: %v", err)
	}
	klog.Infof("found %d photos in %s", len(ps), c.InDir)

	tagged := 0
	for _, p := range ps {
		if !*overwrite && len(p.Tags) > 0 {
			klog.Infof("%s has tags: %v", p.ID, p.Tags)
			continue
		}

		tags, err := autotag.Tag(ctx, client, *model, p.ThumbnailPath)
		if err != nil {
			klog.Errorf("tag %s: %v", p.ID, err)
			continue
		}
		klog.Infof("adding tags to %s: %v", p.ID, tags)
		if *dryRun {
			continue
		}

		path := folio.Derive(p.SourcePath, c.OutDir).Sidecar
		sc, err := folio.ReadSidecar(path)
		if errors.Is(err, fs.ErrNotExist) {
			sc, err = &folio.Sidecar{}, nil
		}
		if err != nil {
			klog.Errorf("read sidecar for %s: %v", p.ID, err)
			continue
		}
		sc.Tags = tags
		if err := folio.WriteSidecar(path, sc); err != nil {
			klog.Errorf("write sidecar for %s: %v", p.ID, err)
			continue
		}
		tagged++
	}

	klog.Infof("autotag completed: tagged %d of %d photos", tagged, len(ps))
}
