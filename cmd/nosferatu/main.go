package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"nosferatu/internal/logger"
	"nosferatu/internal/metrics"
	"nosferatu/internal/models"
	"nosferatu/internal/pipeline"
)

// The CLI is a reference collaborator for the pipeline core: it drives the
// coordinator the same way a GUI shell would and renders the event stream
// to the terminal.
func main() {
	var (
		imagePath    = flag.String("image", "", "image file to load (.tif/.tiff/.png/.jpg/.bmp)")
		filterName   = flag.String("filter", "", "thresholding filter to select")
		savePath     = flag.String("save", "", "write the current (filtered) image to this path")
		manifestPath = flag.String("manifest", "", "CSV manifest of images for model building")
		outputDir    = flag.String("out", "", "output directory for the cluster model artifact")
		clusters     = flag.Int("k", 0, "cluster count for model building (default from config)")
		verbose      = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := logger.LevelFromEnv()
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsoleLogger(level)

	cfg := pipeline.DefaultConfig()
	if *clusters <= 0 {
		*clusters = cfg.DefaultClusterCount
	}

	coord := pipeline.NewCoordinator(cfg, log, metrics.Nop{})
	sink := pipeline.NewChannelSink(64)
	coord.Subscribe(sink)

	if err := run(coord, sink, *imagePath, *filterName, *savePath, *manifestPath, *outputDir, *clusters); err != nil {
		log.Error("main", err, nil)
		os.Exit(1)
	}
}

func run(coord *pipeline.Coordinator, sink *pipeline.ChannelSink, imagePath, filterName, savePath, manifestPath, outputDir string, clusters int) error {
	if filterName != "" {
		if err := coord.SelectFilter(filterName); err != nil {
			return err
		}
	}

	if imagePath != "" {
		if err := coord.LoadImage(imagePath); err != nil {
			return err
		}
		if err := coord.ApplyFilter(); err != nil {
			return err
		}
	}

	if savePath != "" {
		if err := coord.SaveImage(savePath); err != nil {
			return err
		}
	}

	if manifestPath == "" {
		return nil
	}
	if outputDir == "" {
		return fmt.Errorf("-out is required with -manifest")
	}

	if _, err := coord.BuildModel(manifestPath, outputDir, clusters); err != nil {
		return err
	}

	// Ctrl-C cancels the job cooperatively rather than killing the run.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		coord.CancelJob()
	}()

	// Drain the sink until the job's terminal event. Image-updated events
	// from the synchronous phase above are still in the buffer; skip them.
	for ev := range sink.C() {
		switch ev.Kind {
		case pipeline.EventProgress:
			fmt.Printf("[%s] %3d%%\n", ev.JobID, ev.Percent)
		case pipeline.EventStatus:
			fmt.Printf("[%s] %s\n", ev.JobID, ev.Text)
		case pipeline.EventJobFinished:
			switch ev.Result.State {
			case models.JobSucceeded:
				return nil
			case models.JobCancelled:
				return fmt.Errorf("build job %s was cancelled", ev.Result.JobID)
			default:
				return fmt.Errorf("build job %s finished in state %s", ev.Result.JobID, ev.Result.State)
			}
		}
	}
	return nil
}
