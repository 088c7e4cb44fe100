package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guidoenr/habitateq/internal/app"
	"github.com/guidoenr/habitateq/internal/audio"
	"github.com/guidoenr/habitateq/internal/geometry"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/render"
	"github.com/guidoenr/habitateq/internal/scene"
	"github.com/guidoenr/habitateq/internal/visualizer"
	"github.com/guidoenr/habitateq/internal/web"
)

func main() {
	var (
		deviceName   = flag.String("audio-device", "", "Optional PortAudio device name (substring match)")
		audioFile    = flag.String("audio-file", "", "Play a WAV or MP3 file instead of capturing")
		loopAudio    = flag.Bool("loop", true, "Loop the audio file")
		noAudio      = flag.Bool("no-audio", false, "Run with synthetic audio (for testing)")
		listDevs     = flag.Bool("list-audio-devices", false, "List available audio input devices and exit")
		width        = flag.Int("width", 320, "Framebuffer width in pixels")
		height       = flag.Int("height", 180, "Framebuffer height in pixels")
		targetFPS    = flag.Float64("fps", 30, "Target frames per second")
		bufferSize   = flag.Int("buffer-size", 2048, "FFT buffer size (power of two recommended)")
		noiseFloor   = flag.Float64("noise-floor", 0.05, "Normalized level below which bands read as silence")
		imagePath    = flag.String("image", "habitat.png", "Building photo")
		maskPath     = flag.String("mask", "mask.png", "Grayscale silhouette gating the floor bands")
		wireframeSVG = flag.String("wireframe-svg", "habitat.svg", "SVG whose paths feed the neon wireframe")
		pixelSVG     = flag.String("pixel-svg", "Equalizer_Pixel.svg", "SVG with UNITS, SLABS and SUN layers for physics")
		columns      = flag.Int("columns", 0, "Override the number of EQ columns")
		floors       = flag.Int("floors", 0, "Override the number of floor bands")
		configPath   = flag.String("config", "", "JSON parameter file, also the target of the panel's save")
		webPort      = flag.Int("web-port", 0, "Serve the control panel on this port (0 disables)")
		profilePath  = flag.String("profile", "", "Append per-frame timings as CSV to this file")
		showStatus   = flag.Bool("status", true, "Display status bar")
		useSDL       = flag.Bool("sdl", false, "Present in an SDL window (requires -tags sdl)")
		debug        = flag.Bool("debug", false, "Enable verbose logging")
	)

	flag.Parse()

	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}

	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}

	if *bufferSize <= 0 {
		log.Fatalf("buffer-size must be positive (got %d)", *bufferSize)
	}

	if *useSDL && !render.SupportsSDL() {
		log.Fatalf("-sdl requires a build with -tags sdl")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stdout, "[habitateq] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	p, err := loadParams(*configPath, logger)
	if err != nil {
		logger.Fatalf("parameters: %v", err)
	}
	if *columns > 0 {
		p.Columns = *columns
	}
	if *floors > 0 {
		p.Floors = *floors
	}
	if err := p.Validate(); err != nil {
		logger.Fatalf("parameters: %v", err)
	}

	needAudio := (!*noAudio && *audioFile == "") || *listDevs
	if needAudio {
		if err := audio.Initialize(); err != nil {
			logger.Fatalf("failed to initialize PortAudio: %v", err)
		}
		defer audio.Terminate()
	}

	if *listDevs {
		devices, err := audio.ListDevices()
		if err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		auto, _ := audio.AutoDetectDevice()
		audio.WriteInputs(os.Stdout, devices, auto)
		return
	}

	vcfg := loadAssets(logger, *imagePath, *maskPath, *wireframeSVG, *pixelSVG, p)
	vcfg.Params = p

	appConfig := app.Config{
		Width:         *width,
		Height:        *height,
		TargetFPS:     *targetFPS,
		BufferSize:    *bufferSize,
		DeviceName:    *deviceName,
		AudioFile:     *audioFile,
		LoopAudio:     *loopAudio,
		DisableAudio:  *noAudio,
		NoiseFloor:    *noiseFloor,
		ShowStatusBar: *showStatus,
		UseSDL:        *useSDL,
		ProfilePath:   *profilePath,
		ParamsPath:    *configPath,
		Visualizer:    vcfg,
		Log:           logger,
	}

	a, err := app.New(appConfig)
	if err != nil {
		logger.Fatalf("failed to create app: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if *webPort > 0 {
		panel := web.NewServer(a, log.New(logger.Writer(), "[web] ", logger.Flags()))
		go func() {
			if err := panel.Start(ctx, *webPort); err != nil {
				logger.Printf("control panel stopped: %v", err)
			}
		}()
	}

	if err := a.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return
		}
		logger.Fatalf("runtime error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
}

// loadParams reads path onto the defaults. A missing file is not an error so
// the panel can create it on save.
func loadParams(path string, logger *log.Logger) (params.Parameters, error) {
	if path == "" {
		return params.Defaults(), nil
	}
	p, err := params.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Printf("%s not found, using default parameters", path)
		return params.Defaults(), nil
	}
	return p, err
}

// loadAssets decodes every asset it can. Each failure is logged and the
// matching effect degrades instead of stopping start-up.
func loadAssets(logger *log.Logger, imagePath, maskPath, wireframeSVG, pixelSVG string, p params.Parameters) visualizer.Config {
	var cfg visualizer.Config

	if pic, err := scene.LoadPicture(imagePath); err != nil {
		logger.Printf("image unavailable, using generated backdrop: %v", err)
	} else {
		cfg.Picture = pic
	}

	if maskPic, err := scene.LoadPicture(maskPath); err != nil {
		logger.Printf("mask unavailable, floor bands draw everywhere: %v", err)
	} else {
		cfg.Mask = scene.NewMask(maskPic, p.MaskThreshold)
	}

	if layers, err := geometry.LoadLayers(pixelSVG); err != nil {
		logger.Printf("pixel layout unavailable, using generated layout: %v", err)
		cfg.Layers = geometry.Generated()
	} else {
		cfg.Layers = layers
	}

	if doc, err := geometry.LoadPaths(wireframeSVG); err != nil {
		logger.Printf("wireframe unavailable, tracing the pixel layout: %v", err)
		cfg.Outline = geometry.Outline(cfg.Layers)
	} else {
		cfg.Outline = doc
	}
	return cfg
}
