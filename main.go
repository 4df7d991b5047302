package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/gg"
	"gopkg.in/yaml.v2"

	"github.com/animtx/animtx/anim"
	"github.com/animtx/animtx/api"
	"github.com/animtx/animtx/capture"
)

type config struct {
	Animation anim.Spec `yaml:"animation"`
	Video     struct {
		FPS         float64 `yaml:"fps"`
		DurationSec float64 `yaml:"durationSec"`
	} `yaml:"video"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func defaultConfig() config {
	var c config
	c.Animation = anim.Spec{
		Template:        string(anim.TemplateBouncingText),
		Width:           640,
		Height:          480,
		BackgroundColor: "#101020",
		PrimaryColor:    "#ff8040",
		SecondaryColor:  "#40c0ff",
		Text:            "animtx",
	}
	c.Video.FPS = 30
	c.Video.DurationSec = 4
	c.Server.Addr = ":3000"
	return c
}

func readConfig(configPath string) config {
	c := defaultConfig()

	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return c
		}
		log.Fatalf("opening config: %v", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		log.Fatalf("reading config: %v", err)
	}
	return c
}

func renderOnce(c config, out string) {
	animCfg, err := c.Animation.Config()
	if err != nil {
		log.Fatalf("invalid animation config: %v", err)
	}
	a, err := anim.New(animCfg)
	if err != nil {
		log.Fatalf("invalid animation config: %v", err)
	}

	enc, err := capture.NewFFmpeg()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dc := gg.NewContext(animCfg.Width, animCfg.Height)
	opts := capture.Options{
		FPS:      c.Video.FPS,
		Duration: time.Duration(c.Video.DurationSec * float64(time.Second)),
	}
	artifact, err := capture.Run(ctx, dc, enc, opts, func(t float64) {
		a.RenderFrame(dc, t)
	})
	if err != nil {
		log.Fatalf("capture failed: %v", err)
	}

	if out == "" {
		out = capture.Filename(string(animCfg.Template), time.Now(),
			animCfg.Width, animCfg.Height, opts.CaptureFPS())
	}
	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("creating %s: %v", out, err)
	}
	defer f.Close()
	if _, err := artifact.WriteTo(f); err != nil {
		log.Fatalf("writing %s: %v", out, err)
	}

	log.Printf("Wrote %s (%d bytes, %s)", out, artifact.Size(), artifact.MediaType())
}

func main() {
	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	serve := flag.Bool("serve", false, "Serve the preview/capture API instead of rendering once.")
	out := flag.String("o", "", "Output file; empty derives the conventional capture name.")
	flag.Parse()

	c := readConfig(*configPath)
	log.Printf("Config: %+v", c)

	if *serve {
		s := api.NewServer(c.Server.Addr, c.Animation, c.Video.FPS, c.Video.DurationSec)
		log.Fatal(s.Serve())
	}

	renderOnce(c, *out)
}
