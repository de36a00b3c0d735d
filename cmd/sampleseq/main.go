package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/spf13/cobra"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/cache"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/config"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/engine"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/gen"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/progress"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sampleseq",
	Short: "Generate AI music loops and sequence them through a 16-step effect grid",
	Long: `sampleseq turns a text prompt into a music loop, lets you carve a
sample out of it and sequences that sample across a 16-step pattern of
audio effects.

Pipeline: prompt → generation backend → sample selection → step sequencer`,
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Start the web interface: generation, waveform selection, the step
grid and the transport, played through the local audio device.

Examples:
  sampleseq serve
  sampleseq serve --addr :9000 --backend ws://gpu-box:8765/generate`,
	RunE: runServe,
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a loop and save it as WAV",
	Long: `Generate a loop from a text prompt and write it to disk. Repeated
prompts at the same tempo are served from the local cache.

Examples:
  sampleseq generate "dusty jazz drums"
  sampleseq generate "deep house bassline" --bpm 124 -o bass.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var renderCmd = &cobra.Command{
	Use:   "render <sample.wav>",
	Short: "Render a 16-step pattern to WAV offline",
	Long: `Arrange a local sample across a 16-step pattern and write the result
as a WAV file, without starting the web interface. The pattern is a
comma-separated list of 16 slots; empty slots stay silent.

Examples:
  sampleseq render kick.wav --pattern "normal,,,normal,,,reverse,,normal,,,,,,,"
  sampleseq render hit.wav -p "normal,,reverb,," --bpm 90 -o out.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sampleseq %s\n", version)
	},
}

var (
	flagConfig  string
	flagAddr    string
	flagBackend string

	flagBPM     float64
	flagOutput  string
	flagNoCache bool
	flagVerbose bool

	flagPattern string
)

func init() {
	serveCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to config file")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagBackend, "backend", "", "generation backend URL (overrides config)")

	generateCmd.Flags().Float64Var(&flagBPM, "bpm", 120, "tempo of the generated loop")
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output WAV path (default loop.wav)")
	generateCmd.Flags().StringVar(&flagBackend, "backend", "", "generation backend URL")
	generateCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "skip the loop cache")
	generateCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose progress output")

	renderCmd.Flags().StringVarP(&flagPattern, "pattern", "p", "", "comma-separated 16-step pattern (required)")
	renderCmd.Flags().Float64Var(&flagBPM, "bpm", 120, "tempo of the rendered sequence")
	renderCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output WAV path (default sequence_<bpm>bpm.wav)")
	renderCmd.MarkFlagRequired("pattern")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration for serve
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagBackend != "" {
		cfg.Backend.URL = flagBackend
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng := engine.New(cfg.Audio.SampleRate)
	eng.SetTempo(cfg.Tempo)

	sr := beep.SampleRate(cfg.Audio.SampleRate)
	if err := speaker.Init(sr, sr.N(time.Duration(cfg.Audio.BufferMs)*time.Millisecond)); err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	speaker.Play(eng.Bus())

	client := gen.NewClient(gen.Config{
		URL:            cfg.Backend.URL,
		InitialTimeout: time.Duration(cfg.Backend.InitialTimeout) * time.Second,
		CollectWindow:  time.Duration(cfg.Backend.CollectWindow) * time.Second,
	})

	srv, err := server.New(server.Config{Addr: cfg.Server.Addr}, eng, client)
	if err != nil {
		return err
	}
	return srv.Run()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := args[0]
	if flagBPM < 20 || flagBPM > 300 {
		return fmt.Errorf("bpm %g out of range (20-300)", flagBPM)
	}
	output := flagOutput
	if output == "" {
		output = "loop.wav"
	}

	reporter := progress.NewReporter(os.Stdout, flagVerbose)

	var loops *cache.LoopCache
	if !flagNoCache {
		var err error
		loops, err = cache.New()
		if err != nil {
			reporter.Warning("loop cache unavailable: %v", err)
		}
	}

	key := cache.Key(prompt, flagBPM)
	if loops != nil {
		if hit, ok := loops.Get(key); ok {
			reporter.Update("cache hit %s", hit.CacheKey)
			data, err := os.ReadFile(hit.Path)
			if err == nil && os.WriteFile(output, data, 0644) == nil {
				reporter.Done(output)
				return nil
			}
		}
	}

	backend := flagBackend
	if backend == "" {
		backend = config.Default().Backend.URL
	}
	client := gen.NewClient(gen.Config{URL: backend})

	reporter.StartStage(progress.StageConnect)
	reporter.StartStage(progress.StageStream)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := client.Generate(ctx, prompt, flagBPM)
	if err != nil {
		reporter.Error(err)
		return err
	}
	reporter.StageComplete("%d chunks, %.1fs of audio", res.Chunks, res.Buffer.Duration())
	if res.Partial {
		reporter.Warning("stream ended early; keeping what arrived")
	}

	reporter.StartStage(progress.StageDecode)
	reporter.StartStage(progress.StageSave)
	if err := audio.SaveWAV(output, res.Buffer); err != nil {
		reporter.Error(err)
		return err
	}
	if loops != nil && !res.Partial {
		if _, err := loops.Put(key, output); err != nil {
			reporter.Warning("loop not cached: %v", err)
		}
	}

	reporter.Done(output)
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	input := args[0]
	if flagBPM < 20 || flagBPM > 300 {
		return fmt.Errorf("bpm %g out of range (20-300)", flagBPM)
	}

	if err := audio.ValidateInput(input); err != nil {
		return err
	}
	sample, err := audio.LoadWAV(input)
	if err != nil {
		return err
	}

	pat, err := pattern.Parse(flagPattern)
	if err != nil {
		return err
	}
	if pat.Empty() {
		return fmt.Errorf("pattern has no active steps")
	}

	out, err := engine.Render(sample, pat, flagBPM)
	if err != nil {
		return err
	}

	output := flagOutput
	if output == "" {
		output = engine.ExportFilename(flagBPM)
	}
	if err := audio.SaveWAV(output, out); err != nil {
		return err
	}

	fmt.Printf("Rendered %d steps to %s (%.2fs)\n", pattern.Steps, output, out.Duration())
	return nil
}
