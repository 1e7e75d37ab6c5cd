package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"podcast-insights-go/internal/config"
	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/pipeline"
	"podcast-insights-go/internal/report"
	"podcast-insights-go/internal/transcription"
	"podcast-insights-go/internal/transcripts"
)

type transcribeFlags struct {
	input     string
	output    string
	engine    string
	model     string
	keepGoing bool
	report    string
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags transcribeFlags
	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe every audio file in the input directory that has no transcript yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyTranscribeFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runTranscribe(runCtx, cfg, flags.report, ctx.logger(cfg), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Directory of audio files")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Directory for transcript JSON files")
	cmd.Flags().StringVar(&flags.engine, "engine", "", "Transcription engine: whisper, http or mock")
	cmd.Flags().StringVar(&flags.model, "model", "", "Model name for the selected engine")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "Continue with the next file after a failure")
	cmd.Flags().StringVar(&flags.report, "report", "", "Also write the run report to this .xlsx file")
	return cmd
}

func applyTranscribeFlags(cmd *cobra.Command, cfg *config.Config, f transcribeFlags) {
	if f.input != "" {
		cfg.Transcribe.InputDir = f.input
	}
	if f.output != "" {
		cfg.Transcribe.OutputDir = f.output
	}
	if f.engine != "" {
		cfg.Transcribe.Engine = strings.ToLower(strings.TrimSpace(f.engine))
	}
	if f.model != "" {
		if cfg.Transcribe.Engine == config.EngineHTTP {
			cfg.HTTP.Model = f.model
		} else {
			cfg.Whisper.Model = f.model
		}
	}
	if cmd.Flags().Changed("keep-going") {
		cfg.Transcribe.KeepGoing = f.keepGoing
	}
}

func newEngine(cfg *config.Config, log *logger.Logger) (transcription.Engine, error) {
	switch cfg.Transcribe.Engine {
	case config.EngineMock:
		log.Warn("using mock transcription engine")
		return transcription.MockEngine{}, nil
	case config.EngineHTTP:
		return transcription.NewHTTPEngine(transcription.HTTPConfig{
			BaseURL:  cfg.HTTP.BaseURL,
			APIKey:   cfg.HTTP.APIKey,
			Model:    cfg.HTTP.Model,
			Language: cfg.HTTP.Language,
			Timeout:  time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
			MaxRetry: time.Duration(cfg.HTTP.MaxRetrySeconds) * time.Second,
		}, log)
	case config.EngineWhisper:
		return transcription.NewWhisperEngine(transcription.WhisperConfig{
			Python:      cfg.Whisper.Python,
			Model:       cfg.Whisper.Model,
			Device:      cfg.Whisper.Device,
			ComputeType: cfg.Whisper.ComputeType,
			Language:    cfg.Whisper.Language,
			BeamSize:    cfg.Whisper.BeamSize,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown transcription engine %q", cfg.Transcribe.Engine)
	}
}

func runTranscribe(ctx context.Context, cfg *config.Config, reportPath string, log *logger.Logger, out io.Writer) error {
	log = log.With("input_dir", cfg.Transcribe.InputDir).
		With("output_dir", cfg.Transcribe.OutputDir).
		With("engine", cfg.Transcribe.Engine)

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	store, err := transcripts.NewDirStore(cfg.Transcribe.OutputDir)
	if err != nil {
		return err
	}
	unlock, err := store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	inputs, err := pipeline.Discover(cfg.Transcribe.InputDir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		log.Warn("no audio files found")
	}

	rep, runErr := pipeline.Run(ctx, inputs, store, engine, pipeline.Options{
		KeepGoing: cfg.Transcribe.KeepGoing,
		Log:       log,
	})
	if runErr != nil {
		log.WithError(runErr).Error("transcription run stopped")
	}
	fmt.Fprintln(out, renderRunTable(rep))

	if reportPath != "" {
		if err := report.WriteXLSX(reportPath, rep, log); err != nil {
			if runErr != nil {
				return runErr
			}
			return err
		}
	}
	return runErr
}

func renderRunTable(rep pipeline.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Episode", "Status", "Segments", "Lang", "Elapsed", "Output"})
	for _, f := range rep.Files {
		note := f.Output
		if f.Err != nil {
			note = f.Err.Error()
		}
		tw.AppendRow(table.Row{f.Key, f.Status, f.Segments, f.Language, f.Elapsed.Round(time.Millisecond), note})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"total", fmt.Sprintf("%d processed, %d skipped, %d failed",
		rep.Count(pipeline.StatusProcessed), rep.Count(pipeline.StatusSkipped), rep.Count(pipeline.StatusFailed))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}
