package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/go-sketch/sketch/cmd/sketch/internal/config"
	"github.com/go-sketch/sketch/pkg/diag"
	termenv "github.com/go-sketch/sketch/pkg/env/term"
	"github.com/go-sketch/sketch/pkg/errors"
	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/graphics"
	"github.com/go-sketch/sketch/pkg/sketch"

	// Built-in asset loaders.
	_ "github.com/go-sketch/sketch/pkg/loaders"
)

func newRunCmd() *cobra.Command {
	var fps float64
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the built-in demo sketch in the terminal",
		Long: `Run starts the bundled demo sketch: a ball bouncing around the
terminal, following the pointer when moved and pausing on space.
When stats.enabled is set in sketch.yaml, a diagnostics HTTP server
exposes /healthz, /stats, /runtime, and /metrics while it runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(fps)
		},
	}
	cmd.Flags().Float64Var(&fps, "fps", 0, "override the target frame rate")
	return cmd
}

func runDemo(fps float64) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal")
	}

	cfg, err := config.Load(flagConfigDir)
	if err != nil {
		return err
	}
	if fps <= 0 {
		fps = cfg.Sketch.FrameRate
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	errors.SetHandler(&errors.ZapHandler{Logger: logger, Verbose: flagVerbose})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	environment := termenv.New()
	timings := diag.NewTimings(240)

	s := newDemoSketch(environment, timings)
	defer s.Remove()
	s.SetFrameRate(fps)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stop()
		return environment.Run(ctx)
	})

	if cfg.Stats.Enabled {
		runtimeBuf := diag.NewRuntimeBuffer()
		sampler := diag.NewSampler(runtimeBuf)
		sampler.Start(cfg.Stats.SampleInterval)
		defer sampler.Stop()

		server := diag.NewServer(s, timings, runtimeBuf)
		addr, err := server.Start(cfg.Stats.Addr)
		if err != nil {
			stop()
			g.Wait()
			return err
		}
		logger.Info("stats server listening", zap.String("addr", addr))

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = normalizeShutdownErr(g.Wait())
	logger.Info("sketch stopped",
		zap.Int64("frames", s.FrameCount()),
		zap.Float64("rate", s.FrameRate()))
	return err
}

// normalizeShutdownErr maps the errors a signal-driven shutdown produces,
// wrapped or not, to nil.
func normalizeShutdownErr(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

var ballStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")).Bold(true)

// newDemoSketch builds the bundled bouncing-ball sketch.
func newDemoSketch(environment *termenv.Terminal, timings *diag.Timings) *sketch.Sketch {
	return sketch.New(func(s *sketch.Sketch) {
		var x, y, dx, dy float64

		s.Setup = func() {
			w, h := environment.Size()
			x, y = float64(w)/2, float64(h)/2
			dx, dy = 0.9, 0.5
		}

		s.Draw = func() {
			s.Background(graphics.Gray(16))
			w, h := environment.Size()
			if w < 2 || h < 3 {
				return
			}
			rows := h - 2 // one row for the status line, one for the frame edge

			x += dx
			y += dy
			if x <= 0 || x >= float64(w-1) {
				dx = -dx
				x = math.Max(0, math.Min(x, float64(w-1)))
			}
			if y <= 0 || y >= float64(rows-1) {
				dy = -dy
				y = math.Max(0, math.Min(y, float64(rows-1)))
			}

			environment.SetFrame(renderFrame(w, rows, int(x), int(y)))
		}

		s.On(events.PointerMoved, func(ev events.Event) {
			s.Dispatch(func() { x, y = ev.X, ev.Y })
		})
		s.On(events.KeyPressed, func(ev events.Event) {
			if ev.Key != " " {
				return
			}
			if s.IsLooping() {
				s.NoLoop()
			} else {
				s.Loop()
			}
		})

		diag.InstrumentDraw(s, timings)
	}, sketch.WithEnvironment(environment))
}

func renderFrame(width, rows, ballX, ballY int) string {
	var b strings.Builder
	b.Grow((width + 1) * rows)
	for row := 0; row < rows; row++ {
		if row == ballY && ballX >= 0 && ballX < width {
			b.WriteString(strings.Repeat(" ", ballX))
			b.WriteString(ballStyle.Render("●"))
			if ballX < width-1 {
				b.WriteString(strings.Repeat(" ", width-ballX-1))
			}
		} else {
			b.WriteString(strings.Repeat(" ", width))
		}
		if row < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
