// Command violit-demo runs a small violit application: a reactive
// counter in the main area, a static sidebar, and a fragment grouping
// derived content. It exercises the widget-facing registration API the
// same way a widget library would.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/violit-dev/violit/pkg/component"
	"github.com/violit-dev/violit/pkg/push"
	"github.com/violit-dev/violit/pkg/runtime"
	"github.com/violit-dev/violit/pkg/server"
	"github.com/violit-dev/violit/pkg/store"
	"github.com/violit-dev/violit/pkg/violit"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr string
		mode string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "violit-demo",
		Short: "Run the violit demo application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, server.Mode(mode), ttl)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&mode, "mode", "ws", "push transport: ws or lite")
	cmd.Flags().DurationVar(&ttl, "session-ttl", 30*time.Minute, "idle session eviction window")

	return cmd
}

func run(addr string, mode server.Mode, ttl time.Duration) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	rt := runtime.New(store.Config{TTL: ttl}, logger)

	srv := server.New(&server.Config{
		Address: addr,
		Mode:    mode,
		Title:   "Violit Demo",
	}, rt)

	buildPage(rt, srv.Engine())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return srv.Shutdown(context.Background())
	}
}

// buildPage registers the demo's components. This runs before any
// session exists, so everything lands in the static registry and is
// shared by all sessions; the signal values themselves stay per-session.
func buildPage(rt *runtime.Runtime, engine push.Engine) {
	count := violit.NewState("count", 0)
	label := violit.Textf[int]("Count: %d", count)

	violit.WithLayout(violit.LayoutSidebar, func() {
		id := rt.NextID("title")
		rt.Register(id, func() *component.Component {
			return &component.Component{Tag: "h3", ID: id, Content: "Violit Demo", Escape: true}
		}, nil)
	})

	counterID := rt.NextID("counter")
	rt.Register(counterID, func() *component.Component {
		return &component.Component{
			Tag:     "button",
			ID:      counterID,
			Attrs:   engine.ClickAttrs(counterID),
			Content: label.Value(),
			Escape:  true,
		}
	}, func(any) {
		count.Update(func(n int) int { return n + 1 })
		if n := count.Peek(); n > 0 && n%10 == 0 {
			rt.Eval(fmt.Sprintf("console.log('reached %d clicks')", n))
		}
	})

	parity := violit.Map[int, string](count, func(n int) string {
		if n%2 == 0 {
			return "even"
		}
		return "odd"
	})

	rt.Fragment("demo_fragment", func() {
		id := rt.NextID("parity")
		rt.Register(id, func() *component.Component {
			return &component.Component{
				Tag:     "div",
				ID:      id,
				Content: "The count is " + parity.Value(),
				Escape:  true,
			}
		}, nil)
	})
}
