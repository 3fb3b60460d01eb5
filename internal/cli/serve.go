package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tsawler/ttcsv/internal/api"
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	var (
		c          common
		addr       string
		useStore   bool
		usePublish bool
	)
	c.register(fs)
	fs.StringVar(&addr, "addr", "", "Listen address. Defaults to SERVER_ADDR.")
	fs.BoolVar(&useStore, "store", false, "Store converted rows in the database at DATABASE_URL.")
	fs.BoolVar(&usePublish, "publish", false, "Upload converted output to the DO_SPACES_BUCKET bucket.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, cfg, err := c.apply(stderr)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.ServerAddr
	}

	s, err := openSinks(cfg, useStore, usePublish)
	if err != nil {
		return err
	}
	defer s.Close()

	app := api.NewApp(cfg.BodyLimitMB)
	api.RegisterRoutes(app, api.NewHandler(s.saver(), s.uploader(), logger))

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr)
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
