package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oakwood-commons/tokentip/internal/metrics"
	"github.com/oakwood-commons/tokentip/pkg/app"
	"github.com/oakwood-commons/tokentip/pkg/dom"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/logger"
	"github.com/oakwood-commons/tokentip/pkg/render"
	"github.com/oakwood-commons/tokentip/pkg/scene"
	"github.com/oakwood-commons/tokentip/pkg/settings"
	"github.com/oakwood-commons/tokentip/pkg/settings/sqlitestore"
)

// board is an App running over a scene fixture and an in-memory document.
type board struct {
	app      *app.App
	scene    *scene.Scene
	doc      *dom.Memory
	registry *prometheus.Registry
	close    func()
}

// openStore opens the SQLite store when run names one, else a memory store.
func openStore(ctx context.Context, run *settings.Run) (settings.Store, func(), error) {
	if run.DBPath == "" {
		return settings.NewMemoryStore(), func() {}, nil
	}
	st, err := sqlitestore.Open(ctx, run.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}

// viewer is the fixture's user unless the run overrides it.
func viewer(run *settings.Run, sc *scene.Scene) host.OwnershipViewer {
	if run.User != "" {
		return host.OwnershipViewer{ID: run.User, GM: run.GM}
	}
	return sc.Viewer()
}

// openBoard loads the scene at path and starts an App over it. An empty path
// gives an empty scene, enough for settings and configuration commands.
func openBoard(ctx context.Context, run *settings.Run, path string) (*board, error) {
	lgr := *logger.FromContext(ctx)

	var (
		sc  *scene.Scene
		err error
	)
	if path == "" {
		sc, err = scene.New(scene.File{})
	} else {
		sc, err = scene.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStore(ctx, run)
	if err != nil {
		return nil, err
	}
	html, err := render.NewHTMLRenderer()
	if err != nil {
		closeStore()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	doc := dom.NewMemory()
	a, err := app.New(app.Config{
		Scene:     sc,
		Canvas:    sc,
		ItemPiles: sc,
		Viewer:    viewer(run, sc),
		Notifier:  host.LogNotifier{Log: lgr},
		Store:     store,
		Renderer:  html,
		Document:  doc,
		Metrics:   metrics.New(reg),
		Logger:    lgr,
	})
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("start tooltip app: %w", err)
	}
	lgr.V(1).Info("board opened", "scene", sc.Name(), "tokens", len(sc.TokenIDs()), "db", run.DBPath)
	return &board{
		app:      a,
		scene:    sc,
		doc:      doc,
		registry: reg,
		close: func() {
			a.Close()
			closeStore()
		},
	}, nil
}
