package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rbtl/internal/api"
	"github.com/samcharles93/rbtl/internal/dataset"
	"github.com/samcharles93/rbtl/internal/logger"
	"github.com/samcharles93/rbtl/internal/model"
)

func serveCmd() *cli.Command {
	var (
		dataPath    string
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the density and derived-quantities API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Usage: "dataset JSON file", Required: true, Destination: &dataPath},
			&cli.StringFlag{Name: "addr", Usage: "listen address", Value: "127.0.0.1:8080", Destination: &addr},
			&cli.DurationFlag{Name: "read-timeout", Usage: "read timeout", Value: 30 * time.Second, Destination: &readTimeout},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, LoadConfig(), &addr)

			data, err := dataset.Load(dataPath)
			if err != nil {
				return err
			}
			m, err := model.New(data)
			if err != nil {
				return err
			}

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			api.NewServer(m).Register(e)

			log.Info("starting server", "address", addr, "dim", m.Dim())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
