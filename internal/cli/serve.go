package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rflorenc/towerctl/internal/api"
	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/tower"
)

func newServeCommand(o *options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the resource operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				e.cfg.Listen = listen
			}
			store, err := e.cfg.Store()
			if err != nil {
				return usageError("%v", err)
			}
			if e.conn != nil {
				store.Add(e.conn)
			}
			for _, c := range store.List() {
				e.log.Info().Str("connection", c.Name).Str("host", c.Host).Int("port", c.Port).Msg("loaded connection")
			}

			srv := &http.Server{
				Addr: e.cfg.Listen,
				Handler: api.NewRouter(&api.Server{
					Connections: store,
					Tower:       func(conn *models.Connection) *tower.Tower { return e.tower(conn) },
					Log:         e.log,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			e.log.Info().Str("listen", e.cfg.Listen).Str("version", version).Msg("towerctl serving")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default :8080)")
	return cmd
}
