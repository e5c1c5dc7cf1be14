package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/displaydb/internal/logging"
	"github.com/iliyamo/displaydb/internal/queue"
)

// NewAuditCommand creates the audit command, which drains the inventory
// event queue into the audit log until interrupted.
func NewAuditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Write inventory events to the audit log",
		Long: `Consume inventory events published by interactive sessions and append
one line per event to <audit.log_dir>/` + queue.AuditFile + `.

The consumer reconnects to RabbitMQ with backoff and runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			log.Info("audit consumer starting",
				zap.String("queue", cfg.Events.Queue),
				zap.String("log_dir", cfg.Audit.LogDir))
			err = queue.NewConsumer(cfg.Events.URL, cfg.Events.Queue, cfg.Audit.LogDir, log).Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
