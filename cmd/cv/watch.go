package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/confvault/internal/config"
	"github.com/alfredjeanlab/confvault/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print change events as they are published",
	GroupID: "store",
	Args:    cobra.NoArgs,
	// Watching needs only the event bus, not the store.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		if cfg.NATSURL == "" {
			return fmt.Errorf("CONFVAULT_NATS_URL is not set")
		}
		topic, _ := cmd.Flags().GetString("topic")

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats reconnected; events published meanwhile were missed")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()
		logger.Debug("watching", "topic", topic, "nats_url", cfg.NATSURL)

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				if err := printEvent(out, msg); err != nil {
					logger.Warn("skipping event", "topic", msg.Topic, "err", err)
				}
			}
		}
	},
}

// printEvent writes one event as a JSON line with --json, otherwise as a
// short human readable line.
func printEvent(w io.Writer, msg events.Message) error {
	ev, err := events.Decode(msg)
	if err != nil {
		return err
	}
	if jsonOutput {
		_, err := fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", msg.Topic, msg.Data)
		return err
	}

	ts := time.Now().Format("15:04:05")
	var line string
	switch e := ev.(type) {
	case *events.EntitySaved:
		line = fmt.Sprintf("saved %s %s v%d by %s", e.Kind, e.ID, e.Version, e.Actor)
		if e.ChangeDescription != "" {
			line += ": " + e.ChangeDescription
		}
	case *events.EntityDeleted:
		line = fmt.Sprintf("deleted %s %s by %s", e.Kind, e.ID, e.Actor)
	case *events.EntityRolledBack:
		line = fmt.Sprintf("rolled back %s %s to v%d (now v%d) by %s", e.Kind, e.ID, e.TargetVersion, e.Version, e.Actor)
	case *events.StoreRestored:
		line = fmt.Sprintf("store restored from %s by %s", e.Source, e.Actor)
	case *events.TestResultRecorded:
		if e.Result == nil {
			return fmt.Errorf("event without result")
		}
		line = fmt.Sprintf("test %s on %s %s: %s", e.Result.ID, e.Result.EntityType, e.Result.EntityID, e.Result.Status)
	default:
		slog.Debug("unhandled event", "topic", msg.Topic)
		return nil
	}
	_, err = fmt.Fprintf(w, "[%s] %s\n", ts, line)
	return err
}

func init() {
	watchCmd.Flags().String("topic", events.TopicAll, "NATS subject to watch")
}
