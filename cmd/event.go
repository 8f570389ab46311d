package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/internal/search"
	"github.com/jmfitness/studio-management/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish studio events by hand, e.g. to repair the student search index.`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a student event to the search index",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeStudentUpserted, events.EventTypeStudentRemoved},
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishStudentEvent(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var eventStudent struct {
	userID string
	name   string
	email  string
	cpf    string
}

func publishStudentEvent(eventType string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	index := search.Connect(cfg.Search)
	if index == nil {
		return fmt.Errorf("meilisearch is not configured")
	}
	if eventStudent.userID == "" {
		return fmt.Errorf("--user-id is required")
	}

	bus := events.NewEventBus(lg)
	index.Subscribe(bus)

	var event events.Event
	switch eventType {
	case events.EventTypeStudentUpserted:
		event = events.NewStudentUpsertedEvent(eventStudent.userID, eventStudent.name, eventStudent.email, eventStudent.cpf)
	case events.EventTypeStudentRemoved:
		event = events.NewStudentRemovedEvent(eventStudent.userID)
	default:
		return fmt.Errorf("unsupported event type %q", eventType)
	}

	lg.Info("publishing event", "event_type", eventType, "event_id", event.EventID())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	lg.Info("event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventStudent.userID, "user-id", "", "student user id")
	publishEventCmd.Flags().StringVar(&eventStudent.name, "name", "", "student name")
	publishEventCmd.Flags().StringVar(&eventStudent.email, "email", "", "student e-mail")
	publishEventCmd.Flags().StringVar(&eventStudent.cpf, "cpf", "", "student CPF")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
