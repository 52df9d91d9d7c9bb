package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pawprint-systems/pawfeed-core/internal/backup"
	"github.com/pawprint-systems/pawfeed-core/internal/feeder"
	"github.com/pawprint-systems/pawfeed-core/internal/hardware"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/mqtt"
)

// defaultManualPortionGrams is used when a feed command carries no portion.
const defaultManualPortionGrams = 50

// feedCommand is the payload of a remote feed trigger.
type feedCommand struct {
	PortionGrams float64 `json:"portion_grams"`
}

// registerCommands subscribes the remote command handlers.
//
// Feeder commands arrive on pawfeed/feeder/command/{action}; the supported
// actions are feed, tare and status. An on-demand backup can be triggered
// on the system maintenance topic.
func registerCommands(ctx context.Context, client *mqtt.Client, controller *feeder.Controller, scale *hardware.SimScale, store *backup.Store, sink *telemetrySink, qos byte, log *logging.Logger) error {
	log = log.With("component", "commands")
	topics := mqtt.Topics{}

	err := client.Subscribe(topics.AllFeederCommands(), qos, func(topic string, payload []byte) error {
		action := topic[strings.LastIndex(topic, "/")+1:]
		switch action {
		case "feed":
			command := feedCommand{PortionGrams: defaultManualPortionGrams}
			if len(payload) > 0 {
				if err := json.Unmarshal(payload, &command); err != nil {
					return fmt.Errorf("decoding feed command: %w", err)
				}
				if command.PortionGrams <= 0 {
					command.PortionGrams = defaultManualPortionGrams
				}
			}
			outcome := controller.RequestFeed(ctx, command.PortionGrams)
			log.Info("remote feed handled",
				"portion_grams", command.PortionGrams, "outcome", outcome.String())

		case "tare":
			if err := scale.Tare(ctx); err != nil {
				return fmt.Errorf("taring scale: %w", err)
			}
			log.Info("scale tared")

		case "status":
			sink.publishStatus(controller.Status())

		default:
			log.Warn("unknown feeder command", "action", action)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return client.Subscribe(topics.MaintenanceAction("backup"), qos, func(string, []byte) error {
		snap, err := store.CreateBackup(ctx)
		if err != nil {
			return fmt.Errorf("on-demand backup: %w", err)
		}
		log.Info("on-demand backup created", "name", snap.Name)
		return nil
	})
}
