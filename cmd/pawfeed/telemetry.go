package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/events"
	"github.com/pawprint-systems/pawfeed-core/internal/feeder"
	"github.com/pawprint-systems/pawfeed-core/internal/health"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/influxdb"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/mqtt"
)

// telemetrySink fans feeder activity out to the event log and, when the
// optional clients are wired, to MQTT and InfluxDB.
//
// Persistence failures are returned to the caller; telemetry failures are
// logged and dropped so a broker outage never blocks a feed.
type telemetrySink struct {
	repo   *events.SQLiteRepository
	mqtt   *mqtt.Client
	influx *influxdb.Client
	topics mqtt.Topics
	qos    byte
	status func() feeder.Status
	log    *logging.Logger
}

func newTelemetrySink(repo *events.SQLiteRepository, mqttClient *mqtt.Client, influxClient *influxdb.Client, qos byte, log *logging.Logger) *telemetrySink {
	return &telemetrySink{
		repo:   repo,
		mqtt:   mqttClient,
		influx: influxClient,
		qos:    qos,
		log:    log.With("component", "telemetry"),
	}
}

// bindStatus wires the controller's status snapshot in after construction.
// The sink is created before the controller because the controller consumes
// it; call this before any loop starts.
func (s *telemetrySink) bindStatus(status func() feeder.Status) {
	s.status = status
}

// RecordEvent implements feeder.EventSink.
func (s *telemetrySink) RecordEvent(ctx context.Context, kind string, payload map[string]any) error {
	if err := s.repo.AppendEvent(ctx, kind, payload); err != nil {
		return err
	}
	s.publishEvent(kind, payload)
	return nil
}

// RecordFeeding implements feeder.EventSink.
func (s *telemetrySink) RecordFeeding(ctx context.Context, portionGrams, catWeightKg float64, dailyCount int) error {
	record := &events.FeedingRecord{
		PortionGrams: portionGrams,
		CatWeightKg:  catWeightKg,
		DailyCount:   dailyCount,
	}
	if err := s.repo.AppendFeeding(ctx, record); err != nil {
		return err
	}

	s.publishEvent(events.KindFeedingDispensed, map[string]any{
		"portion_grams": portionGrams,
		"cat_weight_kg": catWeightKg,
		"daily_count":   dailyCount,
	})
	if s.influx != nil {
		s.influx.WriteFeeding(portionGrams, dailyCount, catWeightKg)
	}
	return nil
}

// RecordWeight implements feeder.EventSink.
func (s *telemetrySink) RecordWeight(ctx context.Context, weightKg float64) error {
	if err := s.repo.AppendWeight(ctx, weightKg); err != nil {
		return err
	}

	present := false
	if s.status != nil {
		present = s.status().Presence == feeder.Present
	}
	if s.mqtt != nil && s.mqtt.IsConnected() {
		body, err := json.Marshal(map[string]any{
			"weight_kg": weightKg,
			"present":   present,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err == nil {
			if err := s.mqtt.Publish(s.topics.FeederWeight(), body, s.qos, false); err != nil {
				s.log.Warn("publishing weight failed", "error", err)
			}
		}
	}
	if s.influx != nil {
		s.influx.WriteWeightSample(weightKg, present)
	}
	return nil
}

// publishEvent sends an event to its feeder topic. No-op when MQTT is
// absent or offline.
func (s *telemetrySink) publishEvent(kind string, payload map[string]any) {
	if s.mqtt == nil || !s.mqtt.IsConnected() {
		return
	}

	body := map[string]any{
		"type":      kind,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		s.log.Warn("encoding event failed", "kind", kind, "error", err)
		return
	}
	if err := s.mqtt.Publish(s.topics.FeederEvent(kind), data, s.qos, false); err != nil {
		s.log.Warn("publishing event failed", "kind", kind, "error", err)
	}
}

// publishAlert forwards a health alert to its MQTT topic.
func (s *telemetrySink) publishAlert(alert health.Alert) {
	if s.mqtt == nil || !s.mqtt.IsConnected() {
		return
	}

	data, err := json.Marshal(alert)
	if err != nil {
		s.log.Warn("encoding alert failed", "error", err)
		return
	}
	if err := s.mqtt.Publish(s.topics.HealthAlert(alert.Kind), data, s.qos, false); err != nil {
		s.log.Warn("publishing alert failed", "kind", alert.Kind, "error", err)
	}
}

// publishStatus refreshes the retained feeder status topic.
func (s *telemetrySink) publishStatus(status feeder.Status) {
	if s.mqtt == nil || !s.mqtt.IsConnected() {
		return
	}

	data, err := json.Marshal(status)
	if err != nil {
		s.log.Warn("encoding status failed", "error", err)
		return
	}
	if err := s.mqtt.PublishRetained(s.topics.FeederStatus(), data); err != nil {
		s.log.Warn("publishing status failed", "error", err)
	}
}
