/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/natsutil"
)

const (
	defaultStream        = "PUMPSYNC"
	defaultSubjectPrefix = "pumpsync"
	eventTypePrefix      = "com.carverauto.pumpsync."

	pumpEventsSubject    = "pump_events"
	glucoseEventsSubject = "glucose_events"
	deviceStatusSubject  = "device_status"
)

// NATSClient publishes synchronized data as CloudEvents on JetStream. A
// batch counts as accepted once the stream acknowledges it.
type NATSClient struct {
	publisher *natsutil.EventPublisher
	prefix    string
	logger    logger.Logger
}

var _ Client = (*NATSClient)(nil)

// NewNATSClient ensures the event stream exists and returns a client bound to it.
func NewNATSClient(ctx context.Context, nc *nats.Conn, cfg NATSConfig, log logger.Logger) (*NATSClient, error) {
	if nc == nil {
		return nil, errNATSConnRequired
	}

	stream := cfg.Stream
	if stream == "" {
		stream = defaultStream
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}

	publisher, err := natsutil.CreateEventPublisher(ctx, nc, stream, []string{prefix + ".>"}, log)
	if err != nil {
		return nil, err
	}

	return &NATSClient{publisher: publisher, prefix: prefix, logger: log}, nil
}

func (c *NATSClient) subject(name string) string {
	return c.prefix + "." + name
}

func (c *NATSClient) ProcessPumpEvents(
	ctx context.Context, events []models.HistoryEvent, source string, model models.PumpModel,
) error {
	if len(events) == 0 {
		return nil
	}

	keys := make([]models.EventKey, len(events))
	for i := range events {
		keys[i] = events[i].Key()
	}

	batch := models.PumpEventBatch{Source: source, PumpModel: model, Events: events}

	ack, err := c.publisher.Publish(ctx, c.subject(pumpEventsSubject), eventTypePrefix+pumpEventsSubject,
		source, batch, batchID(pumpEventsSubject, source, keys))
	if err != nil {
		return err
	}

	c.logger.Debug().
		Str("source", source).
		Int("events", len(events)).
		Uint64("seq", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("Published pump events")

	return nil
}

func (c *NATSClient) ProcessGlucoseEvents(
	ctx context.Context, events []models.GlucoseEvent, source string,
) (*time.Time, error) {
	if len(events) == 0 {
		return nil, nil
	}

	keys := make([]models.EventKey, len(events))
	for i := range events {
		keys[i] = events[i].Key()
	}

	batch := models.GlucoseEventBatch{Source: source, Events: events}

	ack, err := c.publisher.Publish(ctx, c.subject(glucoseEventsSubject), eventTypePrefix+glucoseEventsSubject,
		source, batch, batchID(glucoseEventsSubject, source, keys))
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("source", source).
		Int("events", len(events)).
		Uint64("seq", ack.Sequence).
		Msg("Published glucose events")

	return models.LatestGlucoseTimestamp(events), nil
}

func (c *NATSClient) UploadDeviceStatus(ctx context.Context, status models.DeviceStatus) error {
	msgID := fmt.Sprintf("%s:%s@%s", deviceStatusSubject, status.Device, status.Timestamp.UTC().Format(time.RFC3339Nano))

	_, err := c.publisher.Publish(ctx, c.subject(deviceStatusSubject), eventTypePrefix+deviceStatusSubject,
		status.Device, status, msgID)

	return err
}

// batchID derives a stable JetStream message ID from the batch contents so a
// batch re-sent after a lost ack is stored once.
func batchID(kind, source string, keys []models.EventKey) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s\x00%s", kind, source)

	for _, k := range keys {
		fmt.Fprintf(h, "\x00%d\x00%s", k.Timestamp.UnixNano(), k.Type)
	}

	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
