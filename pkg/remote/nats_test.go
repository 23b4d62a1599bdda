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
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

func runJetStreamServer(t *testing.T) *nats.Conn {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	t.Cleanup(nc.Close)

	return nc
}

func streamMessages(t *testing.T, nc *nats.Conn, stream string) uint64 {
	t.Helper()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	s, err := js.Stream(context.Background(), stream)
	require.NoError(t, err)

	info, err := s.Info(context.Background())
	require.NoError(t, err)

	return info.State.Msgs
}

func TestNATSClientPumpEventsDeduplicated(t *testing.T) {
	nc := runJetStreamServer(t)
	ctx := context.Background()

	client, err := NewNATSClient(ctx, nc, NATSConfig{}, logger.NewTestLogger())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.HistoryEvent{
		{Timestamp: base, Type: "bolus"},
		{Timestamp: base.Add(time.Minute), Type: "temp_basal"},
	}

	require.NoError(t, client.ProcessPumpEvents(ctx, events, "rileylink://kitchen", "723"))
	require.NoError(t, client.ProcessPumpEvents(ctx, events, "rileylink://kitchen", "723"))
	assert.Equal(t, uint64(1), streamMessages(t, nc, defaultStream))

	require.NoError(t, client.ProcessPumpEvents(ctx, events[:1], "rileylink://kitchen", "723"))
	assert.Equal(t, uint64(2), streamMessages(t, nc, defaultStream))

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	msg, err := js.GetLastMsgForStream(ctx, defaultStream, "pumpsync.pump_events")
	require.NoError(t, err)

	var event struct {
		Type string                `json:"type"`
		Data models.PumpEventBatch `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "com.carverauto.pumpsync.pump_events", event.Type)
	assert.Equal(t, models.PumpModel("723"), event.Data.PumpModel)
	assert.Len(t, event.Data.Events, 1)
}

func TestNATSClientGlucoseReturnsLatest(t *testing.T) {
	nc := runJetStreamServer(t)
	ctx := context.Background()

	client, err := NewNATSClient(ctx, nc, NATSConfig{Stream: "CGM", SubjectPrefix: "cgm"}, logger.NewTestLogger())
	require.NoError(t, err)

	latest, err := client.ProcessGlucoseEvents(ctx, nil, "rileylink://kitchen")
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.GlucoseEvent{
		{Timestamp: base.Add(5 * time.Minute), Type: "sgv"},
		{Timestamp: base, Type: "sgv"},
	}

	latest, err = client.ProcessGlucoseEvents(ctx, events, "rileylink://kitchen")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, base.Add(5*time.Minute).Equal(*latest))
	assert.Equal(t, uint64(1), streamMessages(t, nc, "CGM"))
}

func TestNATSClientUploadDeviceStatus(t *testing.T) {
	nc := runJetStreamServer(t)
	ctx := context.Background()

	client, err := NewNATSClient(ctx, nc, NATSConfig{}, logger.NewTestLogger())
	require.NoError(t, err)

	status := models.DeviceStatus{
		Device:    "rileylink://kitchen",
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, client.UploadDeviceStatus(ctx, status))
	assert.Equal(t, uint64(1), streamMessages(t, nc, defaultStream))
}

func TestBatchIDIsStable(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	keys := []models.EventKey{{Timestamp: base, Type: "bolus"}}

	a := batchID(pumpEventsSubject, "rileylink://kitchen", keys)
	b := batchID(pumpEventsSubject, "rileylink://kitchen", []models.EventKey{{Timestamp: base.In(time.FixedZone("X", 3600)), Type: "bolus"}})
	c := batchID(pumpEventsSubject, "rileylink://bedroom", keys)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNewNATSClientRequiresConn(t *testing.T) {
	_, err := NewNATSClient(context.Background(), nil, NATSConfig{}, logger.NewTestLogger())
	require.ErrorIs(t, err, errNATSConnRequired)
}
