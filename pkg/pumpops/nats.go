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

package pumpops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

const (
	DefaultSubjectPrefix = "pumpops"

	MethodOpen           = "open"
	MethodClose          = "close"
	MethodTuneRadio      = "tune_radio"
	MethodHistory        = "history"
	MethodGlucoseHistory = "glucose_history"

	defaultCloseTimeout = 5 * time.Second
)

// Request is the envelope sent for every pump-ops call.
type Request struct {
	SessionID string            `json:"session_id"`
	Bridge    models.BridgeID   `json:"bridge"`
	Label     string            `json:"label,omitempty"`
	Hint      *models.Frequency `json:"hint_mhz,omitempty"`
	Since     *time.Time        `json:"since,omitempty"`
}

// Response is the envelope returned by the pump-ops service.
type Response struct {
	OK    bool            `json:"ok"`
	Error *RemoteError    `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// HistoryData is the payload of a history response.
type HistoryData struct {
	Events    []models.HistoryEvent `json:"events"`
	PumpModel models.PumpModel      `json:"pump_model"`
}

// GlucoseData is the payload of a glucose history response.
type GlucoseData struct {
	Events []models.GlucoseEvent `json:"events"`
}

// NATSPumpOps reaches the pump-ops service over NATS request/reply on
// "<prefix>.<method>" subjects.
type NATSPumpOps struct {
	nc           *nats.Conn
	prefix       string
	closeTimeout time.Duration
	logger       logger.Logger
}

func NewNATSPumpOps(nc *nats.Conn, prefix string, log logger.Logger) (*NATSPumpOps, error) {
	if nc == nil {
		return nil, errNilConn
	}

	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &NATSPumpOps{
		nc:           nc,
		prefix:       prefix,
		closeTimeout: defaultCloseTimeout,
		logger:       log,
	}, nil
}

// Subject returns the subject a method is served on.
func (p *NATSPumpOps) Subject(method string) string {
	return p.prefix + "." + method
}

func (p *NATSPumpOps) RunSession(
	ctx context.Context, bridge models.BridgeID, label string, body func(ctx context.Context, s Session) error) error {
	s := &natsSession{
		ops:    p,
		id:     uuid.New().String(),
		bridge: bridge,
		label:  label,
	}

	if err := p.call(ctx, MethodOpen, s.request(), nil); err != nil {
		return fmt.Errorf("open session %q: %w", label, err)
	}

	defer func() {
		// the session must be released even when ctx is already done
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.closeTimeout)
		defer cancel()

		if err := p.call(closeCtx, MethodClose, s.request(), nil); err != nil {
			p.logger.Warn().Err(err).
				Str("bridge", string(bridge)).
				Str("session", s.id).
				Msg("Failed to close pump session")
		}
	}()

	return body(ctx, s)
}

func (p *NATSPumpOps) call(ctx context.Context, method string, req Request, out interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	msg, err := p.nc.RequestWithContext(ctx, p.Subject(method), payload)
	if err != nil {
		return classifyRequestError(method, err)
	}

	var resp Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return fmt.Errorf("%w: %s response: %w", ErrProtocol, method, err)
	}

	if !resp.OK {
		if resp.Error == nil {
			return fmt.Errorf("%w: %s failed without error detail", ErrProtocol, method)
		}

		return fmt.Errorf("%s: %w", method, resp.Error)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: %s payload: %w", ErrProtocol, method, err)
	}

	return nil
}

func classifyRequestError(method string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", method, err)
	case errors.Is(err, nats.ErrNoResponders):
		return fmt.Errorf("%w: %s: no pump-ops service: %w", ErrTransport, method, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}
}

type natsSession struct {
	ops    *NATSPumpOps
	id     string
	bridge models.BridgeID
	label  string
}

func (s *natsSession) request() Request {
	return Request{SessionID: s.id, Bridge: s.bridge, Label: s.label}
}

func (s *natsSession) TuneRadio(ctx context.Context, hint *models.Frequency) (TuneOutcome, error) {
	req := s.request()
	req.Hint = hint

	var outcome TuneOutcome
	if err := s.ops.call(ctx, MethodTuneRadio, req, &outcome); err != nil {
		return TuneOutcome{}, err
	}

	if outcome.BestFrequency <= 0 {
		return TuneOutcome{}, fmt.Errorf("%w: %s returned frequency %v", ErrProtocol, MethodTuneRadio, outcome.BestFrequency)
	}

	return outcome, nil
}

func (s *natsSession) GetHistoryEvents(ctx context.Context, since time.Time) ([]models.HistoryEvent, models.PumpModel, error) {
	req := s.request()
	req.Since = &since

	var data HistoryData
	if err := s.ops.call(ctx, MethodHistory, req, &data); err != nil {
		return nil, "", err
	}

	return data.Events, data.PumpModel, nil
}

func (s *natsSession) GetGlucoseHistoryEvents(ctx context.Context, since time.Time) ([]models.GlucoseEvent, error) {
	req := s.request()
	req.Since = &since

	var data GlucoseData
	if err := s.ops.call(ctx, MethodGlucoseHistory, req, &data); err != nil {
		return nil, err
	}

	return data.Events, nil
}

var _ PumpOps = (*NATSPumpOps)(nil)
