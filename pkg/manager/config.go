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

package manager

import (
	"fmt"
	"time"

	"github.com/carverauto/pumpsync/pkg/kv"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/remote"
	"github.com/carverauto/pumpsync/pkg/trigger"
)

const defaultSchedule = "@every 5m"

// ServiceConfig is the pumpsync daemon configuration.
type ServiceConfig struct {
	NATSURL  string                 `json:"nats_url" yaml:"nats_url"`
	Security *models.SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
	// TimeZone is an IANA zone name used for broadcast pump clocks.
	TimeZone string `json:"time_zone" yaml:"time_zone"`

	Features             FeatureConfig   `json:"features" yaml:"features"`
	TuneTolerance        models.Duration `json:"tune_tolerance" yaml:"tune_tolerance"`
	MaxConcurrentBridges int             `json:"max_concurrent_bridges" yaml:"max_concurrent_bridges"`
	// AutoConnect seeds the auto-connect set at startup.
	AutoConnect []string `json:"auto_connect,omitempty" yaml:"auto_connect,omitempty"`

	KV        kv.Config       `json:"kv" yaml:"kv"`
	Remote    remote.Config   `json:"remote" yaml:"remote"`
	PumpOps   PumpOpsConfig   `json:"pump_ops" yaml:"pump_ops"`
	Schedule  ScheduleConfig  `json:"schedule" yaml:"schedule"`
	Heartbeat HeartbeatConfig `json:"heartbeat" yaml:"heartbeat"`
	Status    StatusConfig    `json:"status_listener" yaml:"status_listener"`
	Cascade   CascadeConfig   `json:"cascade" yaml:"cascade"`
	Logging   *logger.Config  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

type FeatureConfig struct {
	UploadEnabled   bool `json:"upload_enabled" yaml:"upload_enabled"`
	FetchCGMEnabled bool `json:"fetch_cgm_enabled" yaml:"fetch_cgm_enabled"`
}

type PumpOpsConfig struct {
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
}

type ScheduleConfig struct {
	// Spec is a cron expression, a descriptor or a duration.
	Spec         string          `json:"spec" yaml:"spec"`
	CycleTimeout models.Duration `json:"cycle_timeout" yaml:"cycle_timeout"`
}

type HeartbeatConfig struct {
	Enabled     bool            `json:"enabled" yaml:"enabled"`
	Subject     string          `json:"subject" yaml:"subject"`
	MinInterval models.Duration `json:"min_interval" yaml:"min_interval"`
}

// StatusConfig controls the pump status listener, which is on by default.
type StatusConfig struct {
	Disabled bool   `json:"disabled" yaml:"disabled"`
	Subject  string `json:"subject" yaml:"subject"`
}

type CascadeConfig struct {
	InitialBackoff models.Duration `json:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     models.Duration `json:"max_backoff" yaml:"max_backoff"`
}

// Validate implements the config loader's Validator and fills defaults.
func (c *ServiceConfig) Validate() error {
	if c.NATSURL == "" {
		return errNATSURLRequired
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := c.AutoConnectBridges(); err != nil {
		return err
	}

	if c.MaxConcurrentBridges < 0 {
		return errNegativeParallel
	}

	if c.Schedule.Spec == "" {
		c.Schedule.Spec = defaultSchedule
	}

	if _, err := trigger.ParseSchedule(c.Schedule.Spec); err != nil {
		return fmt.Errorf("%w: %w", errInvalidSchedule, err)
	}

	if err := c.KV.Validate(); err != nil {
		return fmt.Errorf("kv: %w", err)
	}

	if err := c.Remote.Validate(); err != nil {
		return fmt.Errorf("remote: %w", err)
	}

	return nil
}

// Location resolves TimeZone. An empty zone yields nil.
func (c *ServiceConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return nil, nil
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", errInvalidTimeZone, c.TimeZone, err)
	}

	return loc, nil
}

// AutoConnectBridges parses AutoConnect.
func (c *ServiceConfig) AutoConnectBridges() ([]models.BridgeID, error) {
	bridges := make([]models.BridgeID, 0, len(c.AutoConnect))

	for _, raw := range c.AutoConnect {
		id, err := models.ParseBridgeID(raw)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", errInvalidBridgeID, raw, err)
		}

		bridges = append(bridges, id)
	}

	return bridges, nil
}
