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

package status

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

const sysfsPowerSupplyPath = "/sys/class/power_supply"

// ErrBatteryUnavailable is returned when the host exposes no battery.
var ErrBatteryUnavailable = errors.New("battery level unavailable")

// HostInfoSource names the machine running the uploader.
type HostInfoSource interface {
	HostName(ctx context.Context) (string, error)
}

// BatterySource reports the uploader's own battery charge.
type BatterySource interface {
	BatteryPercent(ctx context.Context) (int, error)
}

var hostInfoWithContext = host.InfoWithContext

// GopsutilHost reads the host name through gopsutil.
type GopsutilHost struct{}

func (GopsutilHost) HostName(ctx context.Context) (string, error) {
	info, err := hostInfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read host info: %w", err)
	}

	return info.Hostname, nil
}

// SysfsBattery reads the first "Battery" entry under /sys/class/power_supply.
type SysfsBattery struct {
	Root string
}

func (b SysfsBattery) BatteryPercent(ctx context.Context) (int, error) {
	root := b.Root
	if root == "" {
		root = sysfsPowerSupplyPath
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, ErrBatteryUnavailable
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		dir := filepath.Join(root, entry.Name())

		kind, err := os.ReadFile(filepath.Join(dir, "type"))
		if err != nil || strings.TrimSpace(string(kind)) != "Battery" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, "capacity"))
		if err != nil {
			continue
		}

		percent, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil || percent < 0 || percent > 100 {
			continue
		}

		return percent, nil
	}

	return 0, ErrBatteryUnavailable
}

// NoBattery is a BatterySource for hosts on mains power.
type NoBattery struct{}

func (NoBattery) BatteryPercent(context.Context) (int, error) { return 0, ErrBatteryUnavailable }
