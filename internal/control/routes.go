package control

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shroombox/boxtop/internal/api"
)

// APIConfirmer routes control names to backend endpoints:
//
//	phase                      POST /api/phase
//	system                     POST /api/system/control
//	humidifier.<field>         POST /api/settings (humidifier section)
//	pid.<field>                POST /api/settings (pid section)
//	environment.<phase>.<field> POST /api/settings (phase setpoints)
func APIConfirmer(client *api.Client) Confirmer {
	return func(ctx context.Context, name, value string) error {
		switch {
		case name == ControlPhase:
			return client.SetPhase(ctx, value)

		case name == ControlSystem:
			if value != "start" && value != "stop" {
				return fmt.Errorf("invalid system action %q", value)
			}
			return client.SystemControl(ctx, value)

		case strings.HasPrefix(name, "humidifier."):
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("humidifier value %q is not numeric: %w", value, err)
			}
			field := strings.TrimPrefix(name, "humidifier.")
			return client.UpdateSettings(ctx, api.SettingsPatch{
				Humidifier: map[string]any{field: n},
			})

		case strings.HasPrefix(name, "pid."):
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("pid value %q is not numeric: %w", value, err)
			}
			field := strings.TrimPrefix(name, "pid.")
			return client.UpdateSettings(ctx, api.SettingsPatch{
				PID: map[string]any{field: n},
			})

		case strings.HasPrefix(name, "environment."):
			rest := strings.TrimPrefix(name, "environment.")
			phase, field, ok := strings.Cut(rest, ".")
			if !ok {
				return fmt.Errorf("malformed environment control %q", name)
			}
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("setpoint value %q is not numeric: %w", value, err)
			}
			return client.UpdateSettings(ctx, api.SettingsPatch{
				Environment: map[string]any{
					"phases": map[string]any{phase: map[string]any{field: n}},
				},
			})

		default:
			return fmt.Errorf("unknown control %q", name)
		}
	}
}
