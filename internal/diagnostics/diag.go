// Package diagnostics reviews a configuration for settings that load fine
// but will misbehave on the hardware.
package diagnostics

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-capgame/internal/config"
	"github.com/coreman2200/funtimes-capgame/internal/strip"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// minResetUs is the WS2812 reset latch.
const minResetUs = 50

// Check returns findings for c.
func Check(c *config.Config) []Diagnostic {
	var out []Diagnostic

	if c.Strip.Driver == config.DriverNRZ {
		codes := strip.Codes{High: c.Strip.HighCode, Low: c.Strip.LowCode}
		tm := strip.CheckTiming(codes, c.Strip.SpeedHz)
		if !tm.HighOK() || !tm.LowOK() {
			out = append(out, Diagnostic{
				Severity: Err,
				Code:     "STRIP.TIMING",
				Summary:  "symbol pulse widths fall outside the LED timing windows",
				SuggestedFixes: []string{
					"pick strip.speed_hz so high_code spans 550-850 ns and low_code 200-500 ns",
				},
				Evidence: map[string]any{
					"speed_hz": c.Strip.SpeedHz,
					"high_ns":  tm.HighNs,
					"low_ns":   tm.LowNs,
				},
			})
		}
		if c.Strip.ResetUs < minResetUs {
			out = append(out, Diagnostic{
				Severity:       Warn,
				Code:           "STRIP.RESET",
				Summary:        "latch time shorter than the strip reset",
				SuggestedFixes: []string{"set strip.reset_us to at least 50"},
				Evidence:       map[string]any{"reset_us": c.Strip.ResetUs},
			})
		}
	}

	// rx time peaks at cycle_ticks for a pad that never returns.
	if uint16(c.Touch.PressThreshold) >= c.Touch.CycleTicks {
		out = append(out, Diagnostic{
			Severity: Err,
			Code:     "TOUCH.THRESHOLD",
			Summary:  "press threshold can never be exceeded within one sense cycle",
			Evidence: map[string]any{
				"press_threshold": c.Touch.PressThreshold,
				"cycle_ticks":     c.Touch.CycleTicks,
			},
		})
	}

	if peak := strip.PeakMA(c.NumLEDs(), c.Strip.Brightness); c.Strip.BudgetMA > 0 && peak > float64(c.Strip.BudgetMA) {
		out = append(out, Diagnostic{
			Severity: Warn,
			Code:     "STRIP.POWER",
			Summary:  "worst case frame draws more than the supply budget",
			SuggestedFixes: []string{
				"lower strip.brightness",
				"raise strip.budget_ma if the supply allows",
			},
			Evidence: map[string]any{
				"peak_ma":   int(peak),
				"budget_ma": c.Strip.BudgetMA,
			},
		})
	}

	if c.Strip.Driver == config.DriverSim {
		out = append(out, Diagnostic{Severity: Info, Code: "STRIP.SIM", Summary: "strip output is simulated"})
	}
	if v := strip.Expand(strip.Yellow, c.Strip.Brightness); v.R == 0xFF {
		out = append(out, Diagnostic{
			Severity: Info,
			Code:     "STRIP.BRIGHTNESS",
			Summary:  "brightness saturates the brightest palette entries",
			Evidence: map[string]any{"brightness": c.Strip.Brightness},
		})
	}
	return out
}

// Log writes each finding at a level matching its severity.
func Log(log zerolog.Logger, diags []Diagnostic) {
	for _, d := range diags {
		var e *zerolog.Event
		switch d.Severity {
		case Err:
			e = log.Error()
		case Warn:
			e = log.Warn()
		default:
			e = log.Info()
		}
		e = e.Str("code", d.Code)
		for k, v := range d.Evidence {
			e = e.Interface(k, v)
		}
		for _, f := range d.SuggestedFixes {
			e = e.Str("fix", f)
		}
		e.Msg(d.Summary)
	}
}
