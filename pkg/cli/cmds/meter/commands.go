// Package meter provides shell commands driving the meter peripherals.
package meter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/meter.go/pkg/cli/sh"
	"github.com/robotalks/meter.go/pkg/gauge"
	"github.com/robotalks/meter.go/pkg/matrix"
)

var (
	// PowerCmd switches the peripheral rail.
	PowerCmd = ishell.Cmd{
		Name:    "power",
		Aliases: []string{"pwr"},
		Help:    "[on|off]",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			m := sh.MeterFrom(c)
			if len(c.Args) == 0 {
				sh.PrintResult(c, map[string]bool{"powered": m.Power.Powered()}, onOff(m.Power.Powered()))
				return
			}
			on, err := parseOnOff(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if on {
				err = m.Power.On(context.Background())
			} else {
				err = m.Power.Off(context.Background())
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// RecoverCmd power-cycles the peripherals.
	RecoverCmd = ishell.Cmd{
		Name: "recover",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.MeterFrom(c).Power.Recover(context.Background())
			c.Println("OK")
		}),
	}

	// MatrixCmd shows text on a row.
	MatrixCmd = ishell.Cmd{
		Name:    "matrix",
		Aliases: []string{"mx"},
		Help:    "a|b TEXT...",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("row expected"))
				return
			}
			m := sh.MeterFrom(c)
			ch, ok := m.Channel(c.Args[0])
			if !ok {
				c.Err(fmt.Errorf("unknown row %q", c.Args[0]))
				return
			}
			if !m.Framer.Display(context.Background(), strings.Join(c.Args[1:], " "), ch) {
				c.Err(fmt.Errorf("not committed"))
				return
			}
			c.Println("OK")
		}),
	}

	// GaugeCmd moves both gauges to step positions.
	GaugeCmd = ishell.Cmd{
		Name:    "gauge",
		Aliases: []string{"g"},
		Help:    "POS_A POS_B",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("two positions expected"))
				return
			}
			for _, pos := range c.Args {
				if !gauge.ValidPosition(pos) {
					c.Err(fmt.Errorf("%w: %q", gauge.ErrInvalidPosition, pos))
					return
				}
			}
			if !sh.MeterFrom(c).Gauge.SetPositions(context.Background(), c.Args[0], c.Args[1]) {
				c.Err(fmt.Errorf("dropped, retry later"))
				return
			}
			c.Println("OK")
		}),
	}

	// RatioCmd moves both gauges to mapped ratios.
	RatioCmd = ishell.Cmd{
		Name:    "ratio",
		Aliases: []string{"r"},
		Help:    "RATIO_A RATIO_B",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("two ratios expected"))
				return
			}
			a, err := parseRatio(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			b, err := parseRatio(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			if !sh.MeterFrom(c).ShowRatios(context.Background(), a, b) {
				c.Err(fmt.Errorf("dropped, retry later"))
				return
			}
			c.Println("OK")
		}),
	}

	// ZeroCmd parks both gauges.
	ZeroCmd = ishell.Cmd{
		Name: "zero",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if !sh.MeterFrom(c).Gauge.Zero(context.Background()) {
				c.Err(fmt.Errorf("dropped, retry later"))
				return
			}
			c.Println("OK")
		}),
	}

	// FramesCmd prints the transfers of a message without sending.
	FramesCmd = ishell.Cmd{
		Name: "frames",
		Help: "TEXT...",
		Func: func(c *ishell.Context) {
			frames := FormatFrames(strings.Join(c.Args, " "), matrix.SelectorTop)
			sh.PrintResult(c, frames, strings.Join(frames, "\n"))
		},
	}

	// FaultsCmd prints fault statistics.
	FaultsCmd = ishell.Cmd{
		Name:    "faults",
		Aliases: []string{"f"},
		Help:    "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sup := sh.MeterFrom(c).Supervisor
			stats, state := sup.Stats(), sup.State()
			sh.PrintResult(c, map[string]interface{}{
				"faults":     stats.Faults,
				"recoveries": stats.Recoveries,
				"skipped":    stats.Skipped,
				"burst":      state.Count,
				"last_fault": state.LastFault,
			}, fmt.Sprintf("faults %d, recoveries %d, skipped %d, burst %d (last %s)",
				stats.Faults, stats.Recoveries, stats.Skipped, state.Count, state.LastFault.Format("15:04:05.000")))
		}),
	}
)

func init() {
	sh.AddCmds(
		&PowerCmd,
		&RecoverCmd,
		&MatrixCmd,
		&GaugeCmd,
		&RatioCmd,
		&ZeroCmd,
		&FramesCmd,
		&FaultsCmd,
	)
}

// FormatFrames lists the transfers of text, one per line.
func FormatFrames(text string, selector byte) []string {
	frames := matrix.Chunks(matrix.Encode(text), selector)
	lines := make([]string, len(frames))
	for n, frame := range frames {
		lines[n] = fmt.Sprintf("#%d %s", n, frame)
	}
	return lines
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("on or off expected: %q", s)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func parseRatio(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("ratio in [0, 1] expected: %q", s)
	}
	return v, nil
}
