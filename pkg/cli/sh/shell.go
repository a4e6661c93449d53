// Package sh provides the interactive diagnostic shell of the meter.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/meter.go/pkg/bus"
	"github.com/robotalks/meter.go/pkg/env"
	fx "github.com/robotalks/meter.go/pkg/framework"
	"github.com/robotalks/meter.go/pkg/meter"
	"github.com/robotalks/meter.go/pkg/platform"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell    *ishell.Shell
	Config   *env.Config
	Hardware *platform.Hardware
	Meter    *meter.Meter
}

const (
	shellKey       = "$shell"
	closedPrompt   = "[closed] > "
	openedPromptFn = "%s > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MeterFrom gets the opened Meter from ishell context.
func MeterFrom(c *ishell.Context) *meter.Meter {
	return ShellFrom(c).Meter
}

// MustBeOpened wraps command func requires opened hardware.
func MustBeOpened(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Meter == nil {
			c.Err(fmt.Errorf("hardware not opened"))
			return
		}
		fn(c)
	}
}

// PrintResult prints v in JSON or with the text form.
func PrintResult(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the hardware in Config, closing the previous one.
func (s *Shell) Open() error {
	s.Close()
	hw, err := platform.Open(s.Config.I2CBus, s.Config.PowerPin)
	if err != nil {
		return err
	}
	s.Hardware = hw
	s.Meter = meter.New(bus.NewI2C(hw.Bus), hw.Rail, fx.SystemClock)
	s.Meter.Mapping = s.Config.Mapping
	s.Shell.SetPrompt(fmt.Sprintf(openedPromptFn, hw.Bus))
	return nil
}

// Close releases the hardware. The power rail is left as is.
func (s *Shell) Close() {
	if s.Hardware != nil {
		s.Hardware.Close()
		s.Hardware, s.Meter = nil, nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen {
		if err := s.Open(); err != nil {
			log.Fatalf("open hardware failed: %v", err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens the hardware.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[I2C_BUS [POWER_PIN]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.I2CBus = c.Args[0]
			}
			if len(c.Args) > 1 {
				s.Config.PowerPin = c.Args[1]
			}
			if err := s.Open(); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the hardware.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
