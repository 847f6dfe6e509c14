package main

import (
	"strconv"
	"time"

	"github.com/abiosoft/ishell/v2"
	"github.com/spf13/cobra"
	"xwkbot/calibration"
	"xwkbot/robot"
	"xwkbot/twowheeled"
)

const beepDuration = 200 * time.Millisecond

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive development shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				shell := newShell(rb)
				shell.Run()
				return nil
			})
		},
	}
}

func newShell(rb *robot.Robot) *ishell.Shell {
	shell := ishell.New()
	shell.Println("XWK-Bot development shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "drive",
		Help: "drive <left> <right>, e.g. drive f40 f40",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Println(c.Cmd.Help)
				return
			}
			left, err := twowheeled.ParseCommand(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			right, err := twowheeled.ParseCommand(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			if err := rb.Controller.Drive(left, right); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "stop both motors",
		Func: func(c *ishell.Context) {
			if err := rb.Controller.Stop(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "trim",
		Help: "trim [value], set without saving",
		Func: func(c *ishell.Context) {
			if len(c.Args) >= 1 {
				value, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				rb.Settings.SetTrim(value)
			}
			c.Printf("Alignment: %+d\n", rb.Settings.Trim)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "save",
		Help: "save the current trim to config.ini",
		Func: func(c *ishell.Context) {
			rb.Config.Set(calibration.CONFIG_KEY, rb.Settings.Trim)
			if err := rb.Config.Save(); err != nil {
				c.Err(err)
				return
			}
			c.Println("Saved in", rb.Config.Path())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "config",
		Help: "config [key], print config.ini values",
		Func: func(c *ishell.Context) {
			keys := c.Args
			if len(keys) == 0 {
				keys = rb.Config.Keys()
			}
			for _, key := range keys {
				c.Printf("%s=%s\n", key, rb.Config.GetString(key, "<unset>"))
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "voltage",
		Help: "read the battery voltage",
		Func: func(c *ishell.Context) {
			v, err := rb.Battery.ReadVoltage()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%.2fV\n", v)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "distance",
		Help: "read the ultrasonic sensor",
		Func: func(c *ishell.Context) {
			cm, ok := rb.Ranger.Distance()
			if !ok {
				c.Println("no reading")
				return
			}
			c.Printf("%d cm\n", cm)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "beep",
		Help: "beep <hz>",
		Func: func(c *ishell.Context) {
			freq := 1000
			if len(c.Args) >= 1 {
				if v, err := strconv.Atoi(c.Args[0]); err == nil {
					freq = v
				}
			}
			if err := rb.Beeper.Beep(freq, beepDuration); err != nil {
				c.Err(err)
			}
		},
	})
	return shell
}
