package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"xwkbot/battery"
	"xwkbot/calibration"
	"xwkbot/input"
	"xwkbot/linefollow"
	"xwkbot/robot"
	"xwkbot/selftest"
	"xwkbot/settings"
	"xwkbot/twowheeled"
)

var env *settings.Env

func main() {
	var err error
	env, err = settings.Parse()
	if err != nil {
		log.Fatal("Could not parse environment: ", err)
	}
	env.Apply()

	root := &cobra.Command{
		Use:           "botctl",
		Short:         "Operate the two wheeled robot from its own console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env.CONFIG_FILE, "config", env.CONFIG_FILE, "config.ini path")
	root.PersistentFlags().StringVar(&env.BOARD_FILE, "board", env.BOARD_FILE, "board profile path")
	root.AddCommand(
		voltageCmd(),
		driveCmd(),
		stopCmd(),
		trimCmd(),
		alignCmd(),
		selftestCmd(),
		linefollowCmd(),
		distanceCmd(),
		shellCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// withRobot opens the robot for the duration of fn and always leaves the motors stopped.
func withRobot(fn func(*robot.Robot) error) error {
	rb, err := robot.Open(env)
	if err != nil {
		return err
	}
	defer func() {
		if err := rb.Close(); err != nil {
			log.Print("Could not release robot: ", err)
		}
	}()
	return fn(rb)
}

func voltageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voltage",
		Short: "Read the battery voltage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				status := battery.NewMonitor(rb.Battery).Sample()
				if status.Error != "" {
					return fmt.Errorf("battery: %s", status.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%.2fV %s (%.0f%%)\n", status.Voltage, status.Level, status.Percent)
				_, err := battery.Warn(rb.Battery, rb.Display, rb.Beeper, time.Sleep)
				return err
			})
		},
	}
}

func driveCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "drive <left> <right>",
		Short: "Drive both wheels for a while, e.g. drive f50 b50",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := twowheeled.ParseCommand(args[0])
			if err != nil {
				return err
			}
			right, err := twowheeled.ParseCommand(args[1])
			if err != nil {
				return err
			}
			return withRobot(func(rb *robot.Robot) error {
				if err := rb.Controller.Drive(left, right); err != nil {
					return err
				}
				select {
				case <-cmd.Context().Done():
				case <-time.After(duration):
				}
				return rb.Controller.Stop()
			})
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", time.Second, "how long to drive")
	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop both motors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				return rb.Controller.Stop()
			})
		},
	}
}

func trimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trim [value]",
		Short: "Show or store the motor alignment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				if len(args) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Alignment: %+d\n", rb.Settings.Trim)
					return nil
				}
				value, err := strconv.Atoi(args[0])
				if err != nil {
					return err
				}
				trim := rb.Settings.SetTrim(value)
				rb.Config.Set(calibration.CONFIG_KEY, trim)
				if err := rb.Config.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Alignment: %+d\n", trim)
				return nil
			})
		},
	}
}

func alignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "align",
		Short: "Calibrate the motor alignment with the buttons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				loop := calibration.New(rb.Controller, rb.Poller, rb.Config, rb.Display, rb.Beeper)
				result, err := loop.Run(cmd.Context())
				if err != nil {
					return err
				}
				reportAlignment(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

// reportAlignment prints the calibrated trim. A failed save keeps the trim for this run only.
func reportAlignment(w io.Writer, result calibration.Result) {
	fmt.Fprintf(w, "Alignment: %+d\n", result.Trim)
	if result.SaveErr != nil {
		log.WithError(result.SaveErr).Print("Could not save alignment")
		fmt.Fprintln(w, "Alignment not saved")
	}
}

func selftestCmd() *cobra.Command {
	var buttons bool
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Exercise every sensor, motor and the beeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				runner := selftest.New(rb.Controller, rb.Ranger, rb.Poller, rb.Display, rb.Beeper)
				if buttons {
					runner.Buttons = []input.Name{input.ButtonUp, input.ButtonDown, input.ButtonLeft, input.ButtonRight, input.ButtonA}
				}
				report, err := runner.Run(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", report)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&buttons, "buttons", false, "also wait for every button to be pressed")
	return cmd
}

func linefollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "linefollow",
		Short: "Follow a dark line until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				err := linefollow.New(rb.Controller, rb.Poller, rb.Display, rb.Beeper).Run(cmd.Context())
				if err == context.Canceled {
					return nil
				}
				return err
			})
		},
	}
}

func distanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance",
		Short: "Read the ultrasonic sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRobot(func(rb *robot.Robot) error {
				cm, ok := rb.Ranger.Distance()
				if !ok {
					return fmt.Errorf("no distance reading")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cm\n", cm)
				return nil
			})
		},
	}
}
