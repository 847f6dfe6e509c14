package twowheeled

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type dutyWrite struct {
	Channel string
	Duty    int
}

type testChannel struct {
	name   string
	writes *[]dutyWrite
	duty   int
	err    error
}

func (c *testChannel) SetDuty(value int) error {
	if c.err != nil {
		return c.err
	}
	c.duty = value
	*c.writes = append(*c.writes, dutyWrite{c.name, value})
	return nil
}

type testBattery struct {
	voltage float64
	err     error
	reads   int
}

func (b *testBattery) ReadVoltage() (float64, error) {
	b.reads++
	return b.voltage, b.err
}

type testRig struct {
	ctrl    *Controller
	lf, lb  *testChannel
	rf, rb  *testChannel
	writes  *[]dutyWrite
	sleeps  *[]time.Duration
	battery *testBattery
}

func newTestRig(settings *Settings) *testRig {
	writes := &[]dutyWrite{}
	sleeps := &[]time.Duration{}
	rig := &testRig{
		lf:      &testChannel{name: "lf", writes: writes},
		lb:      &testChannel{name: "lb", writes: writes},
		rf:      &testChannel{name: "rf", writes: writes},
		rb:      &testChannel{name: "rb", writes: writes},
		writes:  writes,
		sleeps:  sleeps,
		battery: &testBattery{voltage: 6.0},
	}
	rig.ctrl = NewController(settings, Wheel{rig.lf, rig.lb}, Wheel{rig.rf, rig.rb}, rig.battery)
	rig.ctrl.SetSleep(func(d time.Duration) { *sleeps = append(*sleeps, d) })
	return rig
}

func (r *testRig) duties() [4]int {
	return [4]int{r.lf.duty, r.lb.duty, r.rf.duty, r.rb.duty}
}

func (r *testRig) reset() {
	*r.writes = nil
	*r.sleeps = nil
}

func TestCompensation(t *testing.T) {
	Convey("given the default settings", t, func() {
		s := DefaultSettings()

		Convey("a nominal or fuller battery is not boosted", func() {
			So(Compensation(6.0, s), ShouldEqual, 1.0)
			So(Compensation(6.4, s), ShouldEqual, 1.0)
		})

		Convey("a sagging battery is boosted by nominal over voltage", func() {
			So(Compensation(5.0, s), ShouldAlmostEqual, 1.2, 1e-9)
		})

		Convey("below the floor voltage the boost is constant", func() {
			floor := min(6.0/4.7, 1.3)
			for _, v := range []float64{4.7, 4.5, 3.0, 0.1} {
				So(Compensation(v, s), ShouldAlmostEqual, floor, 1e-9)
			}
		})

		Convey("the boost never exceeds the maximum", func() {
			s.FloorVoltage = 4.0
			So(Compensation(4.0, s), ShouldEqual, 1.3)
			So(Compensation(1.0, s), ShouldEqual, 1.3)
			for v := 0.05; v < 6.0; v += 0.05 {
				So(Compensation(v, s), ShouldBeLessThanOrEqualTo, 1.3)
				So(Compensation(v, s), ShouldBeGreaterThanOrEqualTo, 1.0)
			}
		})
	})
}

func TestTrim(t *testing.T) {
	Convey("trim never raises the unbiased wheel or drives the biased one negative", t, func() {
		for speed := 1; speed <= 100; speed += 3 {
			for trim := -100; trim <= 100; trim += 7 {
				left, right := applyTrim(float64(speed), float64(speed), trim)
				So(left, ShouldBeBetweenOrEqual, 0.0, float64(speed))
				So(right, ShouldBeBetweenOrEqual, 0.0, float64(speed))
			}
		}
	})

	Convey("settings clamp the trim", t, func() {
		s := DefaultSettings()
		So(s.SetTrim(150), ShouldEqual, 100)
		So(s.SetTrim(-101), ShouldEqual, -100)
		So(s.SetTrim(-3), ShouldEqual, -3)
		So(s.Trim, ShouldEqual, -3)
	})
}

func TestDrive(t *testing.T) {
	Convey("given a controller at nominal voltage", t, func() {
		settings := DefaultSettings()
		rig := newTestRig(settings)

		Convey("full forward with no trim drives both forward channels at max duty", func() {
			So(rig.ctrl.Drive(GoForward(100)), ShouldBeNil)
			So(rig.duties(), ShouldResemble, [4]int{1023, 0, 1023, 0})
		})

		Convey("starting wheels are kicked before settling", func() {
			So(rig.ctrl.Drive(GoForward(30)), ShouldBeNil)
			So(*rig.writes, ShouldResemble, []dutyWrite{
				{"lb", 0}, {"lf", 716},
				{"rb", 0}, {"rf", 716},
				{"lb", 0}, {"lf", 307},
				{"rb", 0}, {"rf", 307},
			})
			So(*rig.sleeps, ShouldResemble, []time.Duration{20 * time.Millisecond, 80 * time.Millisecond})

			Convey("a wheel that keeps moving is not kicked again", func() {
				rig.reset()
				So(rig.ctrl.Drive(GoForward(40)), ShouldBeNil)
				So(*rig.writes, ShouldResemble, []dutyWrite{
					{"lb", 0}, {"lf", 409},
					{"rb", 0}, {"rf", 409},
				})
				So(*rig.sleeps, ShouldResemble, []time.Duration{80 * time.Millisecond})
			})
		})

		Convey("only the wheel leaving standstill is kicked", func() {
			So(rig.ctrl.Drive(TurnRight(50)), ShouldBeNil)
			rig.reset()
			So(rig.ctrl.Drive(GoForward(50)), ShouldBeNil)
			So(*rig.writes, ShouldResemble, []dutyWrite{
				{"lb", 0}, {"lf", 512},
				{"rb", 0}, {"rf", 716},
				{"lb", 0}, {"lf", 512},
				{"rb", 0}, {"rf", 512},
			})
		})

		Convey("backward drives the backward channels", func() {
			So(rig.ctrl.Drive(GoBackward(100)), ShouldBeNil)
			So(rig.duties(), ShouldResemble, [4]int{0, 1023, 0, 1023})
		})

		Convey("stopping twice writes zeros without kick or hold", func() {
			So(rig.ctrl.Drive(GoForward(60)), ShouldBeNil)
			for i := 0; i < 2; i++ {
				rig.reset()
				So(rig.ctrl.Drive(Command{Stop, 0}, Command{Stop, 0}), ShouldBeNil)
				So(*rig.writes, ShouldResemble, []dutyWrite{{"lf", 0}, {"lb", 0}, {"rf", 0}, {"rb", 0}})
				So(*rig.sleeps, ShouldBeEmpty)
				So(rig.ctrl.Moving(), ShouldBeFalse)
			}
		})

		Convey("zero speed with a direction is a stop", func() {
			So(rig.ctrl.Drive(Command{Forward, 0}, Command{Backward, 0}), ShouldBeNil)
			So(rig.duties(), ShouldResemble, [4]int{0, 0, 0, 0})
			So(rig.battery.reads, ShouldEqual, 0)
		})

		Convey("a speed without a direction is rejected before any write", func() {
			err := rig.ctrl.Drive(Command{Stop, 20}, Command{Forward, 20})
			So(err, ShouldEqual, ErrDirectionRequired)
			So(*rig.writes, ShouldBeEmpty)
		})

		Convey("negative trim slows the left wheel", func() {
			settings.SetTrim(-50)
			So(rig.ctrl.Drive(GoForward(80)), ShouldBeNil)
			So(rig.duties(), ShouldResemble, [4]int{Duty(40, 1023), 0, Duty(80, 1023), 0})
			So(rig.lf.duty, ShouldEqual, 409)
			So(rig.rf.duty, ShouldEqual, 818)
		})

		Convey("positive trim slows the right wheel", func() {
			settings.SetTrim(25)
			So(rig.ctrl.Drive(GoForward(80)), ShouldBeNil)
			So(rig.lf.duty, ShouldEqual, Duty(80, 1023))
			So(rig.rf.duty, ShouldEqual, Duty(60, 1023))
		})

		Convey("trim is ignored while turning", func() {
			settings.SetTrim(-50)
			So(rig.ctrl.Drive(TurnLeft(80)), ShouldBeNil)
			So(rig.duties(), ShouldResemble, [4]int{0, 0, Duty(80, 1023), 0})
		})

		Convey("a weak battery boosts both wheels", func() {
			rig.battery.voltage = 5.0
			So(rig.ctrl.Drive(GoForward(50)), ShouldBeNil)
			So(rig.lf.duty, ShouldEqual, Duty(60, 1023))
			So(rig.rf.duty, ShouldEqual, Duty(60, 1023))
		})

		Convey("a boosted speed is clamped to full duty", func() {
			rig.battery.voltage = 4.0
			So(rig.ctrl.Drive(GoForward(90)), ShouldBeNil)
			So(rig.duties(), ShouldResemble, [4]int{1023, 0, 1023, 0})
		})

		Convey("the battery is read on every moving drive", func() {
			rig.ctrl.Drive(GoForward(50))
			rig.ctrl.Drive(GoForward(50))
			So(rig.battery.reads, ShouldEqual, 2)
		})

		Convey("a failed battery read propagates without writing", func() {
			rig.battery.err = errors.New("adc")
			So(rig.ctrl.Drive(GoForward(50)), ShouldNotBeNil)
			So(*rig.writes, ShouldBeEmpty)

			Convey("stopping still works", func() {
				So(rig.ctrl.Stop(), ShouldBeNil)
				So(rig.duties(), ShouldResemble, [4]int{0, 0, 0, 0})
			})
		})

		Convey("a failed pwm write is returned", func() {
			rig.rf.err = errors.New("sysfs")
			So(rig.ctrl.Drive(GoForward(50)), ShouldNotBeNil)

			Convey("and the wheel already kicked is still reported moving", func() {
				So(rig.lf.duty, ShouldEqual, Duty(70, 1023))
				So(rig.ctrl.Moving(), ShouldBeTrue)
				left, right := rig.ctrl.Last()
				So(left, ShouldResemble, Command{Forward, 50})
				So(right, ShouldResemble, Command{})

				Convey("so stopping it is not skipped", func() {
					rig.rf.err = nil
					So(rig.ctrl.Stop(), ShouldBeNil)
					So(rig.ctrl.Moving(), ShouldBeFalse)
					So(rig.duties(), ShouldResemble, [4]int{0, 0, 0, 0})
				})
			})
		})

		Convey("a custom duty range is honored", func() {
			settings.MaxDuty = 255
			So(rig.ctrl.Drive(GoForward(100)), ShouldBeNil)
			So(rig.duties(), ShouldResemble, [4]int{255, 0, 255, 0})
		})

		Convey("the last commands are remembered", func() {
			rig.ctrl.Drive(TurnLeft(30))
			left, right := rig.ctrl.Last()
			So(left, ShouldResemble, Command{Forward, 0})
			So(right, ShouldResemble, Command{Forward, 30})
		})
	})
}

func TestDuty(t *testing.T) {
	Convey("duty is rounded", t, func() {
		So(Duty(0, 1023), ShouldEqual, 0)
		So(Duty(100, 1023), ShouldEqual, 1023)
		So(Duty(50, 1023), ShouldEqual, 512)
		So(Duty(70, 1023), ShouldEqual, 716)
	})
}
