package selftest

import (
	"context"
	"errors"
	"testing"
	"time"

	"xwkbot/display"
	"xwkbot/input"
	"xwkbot/twowheeled"

	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
)

type levelPin bool

func (p levelPin) Read() bool {
	return bool(p)
}

type togglePin struct {
	reads int
}

// Read is active on every other poll.
func (p *togglePin) Read() bool {
	p.reads++
	return p.reads%2 == 0
}

type testDriver struct {
	drives []twowheeled.Command
	stops  int
	err    error
}

func (d *testDriver) Drive(left twowheeled.Command, right twowheeled.Command) error {
	if d.err != nil {
		return d.err
	}
	d.drives = append(d.drives, left, right)
	return nil
}

func (d *testDriver) Stop() error {
	d.stops++
	return nil
}

type testRanger struct {
	cm int
	ok bool
}

func (r testRanger) Distance() (int, bool) {
	return r.cm, r.ok
}

type testBeeper struct {
	freqs []int
}

func (b *testBeeper) Beep(freq int, duration time.Duration) error {
	b.freqs = append(b.freqs, freq)
	return nil
}

func TestSelftest(t *testing.T) {
	Convey("given a healthy robot", t, func() {
		poller := input.NewPoller().
			Add(input.IRLeft, levelPin(true)).
			Add(input.IRRight, levelPin(false))
		driver := &testDriver{}
		logger, _ := test.NewNullLogger()
		b := &testBeeper{}
		r := New(driver, testRanger{cm: 42, ok: true}, poller, display.NewConsole(logger), b)
		r.SetSleep(func(time.Duration) {})

		Convey("every peripheral is reported", func() {
			report, err := r.Run(context.Background())
			So(err, ShouldBeNil)
			So(report.IRLeft, ShouldEqual, "bright")
			So(report.IRRight, ShouldEqual, "dark")
			So(report.Distance, ShouldEqual, 42)
			So(report.DistanceOK, ShouldBeTrue)
			So(len(report.Motors), ShouldEqual, 4)
			So(driver.stops, ShouldEqual, 4)
			So(driver.drives[0], ShouldResemble, twowheeled.Command{Direction: twowheeled.Forward, Speed: MOTOR_TEST_SPEED})
			So(driver.drives[7], ShouldResemble, twowheeled.Command{Direction: twowheeled.Backward, Speed: MOTOR_TEST_SPEED})
			So(len(b.freqs), ShouldEqual, 32)
			So(b.freqs[0], ShouldEqual, 500)
			So(b.freqs[15], ShouldEqual, 2000)
			So(b.freqs[31], ShouldEqual, 500)
		})

		Convey("buttons are awaited when requested", func() {
			poller.Add(input.ButtonA, &togglePin{}).Add(input.ButtonUp, &togglePin{})
			r.Buttons = []input.Name{input.ButtonA, input.ButtonUp}
			report, err := r.Run(context.Background())
			So(err, ShouldBeNil)
			So(report.Buttons, ShouldResemble, []input.Name{input.ButtonA, input.ButtonUp})
			So(report.Missing, ShouldBeEmpty)
		})

		Convey("unconnected buttons are reported instead of awaited", func() {
			poller.Add(input.ButtonA, &togglePin{})
			r.Buttons = []input.Name{input.ButtonA, input.ButtonDown}
			report, err := r.Run(context.Background())
			So(err, ShouldBeNil)
			So(report.Buttons, ShouldResemble, []input.Name{input.ButtonA})
			So(report.Missing, ShouldResemble, []input.Name{input.ButtonDown})
		})

		Convey("a motor failure aborts the test", func() {
			driver.err = errors.New("pwm")
			report, err := r.Run(context.Background())
			So(err, ShouldNotBeNil)
			So(report.Motors, ShouldBeEmpty)
		})

		Convey("a cancelled context aborts before the motors", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := r.Run(ctx)
			So(err, ShouldEqual, context.Canceled)
			So(driver.drives, ShouldBeEmpty)
		})
	})

	Convey("a failed distance reading is reported, not fatal", t, func() {
		logger, _ := test.NewNullLogger()
		r := New(&testDriver{}, testRanger{}, input.NewPoller(), display.NewConsole(logger), &testBeeper{})
		r.SetSleep(func(time.Duration) {})
		report, err := r.Run(context.Background())
		So(err, ShouldBeNil)
		So(report.DistanceOK, ShouldBeFalse)
	})
}
