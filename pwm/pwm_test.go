package pwm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xwkbot/boterrors"

	. "github.com/smartystreets/goconvey/convey"
)

func readFile(dir string, name string) string {
	data, _ := os.ReadFile(filepath.Join(dir, name))
	return string(data)
}

func TestPWM(t *testing.T) {
	Convey("given a sysfs pwm directory", t, func() {
		dir := t.TempDir()
		p := NewPWM(dir, 1023)

		Convey("frequency is written as a period in nanoseconds", func() {
			So(p.SetFrequency(500), ShouldBeNil)
			So(readFile(dir, "period"), ShouldEqual, "2000000")
			So(readFile(dir, "duty_cycle"), ShouldEqual, "0")
		})

		Convey("duty is scaled onto the period", func() {
			So(p.SetFrequency(500), ShouldBeNil)
			So(p.SetDuty(1023), ShouldBeNil)
			So(readFile(dir, "duty_cycle"), ShouldEqual, "2000000")
			So(p.SetDuty(0), ShouldBeNil)
			So(readFile(dir, "duty_cycle"), ShouldEqual, "0")
		})

		Convey("duty outside the range is clamped", func() {
			So(p.SetFrequency(1000), ShouldBeNil)
			So(p.SetDuty(5000), ShouldBeNil)
			So(readFile(dir, "duty_cycle"), ShouldEqual, "1000000")
			So(p.SetDuty(-3), ShouldBeNil)
			So(readFile(dir, "duty_cycle"), ShouldEqual, "0")
		})

		Convey("enable and polarity are plain writes", func() {
			So(p.Enable(), ShouldBeNil)
			So(readFile(dir, "enable"), ShouldEqual, "1")
			So(p.Polarity(PolarityInversed), ShouldBeNil)
			So(readFile(dir, "polarity"), ShouldEqual, "inversed")
		})

		Convey("zero frequency is rejected", func() {
			So(p.SetFrequency(0), ShouldNotBeNil)
		})
	})

	Convey("writes to a missing directory are peripheral write errors", t, func() {
		p := NewPWM(filepath.Join(t.TempDir(), "missing"), 0)
		So(p.MaxDuty(), ShouldEqual, DUTY_MAX_DEFAULT)
		err := p.Enable()
		var target boterrors.PeripheralWriteError
		So(errors.As(err, &target), ShouldBeTrue)
	})

	Convey("paths follow the board layouts", t, func() {
		So(BonePath(Bus1, OutputB), ShouldEqual, "/dev/bone/pwm/1/b")
		So(ChipPath(2, 0), ShouldEqual, "/sys/class/pwm/pwmchip2/pwm0")
	})

	Convey("open leaves the channel enabled and idle", t, func() {
		dir := t.TempDir()
		p, err := Open(dir, 255, 1000)
		So(err, ShouldBeNil)
		So(p.MaxDuty(), ShouldEqual, 255)
		So(readFile(dir, "period"), ShouldEqual, "1000000")
		So(readFile(dir, "polarity"), ShouldEqual, "normal")
		So(readFile(dir, "enable"), ShouldEqual, "1")
		So(readFile(dir, "duty_cycle"), ShouldEqual, "0")

		_, err = Open(dir, 255, 0)
		So(err, ShouldNotBeNil)
	})
}
