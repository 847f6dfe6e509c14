package display

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConsole(t *testing.T) {
	Convey("console keeps the written lines", t, func() {
		logger, hook := test.NewNullLogger()
		c := NewConsole(logger)
		c.Write("Motor Alignment", Cyan)
		Writef(c, Yellow, "Alignment: %+3d", -3)

		So(c.Lines(), ShouldResemble, []Line{
			{Text: "Motor Alignment", Color: Cyan},
			{Text: "Alignment:  -3", Color: Yellow},
		})
		So(hook.LastEntry().Message, ShouldEqual, "Alignment:  -3")
		So(hook.LastEntry().Data["color"], ShouldEqual, Yellow)
		So(hook.LastEntry().Level, ShouldEqual, log.InfoLevel)

		Convey("clear empties the screen", func() {
			c.Clear()
			So(c.Lines(), ShouldBeEmpty)
		})
	})

	Convey("console scrolls past its height", t, func() {
		logger, _ := test.NewNullLogger()
		c := NewConsole(logger)
		for i := 0; i < CONSOLE_HEIGHT+4; i++ {
			c.Write("line", White)
		}
		So(len(c.Lines()), ShouldEqual, CONSOLE_HEIGHT)
	})
}
