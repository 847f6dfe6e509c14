package kvconf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xwkbot/boterrors"

	. "github.com/smartystreets/goconvey/convey"
)

const sample = `# Motor pins
LEFT_FORWARD_PIN=25
LEFT_BACKWARD_PIN = 33

# Alignment
MOTOR_ALIGNMENT=-4
WLAN_SSID=robots`

func TestStore(t *testing.T) {
	Convey("given a parsed config", t, func() {
		s := New("unused")
		So(s.Parse(strings.NewReader(sample)), ShouldBeNil)

		Convey("values are trimmed and coerced to int", func() {
			So(s.GetInt("LEFT_BACKWARD_PIN", 0), ShouldEqual, 33)
			So(s.GetInt("MOTOR_ALIGNMENT", 0), ShouldEqual, -4)
			So(s.Value("MOTOR_ALIGNMENT", 0), ShouldEqual, -4)
			So(s.Value("WLAN_SSID", ""), ShouldEqual, "robots")
		})

		Convey("missing or non integer keys fall back to the default", func() {
			So(s.GetInt("ECHO_PIN", 18), ShouldEqual, 18)
			So(s.GetInt("WLAN_SSID", 7), ShouldEqual, 7)
			So(s.Value("ECHO_PIN", nil), ShouldBeNil)
			So(s.GetString("ECHO_PIN", "none"), ShouldEqual, "none")
		})

		Convey("comments and blank lines are kept in place", func() {
			So(string(s.Bytes()), ShouldEqual, `# Motor pins
LEFT_FORWARD_PIN=25
LEFT_BACKWARD_PIN=33

# Alignment
MOTOR_ALIGNMENT=-4
WLAN_SSID=robots`)
		})

		Convey("set updates in place or appends", func() {
			s.Set("MOTOR_ALIGNMENT", 12)
			s.Set("ECHO_PIN", 18)
			So(s.Keys(), ShouldResemble, []string{
				"LEFT_FORWARD_PIN", "LEFT_BACKWARD_PIN", "MOTOR_ALIGNMENT", "WLAN_SSID", "ECHO_PIN",
			})
			So(s.GetInt("MOTOR_ALIGNMENT", 0), ShouldEqual, 12)
		})
	})

	Convey("malformed lines are dropped", t, func() {
		s := New("unused")
		So(s.Parse(strings.NewReader("A=1\ngarbage\nB=2")), ShouldBeNil)
		So(string(s.Bytes()), ShouldEqual, "A=1\nB=2")
	})

	Convey("given a config file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "config.ini")
		So(os.WriteFile(path, []byte(sample), 0644), ShouldBeNil)

		Convey("a saved trim reloads as the same integer", func() {
			s, err := Load(path)
			So(err, ShouldBeNil)
			s.Set("MOTOR_ALIGNMENT", -37)
			So(s.Save(), ShouldBeNil)

			reloaded, err := Load(path)
			So(err, ShouldBeNil)
			So(reloaded.GetInt("MOTOR_ALIGNMENT", 0), ShouldEqual, -37)
			So(reloaded.GetInt("LEFT_FORWARD_PIN", 0), ShouldEqual, 25)
		})

		Convey("a missing file loads empty and is created on save", func() {
			fresh := filepath.Join(filepath.Dir(path), "fresh.ini")
			s, err := Load(fresh)
			So(err, ShouldBeNil)
			So(s.Keys(), ShouldBeEmpty)
			s.Set("MOTOR_ALIGNMENT", 3)
			So(s.Save(), ShouldBeNil)
			data, _ := os.ReadFile(fresh)
			So(string(data), ShouldEqual, "MOTOR_ALIGNMENT=3")
		})
	})

	Convey("saving into a missing directory is a persistence error", t, func() {
		s := New(filepath.Join(t.TempDir(), "missing", "config.ini"))
		s.Set("MOTOR_ALIGNMENT", 1)
		err := s.Save()
		var target boterrors.PersistenceError
		So(errors.As(err, &target), ShouldBeTrue)
	})
}
