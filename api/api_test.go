package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"xwkbot/battery"
	"xwkbot/kvconf"
	"xwkbot/twowheeled"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

type testDrive struct {
	state twowheeled.State
	err   error
}

func (d *testDrive) Submit(ctx context.Context, left twowheeled.Command, right twowheeled.Command) error {
	if d.err != nil {
		return d.err
	}
	d.state.Left, d.state.Right = left, right
	d.state.Moving = left.Moving() || right.Moving()
	return nil
}

func (d *testDrive) Stop(ctx context.Context) error {
	return d.Submit(ctx, twowheeled.Command{}, twowheeled.Command{})
}

func (d *testDrive) SetTrim(ctx context.Context, trim int) (int, error) {
	d.state.Trim = twowheeled.ClampTrim(trim)
	return d.state.Trim, d.err
}

func (d *testDrive) State(ctx context.Context) (twowheeled.State, error) {
	return d.state, d.err
}

type testBattery struct{}

func (testBattery) Status() battery.Status {
	return battery.Status{Voltage: 5.8, Level: battery.LevelOf(5.8)}
}

func serve(handler http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer(t *testing.T) {
	Convey("given an api over a drive", t, func() {
		drive := &testDrive{}
		store := kvconf.New(filepath.Join(t.TempDir(), "config.ini"))
		r := chi.NewRouter()
		r.Mount("/api", New(drive, testBattery{}, store).Routes())

		Convey("status reports battery and motion", func() {
			rec := serve(r, http.MethodGet, "/api/status", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"voltage":5.8`)
			So(rec.Body.String(), ShouldContainSubstring, `"moving":false`)
		})

		Convey("drive submits both wheels", func() {
			rec := serve(r, http.MethodPost, "/api/drive", `{"left":{"direction":"forward","speed":60},"right":{"direction":"backward","speed":20}}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(drive.state.Left, ShouldResemble, twowheeled.Command{Direction: twowheeled.Forward, Speed: 60})
			So(drive.state.Right, ShouldResemble, twowheeled.Command{Direction: twowheeled.Backward, Speed: 20})
			So(rec.Body.String(), ShouldContainSubstring, `"moving":true`)

			Convey("and stop halts them", func() {
				rec := serve(r, http.MethodPost, "/api/stop", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(drive.state.Moving, ShouldBeFalse)
			})
		})

		Convey("a speed without direction is a bad request", func() {
			rec := serve(r, http.MethodPost, "/api/drive", `{"left":{"speed":60}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(drive.state.Moving, ShouldBeFalse)
		})

		Convey("out of range speeds are bad requests", func() {
			rec := serve(r, http.MethodPost, "/api/drive", `{"left":{"direction":"forward","speed":160}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("command frames are accepted", func() {
			rec := serve(r, http.MethodPost, "/api/command", `{"type":"mix","values":[0,1]}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(drive.state.Left.Speed, ShouldEqual, 100)

			rec = serve(r, http.MethodPost, "/api/command", `{"type":"jump"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("alignment is applied and persisted", func() {
			rec := serve(r, http.MethodPut, "/api/alignment", `{"trim":-9}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(drive.state.Trim, ShouldEqual, -9)

			loaded, err := kvconf.Load(store.Path())
			So(err, ShouldBeNil)
			So(loaded.GetInt("MOTOR_ALIGNMENT", 0), ShouldEqual, -9)

			rec = serve(r, http.MethodGet, "/api/alignment", "")
			So(rec.Body.String(), ShouldContainSubstring, `"trim":-9`)
		})

		Convey("alignment outside the trim range is rejected", func() {
			rec := serve(r, http.MethodPut, "/api/alignment", `{"trim":101}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("a stopped drive is unavailable", func() {
			drive.err = twowheeled.ErrRunnerStopped
			rec := serve(r, http.MethodPost, "/api/stop", "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("hardware failures are server errors", func() {
			drive.err = errors.New("pwm write failed")
			rec := serve(r, http.MethodPost, "/api/drive", `{"left":{"direction":"forward","speed":10}}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}
