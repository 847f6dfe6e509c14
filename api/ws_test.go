package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

type stopRecorder struct {
	testDrive
	stopped chan struct{}
}

func (d *stopRecorder) Stop(ctx context.Context) error {
	err := d.testDrive.Stop(ctx)
	d.stopped <- struct{}{}
	return err
}

func waitStopped(drive *stopRecorder) bool {
	select {
	case <-drive.stopped:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

func TestRemote(t *testing.T) {
	Convey("given a remote control endpoint", t, func() {
		drive := &stopRecorder{stopped: make(chan struct{}, 4)}
		remote := NewRemote(drive, testBattery{})
		remote.timeout = 200 * time.Millisecond
		server := httptest.NewServer(remote)
		defer server.Close()
		url := "ws" + strings.TrimPrefix(server.URL, "http")

		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("a mix frame drives and echoes the status", func() {
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mix","values":[0,0.4]}`)), ShouldBeNil)
			_, reply, err := conn.ReadMessage()
			So(err, ShouldBeNil)
			So(string(reply), ShouldContainSubstring, `"voltage":5.8`)
			So(string(reply), ShouldContainSubstring, `"speed":40`)
			So(string(reply), ShouldContainSubstring, `"moving":true`)
		})

		Convey("a second client is refused", func() {
			// the first frame guarantees the first connection holds the lock
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)), ShouldBeNil)
			_, _, err := conn.ReadMessage()
			So(err, ShouldBeNil)
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldNotBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("disconnecting stops the robot", func() {
			conn.Close()
			So(waitStopped(drive), ShouldBeTrue)
		})

		Convey("a malformed frame ends the session and stops", func() {
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"fly"}`)), ShouldBeNil)
			So(waitStopped(drive), ShouldBeTrue)
		})
	})
}
