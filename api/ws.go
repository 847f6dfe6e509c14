package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
	"xwkbot/command"
)

var json jsoniter.API = jsoniter.ConfigCompatibleWithStandardLibrary

const CONNECTION_TIMEOUT = 1 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	return true
}

// Remote serves the websocket remote control. Only one client may drive at a time and
// the robot stops when that client goes away or stays silent for CONNECTION_TIMEOUT.
type Remote struct {
	mu      sync.Mutex
	drive   Drive
	battery BatterySource
	timeout time.Duration
}

func NewRemote(drive Drive, b BatterySource) *Remote {
	return &Remote{drive: drive, battery: b, timeout: CONNECTION_TIMEOUT}
}

func (rm *Remote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !rm.mu.TryLock() {
		log.Print("Websocket multiple connections are not allowed with ", r.RemoteAddr)
		http.Error(w, "remote already connected", http.StatusConflict)
		return
	}
	defer rm.mu.Unlock()
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("Websocket upgrade error: ", err)
		return
	}
	log.Print("Websocket connection established with ", r.RemoteAddr)
	defer conn.Close()
	ctx := r.Context()
	for {
		conn.SetReadDeadline(time.Now().Add(rm.timeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Print("Websocket read error: ", err)
			break
		}
		cmd, err := command.Unmarshal(message)
		if err != nil {
			log.Print("Websocket command format error: ", err)
			break
		}
		if err := cmd.Apply(ctx, rm.drive); err != nil {
			log.Print("Websocket command failed: ", err)
			break
		}
		state, err := rm.drive.State(ctx)
		if err != nil {
			log.Print("Websocket state error: ", err)
			break
		}
		message, _ = json.Marshal(StatusResponse{Battery: rm.battery.Status(), Motion: state})
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Print("Websocket write error: ", err)
			break
		}
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), rm.timeout)
	defer cancel()
	if err := rm.drive.Stop(stopCtx); err != nil {
		log.Print("Could not stop after websocket disconnect: ", err)
	}
	log.Print("Websocket connection terminated with ", r.RemoteAddr)
}
