package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"xwkbot/api"
	"xwkbot/battery"
	"xwkbot/robot"
	"xwkbot/serialctl"
	"xwkbot/settings"
	"xwkbot/telemetry"
	"xwkbot/twowheeled"
)

const (
	DRIVE_QUEUE_LENGTH      = 16
	BATTERY_REFRESH_PERIOD  = 1 * time.Second
	TELEMETRY_PERIOD        = 1 * time.Second
	TELEMETRY_CLIENT_BUFFER = 4
	SHUTDOWN_TIMEOUT        = 3 * time.Second
	MQTT_CLIENT_ID          = "xwkbot"
)

func main() {
	env, err := settings.Parse()
	if err != nil {
		log.Fatal("Could not parse environment: ", err)
	}
	env.Apply()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rb, err := robot.Open(env)
	if err != nil {
		log.Fatal("Could not open robot: ", err)
	}
	defer rb.Close()

	if _, err := battery.Warn(rb.Battery, rb.Display, rb.Beeper, time.Sleep); err != nil {
		log.Print("Could not check battery: ", err)
	}

	runner := twowheeled.NewRunner(rb.Controller, DRIVE_QUEUE_LENGTH)
	go runner.Run(ctx)

	monitor := battery.NewMonitor(rb.Battery)
	lastLevel := battery.LevelOK
	monitor.OnUpdate(func(status battery.Status) {
		if status.Error != "" || status.Level == lastLevel {
			return
		}
		if status.Level != battery.LevelOK {
			log.WithField("voltage", status.Voltage).Warn("Battery ", status.Level)
		}
		lastLevel = status.Level
	})
	go monitor.Run(ctx, BATTERY_REFRESH_PERIOD)

	hub := telemetry.NewHub(monitor, runner)
	go hub.Run(ctx, TELEMETRY_PERIOD)
	if env.MQTT_BROKER != "" {
		go publishTelemetry(ctx, hub, env.MQTT_BROKER, env.MQTT_TOPIC)
	}
	if env.SERIAL_PORT != "" {
		go serveSerial(ctx, runner, env.SERIAL_PORT, env.BAUD_RATE)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Mount("/api", api.New(runner, monitor, rb.Config).Routes())
	r.Handle("/ws", api.NewRemote(runner, monitor))
	FileServer(r, "/", http.Dir(env.PUBLIC_DIR))

	server := &http.Server{Addr: env.SERVER_ADDRESS, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
	log.Print("Listening on ", env.SERVER_ADDRESS)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Unable to start HTTP server: ", err)
	}
	<-runner.Done()
}

func publishTelemetry(ctx context.Context, hub *telemetry.Hub, broker string, topic string) {
	publisher, err := telemetry.Connect(ctx, telemetry.NewMQTTOptions(broker, MQTT_CLIENT_ID))
	if err != nil {
		log.Print("Telemetry disabled: ", err)
		return
	}
	defer publisher.Close()
	telemetry.Forward(hub.Subscribe(TELEMETRY_CLIENT_BUFFER), publisher, topic)
}

func serveSerial(ctx context.Context, runner *twowheeled.Runner, port string, baudRate int) {
	p, err := serialctl.Open(port, baudRate)
	if err != nil {
		log.Print("Serial control disabled: ", err)
		return
	}
	go func() {
		<-ctx.Done()
		p.Close()
	}()
	log.Print("Serial control listening on ", port)
	if err := serialctl.Run(ctx, p, p, runner); err != nil && ctx.Err() == nil {
		log.Print("Serial control stopped: ", err)
	}
}

// FileServer serves static files from root under path.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	fs := http.StripPrefix(path, http.FileServer(root))

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.ServeHTTP(w, r)
	}))
}
