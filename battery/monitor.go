package battery

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"xwkbot/beeper"
	"xwkbot/display"
)

type Level string

const (
	LevelOK    Level = "ok"
	LevelLow   Level = "low"
	LevelEmpty Level = "empty"
)

// 4x1.5V AA cells
const (
	WARNING_VOLTAGE = 5.2
	EMPTY_VOLTAGE   = 4.7
	FULL_VOLTAGE    = 6.0
)

func LevelOf(voltage float64) Level {
	if voltage > WARNING_VOLTAGE {
		return LevelOK
	}
	if voltage < EMPTY_VOLTAGE {
		return LevelEmpty
	}
	return LevelLow
}

func PercentOf(voltage float64) float64 {
	percents := (voltage - EMPTY_VOLTAGE) / (FULL_VOLTAGE - EMPTY_VOLTAGE) * 100
	return min(max(percents, 0), 100)
}

type Status struct {
	Voltage   float64   `json:"voltage"`
	Level     Level     `json:"level"`
	Percent   float64   `json:"percent"`
	Current   float64   `json:"current,omitempty"`
	Power     float64   `json:"power,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Monitor struct {
	mu     sync.RWMutex
	reader VoltageReader
	status Status
	notify func(Status)
}

func NewMonitor(reader VoltageReader) *Monitor {
	return &Monitor{reader: reader}
}

// OnUpdate registers a callback invoked after every sample.
func (m *Monitor) OnUpdate(notify func(Status)) {
	m.mu.Lock()
	m.notify = notify
	m.mu.Unlock()
}

func (m *Monitor) Sample() Status {
	voltage, err := m.reader.ReadVoltage()
	var current, power float64
	if gauge, ok := m.reader.(Gauge); ok && err == nil {
		current, power = readLoad(gauge)
	}
	m.mu.Lock()
	if err != nil {
		log.WithError(err).Print("Failed to read battery voltage")
		m.status.Error = err.Error()
	} else {
		m.status = Status{
			Voltage: voltage,
			Level:   LevelOf(voltage),
			Percent: PercentOf(voltage),
			Current: current,
			Power:   power,
		}
	}
	m.status.UpdatedAt = time.Now()
	status := m.status
	notify := m.notify
	m.mu.Unlock()
	if notify != nil {
		notify(status)
	}
	return status
}

// readLoad reports zero for a quantity that could not be read.
func readLoad(gauge Gauge) (float64, float64) {
	current, err := gauge.ReadCurrent()
	if err != nil {
		log.WithError(err).Print("Failed to read battery current")
		current = 0
	}
	power, err := gauge.ReadPower()
	if err != nil {
		log.WithError(err).Print("Failed to read battery power")
		power = 0
	}
	return current, power
}

func (m *Monitor) Run(ctx context.Context, refreshPeriod time.Duration) {
	ticker := time.NewTicker(refreshPeriod)
	defer ticker.Stop()
	for {
		m.Sample()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Warn reports a low battery on the display with three beeps. It returns false when the battery is fine.
func Warn(reader VoltageReader, d display.Display, b beeper.Beeper, sleep func(time.Duration)) (bool, error) {
	voltage, err := reader.ReadVoltage()
	if err != nil {
		return false, err
	}
	switch LevelOf(voltage) {
	case LevelOK:
		return false, nil
	case LevelEmpty:
		display.Writef(d, display.Red, "Battery empty! %.2fV", voltage)
	default:
		display.Writef(d, display.Yellow, "Battery soon empty! %.2fV", voltage)
	}
	for i := 0; i < 3; i++ {
		if i > 0 {
			sleep(100 * time.Millisecond)
		}
		if err := b.Beep(1000, 100*time.Millisecond); err != nil {
			return true, err
		}
	}
	return true, nil
}
