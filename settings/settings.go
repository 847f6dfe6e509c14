package settings

import (
	"github.com/caarlos0/env/v6"
	log "github.com/sirupsen/logrus"
)

const (
	BatterySourceADC    = "adc"
	BatterySourceINA219 = "ina219"
)

type Env struct {
	CONFIG_FILE    string `env:"CONFIG_FILE" envDefault:"config.ini"`
	BOARD_FILE     string `env:"BOARD_FILE" envDefault:"board.yaml"`
	SERVER_ADDRESS string `env:"SERVER_ADDRESS" envDefault:":1337"`
	PUBLIC_DIR     string `env:"PUBLIC_DIR" envDefault:"./public"`
	MQTT_BROKER    string `env:"MQTT_BROKER" envDefault:""`
	MQTT_TOPIC     string `env:"MQTT_TOPIC" envDefault:"xwkbot/telemetry"`
	SERIAL_PORT    string `env:"SERIAL_PORT" envDefault:""`
	BAUD_RATE      int    `env:"BAUD_RATE" envDefault:"115200"`
	BATTERY_SOURCE string `env:"BATTERY_SOURCE" envDefault:"adc"`
	I2C_BUS        int    `env:"I2C_BUS" envDefault:"1"`
	DEBUG          bool   `env:"DEBUG" envDefault:"0"`
}

func Parse() (*Env, error) {
	e := new(Env)
	if err := env.Parse(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Apply sets the global log level.
func (e *Env) Apply() {
	if e.DEBUG {
		log.SetLevel(log.DebugLevel)
	}
}
