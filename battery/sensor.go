package battery

import (
	"xwkbot/adc"
	"xwkbot/boterrors"
	"xwkbot/ina219"
)

// VoltageReader samples the battery on every call.
type VoltageReader interface {
	ReadVoltage() (float64, error)
}

// Gauge is implemented by sensors that also measure the load.
type Gauge interface {
	ReadCurrent() (float64, error)
	ReadPower() (float64, error)
}

type SensorConfig struct {
	RefVoltage  float64
	Bits        int
	Divider     float64
	Calibration float64
}

// DefaultSensorConfig matches the 2:1 divider on the 12 bit ADC, calibrated against a multimeter.
func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		RefVoltage:  3.3,
		Bits:        12,
		Divider:     2.0,
		Calibration: 1.015,
	}
}

type Sensor struct {
	adc    adc.Reader
	config SensorConfig
}

func NewSensor(reader adc.Reader, config SensorConfig) *Sensor {
	return &Sensor{adc: reader, config: config}
}

func (s *Sensor) ReadVoltage() (float64, error) {
	raw, err := s.adc.Read()
	if err != nil {
		return 0, boterrors.SensorReadError{Sensor: "battery adc", Err: err}
	}
	return s.Scale(raw), nil
}

func (s *Sensor) Scale(raw int) float64 {
	fullScale := float64(int(1)<<s.config.Bits - 1)
	return float64(raw) * s.config.RefVoltage / fullScale * s.config.Divider * s.config.Calibration
}

type INA219Sensor struct {
	ina *ina219.INA219
}

func NewINA219Sensor(ina *ina219.INA219) *INA219Sensor {
	return &INA219Sensor{ina: ina}
}

// ReadVoltage is the voltage at the battery side of the shunt.
func (s *INA219Sensor) ReadVoltage() (float64, error) {
	bus, err := s.ina.ReadBusVoltage()
	if err != nil {
		return 0, boterrors.SensorReadError{Sensor: "ina219", Err: err}
	}
	shunt, err := s.ina.ReadShuntVoltage()
	if err != nil {
		return 0, boterrors.SensorReadError{Sensor: "ina219", Err: err}
	}
	return bus - shunt, nil
}

// ReadCurrent is in amperes, negative while discharging.
func (s *INA219Sensor) ReadCurrent() (float64, error) {
	current, err := s.ina.ReadCurrent()
	if err != nil {
		return 0, boterrors.SensorReadError{Sensor: "ina219", Err: err}
	}
	return current, nil
}

func (s *INA219Sensor) ReadPower() (float64, error) {
	power, err := s.ina.ReadPower()
	if err != nil {
		return 0, boterrors.SensorReadError{Sensor: "ina219", Err: err}
	}
	return power, nil
}
