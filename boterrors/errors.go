package boterrors

import "fmt"

// SensorReadError is returned when a sensor could not be sampled.
// The ultrasonic sensor degrades it to a "no reading" result, the battery ADC propagates it.
type SensorReadError struct {
	Sensor string
	Err    error
}

func (err SensorReadError) Error() string {
	if len(err.Sensor) == 0 {
		err.Sensor = "UNKNOWN"
	}
	return fmt.Sprintf("unable to read sensor %s: %v", err.Sensor, err.Err)
}

func (err SensorReadError) Unwrap() error {
	return err.Err
}

type PersistenceError struct {
	Path string
	Err  error
}

func (err PersistenceError) Error() string {
	return fmt.Sprintf("unable to persist %s: %v", err.Path, err.Err)
}

func (err PersistenceError) Unwrap() error {
	return err.Err
}

// PeripheralWriteError is not recoverable, callers are expected to stop.
type PeripheralWriteError struct {
	Peripheral string
	Err        error
}

func (err PeripheralWriteError) Error() string {
	return fmt.Sprintf("unable to write peripheral %s: %v", err.Peripheral, err.Err)
}

func (err PeripheralWriteError) Unwrap() error {
	return err.Err
}
