package ina219

import "xwkbot/i2c"

// based on: https://www.waveshare.com/wiki/UPS_Module_3S

const (
	// Config Register (R/W)
	_REG_CONFIG uint8 = 0x00

	// SHUNT VOLTAGE REGISTER (R)
	_REG_SHUNTVOLTAGE uint8 = 0x01

	// BUS VOLTAGE REGISTER (R)
	_REG_BUSVOLTAGE uint8 = 0x02

	// POWER REGISTER (R)
	_REG_POWER uint8 = 0x03

	// CURRENT REGISTER (R)
	_REG_CURRENT uint8 = 0x04

	// CALIBRATION REGISTER (R/W)
	_REG_CALIBRATION uint8 = 0x05
)

type BusVoltageRange uint16

const (
	RANGE_16V BusVoltageRange = 0x00 // set bus voltage range to 16V
	RANGE_32V BusVoltageRange = 0x01 // set bus voltage range to 32V (default)
)

type Gain uint16

const (
	DIV_1_40MV  Gain = 0x00 // shunt prog. gain set to  1, 40 mV range
	DIV_2_80MV  Gain = 0x01 // shunt prog. gain set to /2, 80 mV range
	DIV_4_160MV Gain = 0x02 // shunt prog. gain set to /4, 160 mV range
	DIV_8_320MV Gain = 0x03 // shunt prog. gain set to /8, 320 mV range
)

type ADCResolution uint16

const (
	ADCRES_9BIT_1S    ADCResolution = 0x00 //  9bit,   1 sample,     84us
	ADCRES_10BIT_1S   ADCResolution = 0x01 // 10bit,   1 sample,    148us
	ADCRES_11BIT_1S   ADCResolution = 0x02 // 11 bit,  1 sample,    276us
	ADCRES_12BIT_1S   ADCResolution = 0x03 // 12 bit,  1 sample,    532us
	ADCRES_12BIT_2S   ADCResolution = 0x09 // 12 bit,  2 samples,  1.06ms
	ADCRES_12BIT_4S   ADCResolution = 0x0A // 12 bit,  4 samples,  2.13ms
	ADCRES_12BIT_8S   ADCResolution = 0x0B // 12bit,   8 samples,  4.26ms
	ADCRES_12BIT_16S  ADCResolution = 0x0C // 12bit,  16 samples,  8.51ms
	ADCRES_12BIT_32S  ADCResolution = 0x0D // 12bit,  32 samples, 17.02ms
	ADCRES_12BIT_64S  ADCResolution = 0x0E // 12bit,  64 samples, 34.05ms
	ADCRES_12BIT_128S ADCResolution = 0x0F // 12bit, 128 samples, 68.10ms
)

type Mode uint16

const (
	POWERDOWN            Mode = 0x00 // power down
	SVOLT_TRIGGERED      Mode = 0x01 // shunt voltage triggered
	BVOLT_TRIGGERED      Mode = 0x02 // bus voltage triggered
	SANDBVOLT_TRIGGERED  Mode = 0x03 // shunt and bus voltage triggered
	ADCOFF               Mode = 0x04 // ADC off
	SVOLT_CONTINUOUS     Mode = 0x05 // shunt voltage continuous
	BVOLT_CONTINUOUS     Mode = 0x06 // bus voltage continuous
	SANDBVOLT_CONTINUOUS Mode = 0x07 // shunt and bus voltage continuous
)

const ADDRESS_DEFAULT uint8 = 0x41

// Calibration for up to 16V and 2A of current with a 0.1 ohm shunt resistor.
// The 4xAA pack never exceeds the 16V range.
//
// VBUS_MAX = 16V
// VSHUNT_MAX = 0.32          (Gain 8, 320mV)
// RSHUNT = 0.1               (Resistor value in ohms)
//
// MaxPossible_I = VSHUNT_MAX / RSHUNT = 3.2A
// MaxExpected_I = 2.0A
// MinimumLSB = MaxExpected_I/32767 = 0.000061   (61uA per bit)
// MaximumLSB = MaxExpected_I/4096  = 0.000488   (488uA per bit)
// CurrentLSB = 0.0001                           (100uA per bit)
//
// Cal = trunc (0.04096 / (Current_LSB * RSHUNT)) = 4096 (0x1000)
// PowerLSB = 20 * CurrentLSB = 0.002            (2mW per bit)
// MaximumPower = 3.2A * 16V = 51.2W
const (
	CALIBRATION_16V_2A uint16  = 4096
	CURRENT_LSB_MA     float64 = 0.1   // Current LSB = 100uA per bit
	POWER_LSB_W        float64 = 0.002 // Power LSB = 2mW per bit
)

type INA219 struct {
	dev     i2c.Device
	address uint8
	config  uint16
}

func New(dev i2c.Device, address uint8) (*INA219, error) {
	ina := &INA219{
		dev:     dev,
		address: address,
		config: uint16(RANGE_16V)<<13 |
			uint16(DIV_8_320MV)<<11 |
			uint16(ADCRES_12BIT_32S)<<7 |
			uint16(ADCRES_12BIT_32S)<<3 |
			uint16(SANDBVOLT_CONTINUOUS),
	}
	// Set Calibration register to 'Cal' calculated above
	if err := ina.calibrate(); err != nil {
		return nil, err
	}
	// Set Config register to take into account the settings above
	return ina, ina.dev.WriteWord(address, _REG_CONFIG, ina.config)
}

func (i *INA219) calibrate() error {
	return i.dev.WriteWord(i.address, _REG_CALIBRATION, CALIBRATION_16V_2A)
}

// ReadBusVoltage drops the CNVR and OVF status bits, 4mV per bit.
func (i *INA219) ReadBusVoltage() (float64, error) {
	value, err := i.dev.ReadWord(i.address, _REG_BUSVOLTAGE)
	if err != nil {
		return 0, err
	}
	return float64(value>>3) * 0.004, nil
}

// ReadShuntVoltage is negative while the battery discharges. 10uV per bit.
func (i *INA219) ReadShuntVoltage() (float64, error) {
	value, err := i.readSigned(_REG_SHUNTVOLTAGE)
	if err != nil {
		return 0, err
	}
	return float64(value) * 0.00001, nil
}

// ReadCurrent is negative while the battery discharges.
func (i *INA219) ReadCurrent() (float64, error) {
	// the calibration register resets on brownout
	if err := i.calibrate(); err != nil {
		return 0, err
	}
	value, err := i.readSigned(_REG_CURRENT)
	if err != nil {
		return 0, err
	}
	return float64(value) * CURRENT_LSB_MA * 0.001, nil
}

func (i *INA219) ReadPower() (float64, error) {
	value, err := i.dev.ReadWord(i.address, _REG_POWER)
	if err != nil {
		return 0, err
	}
	return float64(value) * POWER_LSB_W, nil
}

func (i *INA219) readSigned(register uint8) (int16, error) {
	value, err := i.dev.ReadWord(i.address, register)
	if err != nil {
		return 0, err
	}
	return int16(value), nil
}
