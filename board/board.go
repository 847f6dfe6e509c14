package board

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"xwkbot/adc"
	"xwkbot/gpio"
	"xwkbot/pwm"
)

// PWMPin selects a pwm channel either by bone bus and output or by an explicit sysfs path.
type PWMPin struct {
	Bus    pwm.Bus    `yaml:"bus"`
	Output pwm.Output `yaml:"output"`
	Path   string     `yaml:"path,omitempty"`
}

func (p PWMPin) Dir() string {
	if p.Path != "" {
		return p.Path
	}
	return pwm.BonePath(p.Bus, p.Output)
}

type ADCPin struct {
	Device  int `yaml:"device"`
	Channel int `yaml:"channel"`
}

func (p ADCPin) Open() *adc.Channel {
	return adc.NewChannel(p.Device, p.Channel)
}

// OpenAt resolves the channel under an alternate iio root.
func (p ADCPin) OpenAt(root string) *adc.Channel {
	return adc.NewChannelAt(root, p.Device, p.Channel)
}

// Profile maps the pin numbers stored in config.ini onto the resources of a board.
type Profile struct {
	Name string              `yaml:"name"`
	PWM  map[int]PWMPin      `yaml:"pwm"`
	GPIO map[int]gpio.Number `yaml:"gpio"`
	ADC  map[int]ADCPin      `yaml:"adc"`
}

type UnknownPinError struct {
	Kind string
	Pin  int
}

func (e UnknownPinError) Error() string {
	return fmt.Sprintf("no %s mapping for pin %d", e.Kind, e.Pin)
}

// Default is the BeagleBone AI-64 wiring of the bot.
func Default() *Profile {
	return &Profile{
		Name: "bbai64",
		PWM: map[int]PWMPin{
			12: {Bus: pwm.Bus0, Output: pwm.OutputA},
			13: {Bus: pwm.Bus0, Output: pwm.OutputB},
			14: {Bus: pwm.Bus1, Output: pwm.OutputA},
			15: {Bus: pwm.Bus1, Output: pwm.OutputB},
			26: {Bus: pwm.Bus2, Output: pwm.OutputA},
		},
		GPIO: map[int]gpio.Number{},
		ADC: map[int]ADCPin{
			35: {Device: 0, Channel: 0},
		},
	}
}

func Parse(data []byte) (*Profile, error) {
	profile := &Profile{}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("board profile: %w", err)
	}
	if profile.PWM == nil {
		profile.PWM = map[int]PWMPin{}
	}
	if profile.GPIO == nil {
		profile.GPIO = map[int]gpio.Number{}
	}
	if profile.ADC == nil {
		profile.ADC = map[int]ADCPin{}
	}
	return profile, nil
}

// Load reads the profile at path. A missing file yields Default.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.WithField("path", path).Print("Board profile not found, using defaults")
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

func (p *Profile) PWMDir(pin int) (string, error) {
	mapping, ok := p.PWM[pin]
	if !ok {
		return "", UnknownPinError{Kind: "pwm", Pin: pin}
	}
	return mapping.Dir(), nil
}

// GPIONumber falls back to the pin itself when the profile has no entry.
func (p *Profile) GPIONumber(pin int) gpio.Number {
	if number, ok := p.GPIO[pin]; ok {
		return number
	}
	return gpio.Number(pin)
}

func (p *Profile) ADCChannel(pin int) (ADCPin, error) {
	mapping, ok := p.ADC[pin]
	if !ok {
		return ADCPin{}, UnknownPinError{Kind: "adc", Pin: pin}
	}
	return mapping, nil
}
