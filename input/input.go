package input

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pin reports whether a digital input is active.
type Pin interface {
	Read() bool
}

type Name string

const (
	ButtonUp    Name = "up"
	ButtonDown  Name = "down"
	ButtonLeft  Name = "left"
	ButtonRight Name = "right"
	ButtonA     Name = "a"
	IRLeft      Name = "ir_left"
	IRRight     Name = "ir_right"
)

const POLL_PERIOD = 100 * time.Millisecond

type Snapshot struct {
	pressed map[Name]bool
	edges   map[Name]bool
}

func (s Snapshot) Pressed(name Name) bool {
	return s.pressed[name]
}

// Edge is true when name was inactive at the previous poll and is active now.
func (s Snapshot) Edge(name Name) bool {
	return s.edges[name]
}

// Edges lists every input with an edge, sorted by name.
func (s Snapshot) Edges() []Name {
	var names []Name
	for name, edge := range s.edges {
		if edge {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

type Poller struct {
	mu    sync.Mutex
	pins  map[Name]Pin
	last  map[Name]bool
	sleep func(time.Duration)
}

func NewPoller() *Poller {
	return &Poller{
		pins:  make(map[Name]Pin),
		last:  make(map[Name]bool),
		sleep: time.Sleep,
	}
}

func (p *Poller) Add(name Name, pin Pin) *Poller {
	p.mu.Lock()
	p.pins[name] = pin
	p.mu.Unlock()
	return p
}

func (p *Poller) Has(name Name) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pins[name]
	return ok
}

func (p *Poller) SetSleep(sleep func(time.Duration)) {
	p.sleep = sleep
}

// Prime records the current levels so a held button does not count as an edge.
func (p *Poller) Prime() {
	p.Poll()
}

func (p *Poller) Poll() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		pressed: make(map[Name]bool, len(p.pins)),
		edges:   make(map[Name]bool, len(p.pins)),
	}
	for name, pin := range p.pins {
		active := pin.Read()
		s.pressed[name] = active
		s.edges[name] = active && !p.last[name]
		p.last[name] = active
	}
	return s
}

// WaitFor polls until name produces an edge or ctx is done.
func (p *Poller) WaitFor(ctx context.Context, name Name, period time.Duration) error {
	p.Prime()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.Poll().Edge(name) {
			return nil
		}
		p.sleep(period)
	}
}
