// Package graph builds a running filter graph from a YAML description:
//
//   name: loopback
//   profile:
//     rate: 8000
//   instrument:
//     name: trace
//   filters:
//     - name: src
//       type: counter
//     - name: sink
//       type: null_sink
//       params:
//         verify: true
//   links:
//     - from: src
//       to: sink
//   sources: [src]
//
// A link without a kind takes the first free ports (queues before fifos); with a kind it uses the given pins.
//
package graph

import (
	"github.com/openziti/mediastreamer"
	_ "github.com/openziti/mediastreamer/filters"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"io/ioutil"
)

type Description struct {
	Name       string                 `yaml:"name"`
	Profile    map[string]interface{} `yaml:"profile"`
	Instrument *InstrumentDescription `yaml:"instrument"`
	Filters    []*FilterDescription   `yaml:"filters"`
	Links      []*LinkDescription     `yaml:"links"`
	Sources    []string               `yaml:"sources"`
}

type InstrumentDescription struct {
	Name   string                 `yaml:"name"`
	Config map[string]interface{} `yaml:"config"`
}

type FilterDescription struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type LinkDescription struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Kind    string `yaml:"kind"`
	FromPin int    `yaml:"from_pin"`
	ToPin   int    `yaml:"to_pin"`
}

func Load(path string) (*Description, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading [%s]", path)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing [%s]", path)
	}
	return d, nil
}

func Parse(data []byte) (*Description, error) {
	d := &Description{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = "graph"
	}
	return d, nil
}

// Notification is one event raised by a filter of the graph.
type Notification struct {
	Filter string
	Event  mediastreamer.Event
	Arg    interface{}
}

// Graph is a built description: constructed filters, their links, and the timer sync driving them.
type Graph struct {
	Name    string
	Profile *mediastreamer.Profile
	Sync    *mediastreamer.Sync

	filters map[string]mediastreamer.Filter
	order   []string
	links   [][2]string
	events  chan *Notification
}

// Build constructs every filter, links them and attaches the sources to a new timer sync. The graph is compiled once
// to reject cycles before anything runs. On error, whatever was built is torn down.
//
func Build(d *Description) (g *Graph, err error) {
	profile := mediastreamer.NewBaselineProfile()
	if d.Profile != nil {
		if err := profile.Load(d.Profile); err != nil {
			return nil, err
		}
	}
	var instrument mediastreamer.Instrument
	if d.Instrument != nil {
		if instrument, err = mediastreamer.NewInstrument(d.Instrument.Name, d.Instrument.Config); err != nil {
			return nil, errors.Wrap(err, "error creating instrument")
		}
	}

	g = &Graph{
		Name:    d.Name,
		Profile: profile,
		filters: make(map[string]mediastreamer.Filter),
		events:  make(chan *Notification, 16),
	}
	defer func() {
		if err != nil {
			if terr := g.Teardown(); terr != nil {
				logrus.Errorf("error tearing down partial graph (%v)", terr)
			}
			g = nil
		}
	}()

	for _, fd := range d.Filters {
		if fd.Name == "" {
			return g, errors.Errorf("filter of type [%s] has no name", fd.Type)
		}
		if _, found := g.filters[fd.Name]; found {
			return g, errors.Errorf("duplicate filter [%s]", fd.Name)
		}
		f, err := mediastreamer.NewFilter(fd.Type, fd.Params)
		if err != nil {
			return g, errors.Wrapf(err, "error creating filter [%s]", fd.Name)
		}
		if named, ok := f.(interface{ SetName(string) }); ok {
			named.SetName(fd.Name)
		}
		if notifier, ok := f.(interface {
			SetNotifyFunc(mediastreamer.NotifyFunc)
		}); ok {
			notifier.SetNotifyFunc(g.notify)
		}
		g.filters[fd.Name] = f
		g.order = append(g.order, fd.Name)
	}

	for _, ld := range d.Links {
		if err := g.link(ld); err != nil {
			return g, err
		}
	}

	g.Sync = mediastreamer.NewTimerSync(d.Name, profile, instrument)
	for _, name := range d.Sources {
		f, found := g.filters[name]
		if !found {
			return g, errors.Errorf("unknown source [%s]", name)
		}
		if err := g.Sync.Attach(f); err != nil {
			return g, err
		}
	}
	if _, err := g.Sync.Compile(); err != nil {
		return g, err
	}
	logrus.Infof("built graph [%s] with [%d] filters and [%d] links", g.Name, len(g.filters), len(g.links))
	return g, nil
}

func (self *Graph) link(ld *LinkDescription) error {
	from, found := self.filters[ld.From]
	if !found {
		return errors.Errorf("unknown link source [%s]", ld.From)
	}
	to, found := self.filters[ld.To]
	if !found {
		return errors.Errorf("unknown link target [%s]", ld.To)
	}

	var err error
	switch ld.Kind {
	case "":
		err = mediastreamer.AddLink(from, to)
	case "fifo":
		err = mediastreamer.Link(from, ld.FromPin, to, ld.ToPin, mediastreamer.LinkFifo)
	case "queue":
		err = mediastreamer.Link(from, ld.FromPin, to, ld.ToPin, mediastreamer.LinkQueue)
	default:
		err = errors.Errorf("unknown link kind [%s]", ld.Kind)
	}
	if err != nil {
		return errors.Wrapf(err, "error linking [%s] -> [%s]", ld.From, ld.To)
	}
	pair := [2]string{ld.From, ld.To}
	for _, l := range self.links {
		if l == pair {
			return nil
		}
	}
	self.links = append(self.links, pair)
	return nil
}

func (self *Graph) notify(f mediastreamer.Filter, event mediastreamer.Event, arg interface{}) {
	select {
	case self.events <- &Notification{Filter: f.Name(), Event: event, Arg: arg}:
	default:
		logrus.Warnf("dropped event [%d] from [%s]", event, f.Name())
	}
}

// Events delivers filter notifications, such as end of file. Events are dropped while the channel is full.
func (self *Graph) Events() <-chan *Notification {
	return self.events
}

func (self *Graph) Filter(name string) mediastreamer.Filter {
	return self.filters[name]
}

// Filters lists filter names in description order.
func (self *Graph) Filters() []string {
	return append([]string(nil), self.order...)
}

func (self *Graph) Start() error {
	return self.Sync.Start()
}

func (self *Graph) Stop() {
	self.Sync.Stop()
}

// Teardown stops the sync, then detaches, unlinks and destroys every filter.
func (self *Graph) Teardown() error {
	if self.Sync != nil {
		self.Sync.Stop()
		for _, f := range self.Sync.Attached() {
			if err := self.Sync.Detach(f); err != nil {
				return err
			}
		}
		self.Sync.Destroy()
		self.Sync = nil
	}
	for _, l := range self.links {
		if err := mediastreamer.RemoveLinks(self.filters[l[0]], self.filters[l[1]]); err != nil {
			return errors.Wrapf(err, "error unlinking [%s] -> [%s]", l[0], l[1])
		}
	}
	self.links = nil
	for _, name := range self.order {
		if err := mediastreamer.Destroy(self.filters[name]); err != nil {
			return err
		}
	}
	self.filters = make(map[string]mediastreamer.Filter)
	self.order = nil
	return nil
}
