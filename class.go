package mediastreamer

import (
	"github.com/pkg/errors"
	"sort"
	"sync"
)

type FilterType int

const (
	FilterOther FilterType = iota
	FilterDiskIO
	FilterAudioCodec
	FilterVideoCodec
	FilterNet
	FilterVideoIO
	FilterAudioIO
)

func (self FilterType) String() string {
	switch self {
	case FilterDiskIO:
		return "disk_io"
	case FilterAudioCodec:
		return "audio_codec"
	case FilterVideoCodec:
		return "video_codec"
	case FilterNet:
		return "net"
	case FilterVideoIO:
		return "video_io"
	case FilterAudioIO:
		return "audio_io"
	default:
		return "other"
	}
}

type Attribute uint8

const (
	// IsSource filters have no upstream and run exactly once per tick.
	IsSource Attribute = 1 << iota
	IsSink
	// CanSync filters own the real block size of the graph and set the tick size themselves.
	CanSync
)

// Class is the static descriptor shared by every instance of a filter type. Registered classes are never mutated;
// lookups return copies.
//
type Class struct {
	Name         string
	Type         FilterType
	MaxFInputs   int
	MaxFOutputs  int
	MaxQInputs   int
	MaxQOutputs  int
	RGranularity int
	WGranularity int
	ROffset      int
	WOffset      int
	Attributes   Attribute
	id           int
}

func (self Class) Is(attr Attribute) bool {
	return self.Attributes&attr == attr
}

// Id is the registration order of the class; the scheduler uses it to cluster instances of the same class.
func (self Class) Id() int {
	return self.id
}

// Constructor builds a filter instance from configuration parameters.
type Constructor func(params map[string]interface{}) (Filter, error)

type registration struct {
	class *Class
	ctor  Constructor
}

var registry = make(map[string]*registration)
var registryLock sync.Mutex

// RegisterClass records the descriptor for a filter type, usually from an init function, and returns the shared
// immutable copy. ctor may be nil for classes that can only be built from code. Registering a name twice panics.
//
func RegisterClass(class Class, ctor Constructor) *Class {
	registryLock.Lock()
	defer registryLock.Unlock()

	if _, found := registry[class.Name]; found {
		panic(errors.Errorf("filter class [%s] already registered", class.Name))
	}
	c := class
	c.id = len(registry) + 1
	registry[c.Name] = &registration{class: &c, ctor: ctor}
	return &c
}

func LookupClass(name string) (Class, bool) {
	registryLock.Lock()
	defer registryLock.Unlock()

	if r, found := registry[name]; found {
		return *r.class, true
	}
	return Class{}, false
}

// ClassNames lists registered classes in registration order.
func ClassNames() []string {
	registryLock.Lock()
	defer registryLock.Unlock()

	var classes []*Class
	for _, r := range registry {
		classes = append(classes, r.class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].id < classes[j].id })
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.Name)
	}
	return names
}

// NewFilter constructs a registered filter type by name.
func NewFilter(name string, params map[string]interface{}) (Filter, error) {
	registryLock.Lock()
	r, found := registry[name]
	registryLock.Unlock()

	if !found {
		return nil, errors.Wrapf(ErrUnknownClass, "[%s]", name)
	}
	if r.ctor == nil {
		return nil, errors.Errorf("filter class [%s] has no constructor", name)
	}
	f, err := r.ctor(params)
	if err != nil {
		return nil, errors.Wrapf(err, "error constructing [%s]", name)
	}
	return f, nil
}
