package filters

import (
	"bufio"
	"github.com/openziti/mediastreamer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"io"
	"os"
)

var (
	FileSourceClass *mediastreamer.Class
	FileSinkClass   *mediastreamer.Class
)

func init() {
	FileSourceClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:         "file_source",
		Type:         mediastreamer.FilterDiskIO,
		MaxFOutputs:  1,
		WGranularity: Granule,
		Attributes:   mediastreamer.IsSource,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		config := &FileConfig{}
		if err := bind(params, config); err != nil {
			return nil, err
		}
		return NewFileSource(config)
	})

	FileSinkClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:         "file_sink",
		Type:         mediastreamer.FilterDiskIO,
		MaxFInputs:   1,
		RGranularity: Granule,
		Attributes:   mediastreamer.IsSink,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		config := &FileConfig{}
		if err := bind(params, config); err != nil {
			return nil, err
		}
		return NewFileSink(config)
	})
}

type FileConfig struct {
	Path string `cf:"path"`
}

// FileSource streams a file one granule per tick. The last, partial granule is written short; after it the filter
// raises EventEOF once and goes quiet. The file is opened by the first Setup and closed by Destroy, so a recompile
// or a Stop/Start resumes where reading left off.
//
type FileSource struct {
	mediastreamer.BaseFilter
	config *FileConfig
	f      *os.File
	eof    bool
}

func NewFileSource(config *FileConfig) (*FileSource, error) {
	if config.Path == "" {
		return nil, errors.New("missing path")
	}
	f := &FileSource{config: config}
	f.Init(f, FileSourceClass)
	return f, nil
}

func (self *FileSource) Setup(*mediastreamer.Sync) error {
	if self.f != nil {
		return nil
	}
	f, err := os.Open(self.config.Path)
	if err != nil {
		return errors.Wrapf(err, "error opening [%s]", self.config.Path)
	}
	self.f = f
	return nil
}

func (self *FileSource) Destroy() {
	if self.f != nil {
		if err := self.f.Close(); err != nil {
			logrus.Errorf("error closing [%s] (%v)", self.config.Path, err)
		}
		self.f = nil
	}
}

func (self *FileSource) Process() {
	out := self.OutFifo(0)
	if self.f == nil || self.eof || out == nil {
		return
	}
	buf, err := out.GetWritePtr(Granule)
	if err != nil {
		return
	}
	n, err := io.ReadFull(self.f, buf)
	if n < Granule {
		_ = out.UpdateWritePtr(n)
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		self.eof = true
		self.Notify(mediastreamer.EventEOF, self.config.Path)
	} else if err != nil {
		self.eof = true
		self.Notify(mediastreamer.EventError, err)
	}
}

// FileSink appends every granule it reads to a file. The file is truncated by the first Setup, flushed by every
// Unsetup and closed by Destroy.
//
type FileSink struct {
	mediastreamer.BaseFilter
	config  *FileConfig
	f       *os.File
	w       *bufio.Writer
	written int64
}

func NewFileSink(config *FileConfig) (*FileSink, error) {
	if config.Path == "" {
		return nil, errors.New("missing path")
	}
	f := &FileSink{config: config}
	f.Init(f, FileSinkClass)
	f.SetReadMinGranularity(1)
	return f, nil
}

func (self *FileSink) Setup(*mediastreamer.Sync) error {
	if self.f != nil {
		return nil
	}
	f, err := os.OpenFile(self.config.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return errors.Wrapf(err, "error creating [%s]", self.config.Path)
	}
	self.f = f
	self.w = bufio.NewWriter(f)
	return nil
}

func (self *FileSink) Unsetup(*mediastreamer.Sync) {
	if self.w != nil {
		if err := self.w.Flush(); err != nil {
			logrus.Errorf("error flushing [%s] (%v)", self.config.Path, err)
		}
	}
}

func (self *FileSink) Destroy() {
	if self.f != nil {
		self.Unsetup(nil)
		if err := self.f.Close(); err != nil {
			logrus.Errorf("error closing [%s] (%v)", self.config.Path, err)
		}
		self.f = nil
		self.w = nil
	}
}

func (self *FileSink) Process() {
	in := self.InFifo(0)
	n := in.ReadSize()
	if n > Granule {
		n = Granule
	}
	buf, err := in.GetReadPtr(n)
	if err != nil || self.w == nil {
		return
	}
	if _, err := self.w.Write(buf); err != nil {
		logrus.Errorf("error writing [%s] (%v)", self.config.Path, err)
		return
	}
	self.written += int64(len(buf))
}

// Written is the number of bytes handed to the file.
func (self *FileSink) Written() int64 {
	return self.written
}
