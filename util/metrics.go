package util

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MetricsId describes one directory of sample files written by a metrics instrument instance.
type MetricsId struct {
	Id     string            `json:"id"`
	Values map[string]string `json:"values,omitempty"`
}

func WriteMetricsId(id, outPath string, values map[string]string) error {
	data, err := json.MarshalIndent(&MetricsId{Id: id, Values: values}, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filepath.Join(outPath, "metrics.id"), data, os.ModePerm)
}

func ReadMetricsId(path string) (*MetricsId, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	metricsId := &MetricsId{}
	if err = json.Unmarshal(data, metricsId); err != nil {
		return nil, errors.Wrapf(err, "error decoding [%s]", path)
	}
	return metricsId, nil
}

// DiscoverMetrics finds every metrics.id below root, keyed by the directory holding it.
func DiscoverMetrics(root string) (map[string]*MetricsId, error) {
	var metricsIdPaths []string
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && filepath.Base(path) == "metrics.id" {
			metricsIdPaths = append(metricsIdPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metricsMap := make(map[string]*MetricsId)
	for _, metricsIdPath := range metricsIdPaths {
		metricsId, err := ReadMetricsId(metricsIdPath)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading [%s]", metricsIdPath)
		}
		metricsMap[filepath.Dir(metricsIdPath)] = metricsId
	}
	return metricsMap, nil
}

type Sample struct {
	Ts time.Time
	V  int64
}

// WriteSamples writes samples as "<unix nanos>,<value>" lines into <outPath>/<name>.csv.
func WriteSamples(name, outPath string, samples []*Sample) error {
	path := filepath.Join(outPath, fmt.Sprintf("%s.csv", name))
	oF, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return err
	}
	defer func() { _ = oF.Close() }()

	w := bufio.NewWriter(oF)
	for _, sample := range samples {
		if _, err := fmt.Fprintf(w, "%d,%d\n", sample.Ts.UnixNano(), sample.V); err != nil {
			return errors.Wrapf(err, "error writing [%s]", path)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "error flushing [%s]", path)
	}
	logrus.Debugf("wrote [%d] samples to [%s]", len(samples), path)
	return nil
}

// ReadSamples reads a file written by WriteSamples, in timestamp order.
func ReadSamples(path string) ([]*Sample, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var samples []*Sample
	scanner := bufio.NewScanner(bytes.NewBuffer(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens := strings.Split(line, ",")
		if len(tokens) != 2 {
			return nil, errors.Errorf("malformed sample [%s] in [%s]", line, path)
		}
		ts, err := strconv.ParseInt(tokens[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad timestamp in [%s]", path)
		}
		v, err := strconv.ParseInt(tokens[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad value in [%s]", path)
		}
		samples = append(samples, &Sample{Ts: time.Unix(0, ts), V: v})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Ts.Before(samples[j].Ts) })
	return samples, nil
}
