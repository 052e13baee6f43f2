/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package generator writes synthetic observation batches into an input directory at a fixed rate, for running the
// pipeline without a live feed.
//
// The n-th generated reading belongs to station n%10. Station 0 reports cold temperatures between 10 and 15 degrees,
// every other station between 20 and 40. Humidity is uniform between 35 and 75, and the coordinates are
// (37+n%5, -122+n%5).
package generator

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/util"
)

type options struct {
	interval    time.Duration
	rowsPerTick int
	limit       int64
	stations    []string
	clock       func() time.Time
	rand        *rand.Rand
	logger      *zap.SugaredLogger
}

// Option to apply different options
type Option func(*options)

// WithInterval sets the time between two batch files.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithRowsPerTick sets the number of readings per batch file.
func WithRowsPerTick(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.rowsPerTick = n
		}
	}
}

// WithLimit stops the generator after n files, zero runs until the context is done.
func WithLimit(n int64) Option {
	return func(o *options) {
		o.limit = n
	}
}

// WithStations replaces the numeric station ids. Reading n is attributed to stations[(n%10)%len(stations)].
func WithStations(stations []string) Option {
	return func(o *options) {
		o.stations = stations
	}
}

// WithClock sets the source of event times.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithSeed makes the generated values reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rand = rand.New(rand.NewSource(seed))
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Generator produces mock observation batches.
type Generator struct {
	dir  string
	opts *options
	// value is the running reading number.
	value atomic.Int64
	files atomic.Int64
	log   *zap.SugaredLogger
}

// NewGenerator returns a generator writing into dir, which is created when missing.
func NewGenerator(dir string, opts ...Option) (*Generator, error) {
	o := &options{
		interval:    time.Second,
		rowsPerTick: 5,
		clock:       time.Now,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create input directory %q: %w", dir, err)
	}
	log := o.logger
	if log == nil {
		log = logging.NewLogger()
	}
	return &Generator{
		dir:  dir,
		opts: o,
		log:  log.Named("generator").With("dir", dir),
	}, nil
}

// Start writes a batch every interval until the context is done.
func (g *Generator) Start(ctx context.Context) error {
	g.log.Infow("Starting mock generator", zap.Duration("interval", g.opts.interval), zap.Int("rowsPerTick", g.opts.rowsPerTick))
	ticker := time.NewTicker(g.opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			g.log.Infow("Mock generator stopped", zap.Int64("files", g.files.Load()), zap.Int64("rows", g.value.Load()))
			return nil
		case <-ticker.C:
			if _, err := g.Emit(); err != nil {
				// a missed batch is not fatal, the next tick writes a new one
				g.log.Errorw("Failed to write mock batch", zap.Error(err))
				continue
			}
			if g.opts.limit > 0 && g.files.Load() >= g.opts.limit {
				g.log.Infow("Mock generator reached its limit", zap.Int64("files", g.files.Load()))
				return nil
			}
		}
	}
}

// Emit writes one batch file and returns its path.
func (g *Generator) Emit() (string, error) {
	now := g.opts.clock().UTC()
	var buf bytes.Buffer
	for i := 0; i < g.opts.rowsPerTick; i++ {
		line, err := observation.Encode(g.next(now))
		if err != nil {
			generateErrorCount.Inc()
			return "", err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	seq := g.files.Inc()
	// the nano timestamp keeps file names ordered across restarts, seq across equal clock readings
	name := fmt.Sprintf("mock-%019d-%08d.json", now.UnixNano(), seq)
	path := filepath.Join(g.dir, name)
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o644); err != nil {
		generateErrorCount.Inc()
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}
	generatedFileCount.Inc()
	generatedRowCount.Add(float64(g.opts.rowsPerTick))
	g.log.Debugw("Wrote mock batch", zap.String("file", name), zap.Int("rows", g.opts.rowsPerTick))
	return path, nil
}

func (g *Generator) next(ts time.Time) observation.Observation {
	n := g.value.Inc() - 1
	r := g.opts.rand
	temp := 20 + r.Float64()*20
	if n%10 == 0 {
		temp = 10 + r.Float64()*5
	}
	return observation.Observation{
		StationID:    g.station(n),
		TemperatureC: temp,
		HumidityPct:  35 + r.Float64()*40,
		EventTime:    ts,
		Latitude:     observation.Float(float64(37 + n%5)),
		Longitude:    observation.Float(float64(-122 + n%5)),
	}
}

func (g *Generator) station(n int64) string {
	if len(g.opts.stations) == 0 {
		return strconv.FormatInt(n%10, 10)
	}
	return g.opts.stations[int(n%10)%len(g.opts.stations)]
}
