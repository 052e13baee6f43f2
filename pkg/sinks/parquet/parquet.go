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

// Package parquet writes query output as parquet files, one directory per query.
//
// An append sink writes part-<seq>.parquet per batch; the union of all parts is the full history. A replace sink
// writes snapshot-<seq>.parquet and then removes every other snapshot, so the lexicographically latest snapshot
// is always a complete view. Files appear through a rename, a reader never sees a partial file, and rewriting the
// same sequence number replaces the file with identical content.
package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	pqt "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/util"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
)

const (
	appendPrefix  = "part-"
	replacePrefix = "snapshot-"
	suffix        = ".parquet"
)

// ToParquet writes rows of a single row type into a directory.
type ToParquet struct {
	name      string
	dir       string
	mode      sinks.Mode
	prototype any
	log       *zap.SugaredLogger
}

var _ sinks.Sinker = (*ToParquet)(nil)

type Option func(*ToParquet)

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(t *ToParquet) {
		t.log = log
	}
}

// NewToParquet returns a sink writing rows shaped like prototype, a pointer to a row struct carrying parquet tags.
func NewToParquet(name, dir string, mode sinks.Mode, prototype any, opts ...Option) (*ToParquet, error) {
	t := &ToParquet{
		name:      name,
		dir:       dir,
		mode:      mode,
		prototype: prototype,
	}
	for _, o := range opts {
		o(t)
	}
	if t.log == nil {
		t.log = logging.NewLogger()
	}
	t.log = t.log.Named("parquet-sink").With(zap.String("sink", name))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}
	return t, nil
}

func (t *ToParquet) Name() string {
	return t.name
}

func (t *ToParquet) Mode() sinks.Mode {
	return t.mode
}

// Write writes the rows of batch seq. An append sink writes nothing for an empty batch, a replace sink writes an
// empty snapshot since the view is empty.
func (t *ToParquet) Write(ctx context.Context, seq int64, rows []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.mode == sinks.Append && len(rows) == 0 {
		return nil
	}
	path := filepath.Join(t.dir, FileName(t.mode, seq))
	if err := util.AtomicWrite(path, func(tmp string) error {
		return t.writeFile(ctx, tmp, rows)
	}); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	t.log.Debugw("Wrote parquet file", zap.String("path", path), zap.Int("rows", len(rows)))
	if t.mode == sinks.Replace {
		return t.removeStale(path)
	}
	return nil
}

func (t *ToParquet) writeFile(ctx context.Context, path string, rows []any) (err error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, fw.Close())
	}()
	pw, err := writer.NewParquetWriter(fw, t.prototype, 1)
	if err != nil {
		return err
	}
	pw.CompressionType = pqt.CompressionCodec_SNAPPY
	for i, row := range rows {
		if i%1024 == 0 {
			if err = ctx.Err(); err != nil {
				return multierr.Append(err, pw.WriteStop())
			}
		}
		if err = pw.Write(row); err != nil {
			return multierr.Append(err, pw.WriteStop())
		}
	}
	return pw.WriteStop()
}

// removeStale removes every snapshot except current.
func (t *ToParquet) removeStale(current string) error {
	files, err := Files(t.dir)
	if err != nil {
		return err
	}
	var errs error
	for _, f := range files {
		if f == current || !strings.HasPrefix(filepath.Base(f), replacePrefix) {
			continue
		}
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// FileName returns the name of the file written for batch seq.
func FileName(mode sinks.Mode, seq int64) string {
	prefix := appendPrefix
	if mode == sinks.Replace {
		prefix = replacePrefix
	}
	return fmt.Sprintf("%s%020d%s", prefix, seq, suffix)
}

// Files returns the complete parquet files of dir in lexicographic order.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || util.IsHiddenOrTemp(e.Name()) || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LatestFile returns the lexicographically latest parquet file of dir, empty if there is none.
func LatestFile(dir string) (string, error) {
	files, err := Files(dir)
	if err != nil || len(files) == 0 {
		return "", err
	}
	return files[len(files)-1], nil
}

// ReadRows reads every row of a parquet file written for row type T.
func ReadRows[T any](path string) (rows []T, err error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, fr.Close())
	}()
	pr, err := reader.NewParquetReader(fr, new(T), 1)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()
	rows = make([]T, pr.GetNumRows())
	if len(rows) == 0 {
		return rows, nil
	}
	if err = pr.Read(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadDir reads the rows of every file of dir in file order.
func ReadDir[T any](dir string) ([]T, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}
	all := make([]T, 0)
	for _, f := range files {
		rows, err := ReadRows[T](f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", f, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}
