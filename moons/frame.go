// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package moons

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// CSV column names used by WriteCSV/ReadCSV.
var csvColumns = []string{"x1", "x2", "label"}

var csvFieldTypes = map[string]series.Type{
	"x1":    series.Float,
	"x2":    series.Float,
	"label": series.Int,
}

// DataFrame converts the dataset to a gota dataframe with columns
// x1, x2 and label.
func (ds Dataset) DataFrame() dataframe.DataFrame {
	labels := make([]int, ds.NumExamples())
	for i, y := range ds.Y {
		labels[i] = int(y)
	}
	return dataframe.New(
		series.New(ds.Column(0), series.Float, "x1"),
		series.New(ds.Column(1), series.Float, "x2"),
		series.New(labels, series.Int, "label"),
	)
}

// WriteCSV writes the dataset as CSV with a header row.
func (ds Dataset) WriteCSV(w io.Writer) error {
	if err := ds.DataFrame().WriteCSV(w); err != nil {
		return errors.Wrapf(err, "writing dataset %q as CSV", ds.Name)
	}
	return nil
}

// SaveCSV writes the dataset as CSV to path.
func (ds Dataset) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer func() { _ = f.Close() }()
	return ds.WriteCSV(f)
}

// ReadCSV parses a dataset in the format written by WriteCSV: a header row
// followed by x1,x2,label records.
func ReadCSV(r io.Reader, name string) (Dataset, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.WithTypes(csvFieldTypes))
	if df.Err != nil {
		return Dataset{}, errors.Wrapf(df.Err, "parsing dataset %q from CSV", name)
	}
	return fromDataFrame(df, name)
}

// LoadCSV reads a dataset CSV file. The dataset name is taken from the
// file name.
func LoadCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, errors.Wrapf(err, "opening %q", path)
	}
	defer func() { _ = f.Close() }()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(f, name)
}

func fromDataFrame(df dataframe.DataFrame, name string) (Dataset, error) {
	names := df.Names()
	for _, col := range csvColumns {
		if !slices.Contains(names, col) {
			return Dataset{}, errors.Errorf("dataset %q misses column %q, found %q", name, col, names)
		}
	}
	x1 := df.Col("x1").Float()
	x2 := df.Col("x2").Float()
	labels := df.Col("label").Float()
	ds := Dataset{
		Name: name,
		X:    make([]float32, 2*df.Nrow()),
		Y:    make([]float32, df.Nrow()),
	}
	for i := 0; i < df.Nrow(); i++ {
		ds.set(i, x1[i], x2[i], float32(labels[i]))
	}
	return ds, nil
}

// Describe returns a printable summary (mean, stddev, quartiles) of the
// dataset columns, handy as a first notebook cell.
func (ds Dataset) Describe() string {
	return ds.DataFrame().Describe().String()
}
