// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klattcontrol

import (
	"fmt"
	"log"
	"math"
	"reflect"
	"strconv"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/emer/formant/klatt"
	"github.com/goki/gi/gi"
)

// frameCol maps one table column onto a FrameParms field, or onto one
// element of a formant slice when idx >= 0
type frameCol struct {
	name  string
	field int
	idx   int
	kind  reflect.Kind
}

var frameCols = func() []frameCol {
	var cols []frameCol
	typ := reflect.TypeOf(klatt.FrameParms{})
	for fi := 0; fi < typ.NumField(); fi++ {
		fld := typ.Field(fi)
		switch fld.Type.Kind() {
		case reflect.Slice:
			for i := 0; i < klatt.MaxOralFormants; i++ {
				cols = append(cols, frameCol{fld.Name + strconv.Itoa(i+1), fi, i, reflect.Slice})
			}
		default:
			cols = append(cols, frameCol{fld.Name, fi, -1, fld.Type.Kind()})
		}
	}
	return cols
}()

func (fc *frameCol) get(fp *klatt.FrameParms) float64 {
	v := reflect.ValueOf(fp).Elem().Field(fc.field)
	switch fc.kind {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Slice:
		if fc.idx < v.Len() {
			return v.Index(fc.idx).Float()
		}
		return math.NaN()
	}
	return v.Float()
}

func (fc *frameCol) set(fp *klatt.FrameParms, val float64) {
	v := reflect.ValueOf(fp).Elem().Field(fc.field)
	switch fc.kind {
	case reflect.Bool:
		v.SetBool(val != 0 && !math.IsNaN(val))
	case reflect.Slice:
		for v.Len() <= fc.idx {
			v.Set(reflect.Append(v, reflect.ValueOf(math.NaN())))
		}
		v.Index(fc.idx).SetFloat(val)
	default:
		v.SetFloat(val)
	}
}

// trimFormants drops trailing missing formants
func trimFormants(vals []float64) []float64 {
	n := len(vals)
	for n > 0 && math.IsNaN(vals[n-1]) {
		n--
	}
	return vals[:n]
}

// ConfigFramesTable configures dt with one row per frame and one float column per
// frame parameter. Formant slices are spread over numbered columns (OralFormantFreq1 ...).
func ConfigFramesTable(dt *etable.Table, rows int) {
	dt.SetMetaData("name", "Frames")
	dt.SetMetaData("desc", "Klatt synthesizer frame parameters, NaN for missing values")
	sch := make(etable.Schema, len(frameCols))
	for i, fc := range frameCols {
		sch[i] = etable.Column{Name: fc.name, Type: etensor.FLOAT64}
	}
	dt.SetFromSchema(sch, rows)
}

// FramesToTable writes the frames into dt, replacing its contents
func FramesToTable(frames []*klatt.FrameParms, dt *etable.Table) {
	ConfigFramesTable(dt, len(frames))
	for r, fp := range frames {
		for i := range frameCols {
			fc := &frameCols[i]
			dt.SetCellFloat(fc.name, r, fc.get(fp))
		}
	}
}

// FramesFromTable reads one frame per row. Columns missing from dt keep the Defaults value.
func FramesFromTable(dt *etable.Table) ([]*klatt.FrameParms, error) {
	if dt.NumCols() == 0 {
		return nil, fmt.Errorf("klattcontrol: frames table has no columns")
	}
	frames := make([]*klatt.FrameParms, dt.Rows)
	for r := range frames {
		fp := &klatt.FrameParms{}
		fp.Defaults()
		for i := range frameCols {
			fc := &frameCols[i]
			if dt.ColIdx(fc.name) < 0 {
				continue
			}
			fc.set(fp, dt.CellFloat(fc.name, r))
		}
		fp.OralFormantFreq = trimFormants(fp.OralFormantFreq)
		fp.OralFormantBw = trimFormants(fp.OralFormantBw)
		fp.OralFormantDb = trimFormants(fp.OralFormantDb)
		frames[r] = fp
	}
	return frames, nil
}

// SaveFramesCSV saves the frames as a tab separated table with headers
func SaveFramesCSV(frames []*klatt.FrameParms, fn gi.FileName) error {
	dt := &etable.Table{}
	FramesToTable(frames, dt)
	if err := dt.SaveCSV(fn, etable.Tab, etable.Headers); err != nil {
		log.Printf("klattcontrol.SaveFramesCSV: %v", err)
		return err
	}
	return nil
}

// OpenFramesCSV opens frames saved by SaveFramesCSV
func OpenFramesCSV(fn gi.FileName) ([]*klatt.FrameParms, error) {
	dt := &etable.Table{}
	ConfigFramesTable(dt, 0)
	if err := dt.OpenCSV(fn, etable.Tab); err != nil {
		log.Printf("klattcontrol.OpenFramesCSV: %v", err)
		return nil, err
	}
	return FramesFromTable(dt)
}
