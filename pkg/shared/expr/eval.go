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

// Package expr evaluates user supplied boolean predicates over observations, such as the humidity band of the
// attention query. Expressions see the fields station_id, temperature, humidity, timestamp, latitude,
// longitude and has_coordinates, plus the sprig functions and the int and string helpers.
package expr

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
)

var sprigFuncMap = sprig.GenericFuncMap()

// Predicate is a compiled boolean expression. It is safe for concurrent use.
type Predicate struct {
	expression string
	program    *vm.Program
}

// CompileBool compiles an expression which must evaluate to a bool.
func CompileBool(expression string) (*Predicate, error) {
	sample := observation.Observation{
		EventTime: time.Unix(0, 0).UTC(),
		Latitude:  observation.Float(0),
		Longitude: observation.Float(0),
	}
	program, err := expr.Compile(expression, expr.Env(getFuncMap(sample)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("unable to compile expression '%s': %s", expression, err)
	}
	return &Predicate{expression: expression, program: program}, nil
}

// EvalBool evaluates the predicate against the observation.
func (p *Predicate) EvalBool(o observation.Observation) (bool, error) {
	result, err := expr.Run(p.program, getFuncMap(o))
	if err != nil {
		return false, fmt.Errorf("unable to evaluate expression '%s': %s", p.expression, err)
	}
	resultBool, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unable to cast expression result '%v' to bool", result)
	}
	return resultBool, nil
}

func (p *Predicate) String() string {
	return p.expression
}

func getFuncMap(o observation.Observation) map[string]interface{} {
	var lat, lon float64
	if o.HasCoordinates() {
		lat, lon = *o.Latitude, *o.Longitude
	}
	return map[string]interface{}{
		"station_id":      o.StationID,
		"temperature":     o.TemperatureC,
		"humidity":        o.HumidityPct,
		"timestamp":       o.EventTime,
		"latitude":        lat,
		"longitude":       lon,
		"has_coordinates": o.HasCoordinates(),
		"sprig":           sprigFuncMap,
		"int":             _int,
		"string":          _string,
	}
}

func _int(v interface{}) int {
	switch w := v.(type) {
	case string:
		i, err := strconv.Atoi(w)
		if err != nil {
			panic(fmt.Errorf("cannot convert %q to int", v))
		}
		return i
	case float64:
		return int(w)
	case int:
		return w
	default:
		panic(fmt.Errorf("cannot convert %v to int", v))
	}
}

func _string(v interface{}) string {
	switch w := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(w)
	default:
		return fmt.Sprintf("%v", v)
	}
}
