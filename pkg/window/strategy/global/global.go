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

// Package global implements the Global window, a single never-closing window which turns a keyed aggregation
// into an unwindowed running aggregate.
package global

import (
	"time"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window"
)

// Global assigns every element to window.GlobalWindow.
type Global struct{}

var _ window.Windower = (*Global)(nil)

func NewGlobal() *Global {
	return &Global{}
}

func (g *Global) Strategy() window.Strategy {
	return window.Global
}

func (g *Global) AssignWindows(time.Time) []window.Window {
	return []window.Window{window.GlobalWindow}
}
