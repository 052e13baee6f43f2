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

package sinks

// CriticalRow is one alert of the critical alert feed.
type CriticalRow struct {
	StationID   string   `parquet:"name=station_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"station_id"`
	Temperature float64  `parquet:"name=temperature, type=DOUBLE" json:"temperature"`
	Humidity    float64  `parquet:"name=humidity, type=DOUBLE" json:"humidity"`
	Timestamp   int64    `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"timestamp"`
	Latitude    *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"latitude,omitempty"`
	Longitude   *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"longitude,omitempty"`
	Severity    string   `parquet:"name=severity, type=BYTE_ARRAY, convertedtype=UTF8" json:"severity"`
	AlertReason string   `parquet:"name=alert_reason, type=BYTE_ARRAY, convertedtype=UTF8" json:"alert_reason"`
	HeatIndexC  *float64 `parquet:"name=heat_index_c, type=DOUBLE, repetitiontype=OPTIONAL" json:"heat_index_c,omitempty"`
}

// AverageRow is one tumbling window of the rolling average view.
type AverageRow struct {
	StationID      string   `parquet:"name=station_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"station_id"`
	Latitude       *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"latitude,omitempty"`
	Longitude      *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"longitude,omitempty"`
	AvgTemperature float64  `parquet:"name=avg_temperature, type=DOUBLE" json:"avg_temperature"`
	AvgHumidity    float64  `parquet:"name=avg_humidity, type=DOUBLE" json:"avg_humidity"`
	WindowStart    int64    `parquet:"name=window_start, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"window_start"`
	WindowEnd      int64    `parquet:"name=window_end, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"window_end"`
	Readings       int64    `parquet:"name=readings, type=INT64" json:"readings"`
	IsFinal        bool     `parquet:"name=is_final, type=BOOLEAN" json:"is_final"`
}

// AttentionRow is the running count of out of band humidity readings of one station.
type AttentionRow struct {
	StationID        string   `parquet:"name=station_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"station_id"`
	CriticalReadings int64    `parquet:"name=critical_readings, type=INT64" json:"critical_readings"`
	Latitude         *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"latitude,omitempty"`
	Longitude        *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"longitude,omitempty"`
}

// BaselineRow is one sliding window of the long horizon baseline view.
type BaselineRow struct {
	StationID        string  `parquet:"name=station_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"station_id"`
	AvgTemperature7d float64 `parquet:"name=avg_temperature_7d, type=DOUBLE" json:"avg_temperature_7d"`
	AvgHumidity7d    float64 `parquet:"name=avg_humidity_7d, type=DOUBLE" json:"avg_humidity_7d"`
	WindowStart      int64   `parquet:"name=window_start, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"window_start"`
	WindowEnd        int64   `parquet:"name=window_end, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"window_end"`
	Readings         int64   `parquet:"name=readings, type=INT64" json:"readings"`
	IsFinal          bool    `parquet:"name=is_final, type=BOOLEAN" json:"is_final"`
}
