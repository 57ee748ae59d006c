// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Policy holds the timing rules of one question interaction.
type Policy struct {
	RepeatWindowSeconds     int `mapstructure:"repeat_window_seconds" json:"repeat_window_seconds" validate:"gte=1"`
	MaxRepeats              int `mapstructure:"max_repeats" json:"max_repeats" validate:"gte=0"`
	PreRecordDelaySeconds   int `mapstructure:"pre_record_delay_seconds" json:"pre_record_delay_seconds" validate:"gte=0"`
	MinimumRecordingSeconds int `mapstructure:"minimum_recording_seconds" json:"minimum_recording_seconds" validate:"gte=0"`
	MaximumRecordingSeconds int `mapstructure:"maximum_recording_seconds" json:"maximum_recording_seconds" validate:"gtfield=MinimumRecordingSeconds"`
	PollIntervalSeconds     int `mapstructure:"poll_interval_seconds" json:"poll_interval_seconds" validate:"gte=1"`
	MinimumPollableBytes    int `mapstructure:"minimum_pollable_bytes" json:"minimum_pollable_bytes" validate:"gte=0"`
	TotalQuestions          int `mapstructure:"total_questions" json:"total_questions" validate:"gte=1"`
}

func DefaultPolicy() Policy {
	return Policy{
		RepeatWindowSeconds:     120,
		MaxRepeats:              2,
		PreRecordDelaySeconds:   3,
		MinimumRecordingSeconds: 90,
		MaximumRecordingSeconds: 300,
		PollIntervalSeconds:     5,
		MinimumPollableBytes:    10000,
		TotalQuestions:          10,
	}
}

// Validate fails fast on configurations the interaction cannot honour, most
// notably a recording ceiling at or below the minimum duration.
func (p Policy) Validate() error {
	if err := validator.New().Struct(&p); err != nil {
		return fmt.Errorf("config: invalid interview policy: %w", err)
	}
	return nil
}

// WithOverrides decodes a loosely typed override map (as received in a JSON
// request body) on top of p and validates the result.
func (p Policy) WithOverrides(overrides map[string]interface{}) (Policy, error) {
	merged := p
	if len(overrides) == 0 {
		return merged, merged.Validate()
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &merged,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, err
	}
	if err := decoder.Decode(overrides); err != nil {
		return p, fmt.Errorf("config: illegal policy override: %w", err)
	}
	return merged, merged.Validate()
}

func (p Policy) RepeatWindow() time.Duration {
	return time.Duration(p.RepeatWindowSeconds) * time.Second
}

func (p Policy) PreRecordDelay() time.Duration {
	return time.Duration(p.PreRecordDelaySeconds) * time.Second
}

func (p Policy) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}
