// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"context"
	"time"
)

// Scheduler is one interaction's scheduling domain.
type Scheduler interface {
	// Countdown calls onTick with the remaining units after every elapsed
	// unit and onExpire exactly once when nothing remains.
	Countdown(total int, unit time.Duration, onTick func(remaining int), onExpire func())
	// Interval calls onTick every period until cancelled. The context passed
	// to onTick is cancelled together with the interval.
	Interval(period time.Duration, onTick func(ctx context.Context))
	Delay(ctx context.Context, d time.Duration) error
	// CancelAll stops every countdown and interval. Safe when idle and from
	// inside a callback.
	CancelAll()
}
