// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_synthesizes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Hash tag keeps every prompt clip in the same cluster slot.
const keyPrefix = "{interview:tts}:"

type cachedSynthesizer struct {
	logger commons.Logger
	next   internal_type.Synthesizer
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCachedSynthesizer remembers synthesized prompts so a repeated question
// is not sent to the speech provider again. Concurrent requests for the same
// text share one synthesis. A nil client disables the cache but keeps the
// coalescing.
func NewCachedSynthesizer(logger commons.Logger, next internal_type.Synthesizer, client *redis.Client, ttl time.Duration) internal_type.Synthesizer {
	return &cachedSynthesizer{
		logger: logger,
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (s *cachedSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := cacheKey(text)
	if clip, ok := s.lookup(ctx, key); ok {
		return clip, nil
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		start := time.Now()
		clip, err := s.next.Synthesize(ctx, text)
		if err != nil {
			return nil, err
		}
		s.logger.Benchmark("cachedSynthesizer.Synthesize", time.Since(start))
		s.store(ctx, key, clip)
		return clip, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debugf("synthesizer: shared synthesis for %s", key)
	}
	return v.([]byte), nil
}

func (s *cachedSynthesizer) lookup(ctx context.Context, key string) ([]byte, bool) {
	if s.client == nil {
		return nil, false
	}
	clip, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warnf("synthesizer: cache read failed for %s: %v", key, err)
		}
		return nil, false
	}
	if len(clip) == 0 {
		return nil, false
	}
	s.logger.Debugf("synthesizer: cache hit %s (%d bytes)", key, len(clip))
	return clip, true
}

// store failures are logged only; the clip is still returned to the caller.
func (s *cachedSynthesizer) store(ctx context.Context, key string, clip []byte) {
	if s.client == nil || len(clip) == 0 {
		return
	}
	if err := s.client.Set(ctx, key, clip, s.ttl).Err(); err != nil {
		s.logger.Warnf("synthesizer: cache write failed for %s: %v", key, err)
	}
}
