package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/patrickmn/go-cache"
	"github.com/snowie2000/stepdaddylive/global"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	scheduleComponent = "schedule"
	scheduleCacheKey  = "schedule"
)

var errScheduleNotObject = errors.New("schedule is not a JSON object")

// ScheduleData keeps the upstream key order (days, then categories) on the way through.
type ScheduleData = orderedmap.OrderedMap[string, json.RawMessage]

// ScheduleResult is always servable: a degraded result carries an empty object.
type ScheduleResult struct {
	Data     *ScheduleData
	Degraded bool
	Err      error
}

type Schedule struct {
	upstream *Upstream
	cache    *cache.Cache
}

func NewSchedule(upstream *Upstream) *Schedule {
	return &Schedule{upstream: upstream, cache: global.ScheduleCache}
}

// Fetch returns the upstream event schedule. Good answers are cached for a
// few minutes; failures are not.
func (s *Schedule) Fetch(ctx context.Context) ScheduleResult {
	if v, ok := s.cache.Get(scheduleCacheKey); ok {
		return ScheduleResult{Data: v.(*ScheduleData)}
	}
	data, err := s.fetch(ctx)
	if err != nil {
		log.Println("[schedule]", err)
		UpdateStatus(scheduleComponent, Warning, err.Error())
		return ScheduleResult{Data: orderedmap.New[string, json.RawMessage](), Degraded: true, Err: err}
	}
	UpdateStatus(scheduleComponent, Ok, fmt.Sprintf("%d days", data.Len()))
	s.cache.Set(scheduleCacheKey, data, cache.DefaultExpiration)
	return ScheduleResult{Data: data}
}

func (s *Schedule) fetch(ctx context.Context) (*ScheduleData, error) {
	body, err := s.upstream.API(ctx, "schedule", nil)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, errScheduleNotObject
	}
	data := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(body, data); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	return data, nil
}
