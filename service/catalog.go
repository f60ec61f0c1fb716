package service

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"slices"
	"strings"
	"sync/atomic"

	greetrant "github.com/LgoLgo/geentrant"
	"github.com/snowie2000/stepdaddylive/metrics"
	"github.com/snowie2000/stepdaddylive/model"
	"github.com/snowie2000/stepdaddylive/syncx"
	"golang.org/x/text/unicode/norm"
)

const catalogComponent = "catalog"

var errEmptyCatalog = errors.New("upstream returned no channels")

type Outcome int

const (
	Unchanged Outcome = iota
	Replaced
)

func (o Outcome) String() string {
	if o == Replaced {
		return "replaced"
	}
	return "unchanged"
}

// RefreshResult describes one refresh attempt. Err is set only when Outcome is
// Unchanged because of a failure; it wraps ErrCatalogUnavailable.
type RefreshResult struct {
	Outcome Outcome
	Count   int // channels in the published snapshot
	Dropped int // duplicate ids discarded
	Err     error
}

// Catalog holds the current channel snapshot. Readers never lock; refreshes
// build a new snapshot and swap it in.
type Catalog struct {
	upstream *Upstream
	rewriter *Rewriter
	meta     *Metadata
	snapshot atomic.Pointer[syncx.HashedSlice[model.Channel]]
	updateMu *greetrant.RecursiveMutex
}

func NewCatalog(upstream *Upstream, rewriter *Rewriter, meta *Metadata) *Catalog {
	c := &Catalog{
		upstream: upstream,
		rewriter: rewriter,
		meta:     meta,
		updateMu: &greetrant.RecursiveMutex{},
	}
	c.snapshot.Store(syncx.NewHashedSlice[model.Channel]())
	return c
}

// List returns the channels of the current snapshot in catalog order.
func (c *Catalog) List() []model.Channel {
	return c.snapshot.Load().AsSlice()
}

func (c *Catalog) Get(id string) (model.Channel, bool) {
	return c.snapshot.Load().GetByDigest(id)
}

func (c *Catalog) Len() int {
	return c.snapshot.Load().Len()
}

// Refresh reloads the channel list from upstream. On any failure the previous
// snapshot stays published.
func (c *Catalog) Refresh(ctx context.Context) RefreshResult {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()

	res := c.refresh(ctx)
	metrics.CatalogRefreshes.WithLabelValues(res.Outcome.String()).Inc()
	metrics.CatalogChannels.Set(float64(res.Count))
	if res.Err != nil {
		log.Println("[catalog] refresh failed, keeping", res.Count, "channels:", res.Err)
		UpdateStatus(catalogComponent, Warning, res.Err.Error())
	} else {
		log.Printf("[catalog] %d channels loaded, %d duplicates dropped\n", res.Count, res.Dropped)
		UpdateStatus(catalogComponent, Ok, fmt.Sprintf("%d channels", res.Count))
	}
	return res
}

func (c *Catalog) refresh(ctx context.Context) RefreshResult {
	unchanged := func(err error) RefreshResult {
		return RefreshResult{
			Outcome: Unchanged,
			Count:   c.Len(),
			Err:     fmt.Errorf("%w: %w", ErrCatalogUnavailable, err),
		}
	}
	body, err := c.upstream.API(ctx, "channels", nil)
	if err != nil {
		return unchanged(err)
	}
	channels, err := c.parseChannels(body)
	if err != nil {
		return unchanged(err)
	}
	if len(channels) == 0 {
		return unchanged(errEmptyCatalog)
	}
	unique, dropped := syncx.NewHashedSliceFromSlice(channels)
	next, _ := syncx.NewHashedSliceFromSlice(sortChannels(unique.AsSlice()))
	c.snapshot.Store(next)
	return RefreshResult{Outcome: Replaced, Count: next.Len(), Dropped: dropped}
}

type channelItem struct {
	ID   json.RawMessage `json:"id"`
	Name *string         `json:"name"`
}

// parseChannels keeps upstream order; items without a usable id are skipped.
func (c *Catalog) parseChannels(body []byte) ([]model.Channel, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("channel list is not a JSON array")
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("channel list: %w", err)
	}
	channels := make([]model.Channel, 0, len(raw))
	for _, r := range raw {
		var item channelItem
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		id, ok := channelID(item.ID)
		if !ok {
			continue
		}
		name := "Unknown"
		if item.Name != nil {
			name = *item.Name
		}
		channels = append(channels, c.buildChannel(id, cleanName(name)))
	}
	return channels, nil
}

func (c *Catalog) buildChannel(id, name string) model.Channel {
	meta := c.meta.Resolve(name)
	ch := model.Channel{
		ID:   id,
		Name: name,
		Tags: meta.Tags,
	}
	if meta.Logo != "" {
		ch.Logo = c.rewriter.LogoPath(meta.Logo)
	}
	return ch
}

// channelID accepts a JSON string or the literal text of a JSON number.
func channelID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case raw[0] == '-' || ('0' <= raw[0] && raw[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return string(raw), true
	}
	return "", false
}

func cleanName(name string) string {
	name = html.UnescapeString(name)
	name = strings.ReplaceAll(name, "#", "")
	return norm.NFC.String(name)
}

// sortChannels orders by name with adult channels last.
func sortChannels(channels []model.Channel) []model.Channel {
	slices.SortStableFunc(channels, func(a, b model.Channel) int {
		if a.IsAdult() != b.IsAdult() {
			if a.IsAdult() {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return channels
}
