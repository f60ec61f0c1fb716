package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UpstreamRequests counts calls made to the upstream site.
// "op" is one of channels, get_stream, schedule, manifest, key, content, logo;
// "outcome" is ok, status or error.
var UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stepdaddy_upstream_requests_total",
	Help: "Upstream requests by operation and outcome",
}, []string{"op", "outcome"})

// BytesRelayed counts bytes passed through the key, content and logo relays.
var BytesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stepdaddy_bytes_relayed_total",
	Help: "Total bytes relayed to clients",
}, []string{"op"})

// CatalogChannels is the size of the published catalog snapshot.
var CatalogChannels = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "stepdaddy_catalog_channels",
	Help: "Number of channels in the current catalog snapshot",
})

// CatalogRefreshes counts refresh attempts by result (replaced or unchanged).
var CatalogRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stepdaddy_catalog_refreshes_total",
	Help: "Catalog refresh attempts by result",
}, []string{"result"})
