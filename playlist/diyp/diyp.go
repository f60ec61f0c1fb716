// Package diyp writes the "name,url" text playlist understood by DIYP-style players.
package diyp

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const genreSuffix = ",#genre#"

type ChannelGroup struct {
	Name     string
	Channels []*Channel
}

type Channel struct {
	Name string
	Url  string
}

// Playlist collects channels into genres, keeping first-seen genre order.
type Playlist struct {
	groups *orderedmap.OrderedMap[string, *ChannelGroup]
}

func New() *Playlist {
	return &Playlist{groups: orderedmap.New[string, *ChannelGroup]()}
}

// Add appends a channel to genre. Commas would split the line, so they are
// replaced in both names.
func (p *Playlist) Add(genre, name, url string) {
	genre = sanitize(genre)
	group, ok := p.groups.Get(genre)
	if !ok {
		group = &ChannelGroup{Name: genre}
		p.groups.Set(genre, group)
	}
	group.Channels = append(group.Channels, &Channel{Name: sanitize(name), Url: url})
}

func (p *Playlist) Groups() []*ChannelGroup {
	out := make([]*ChannelGroup, 0, p.groups.Len())
	for pair := p.groups.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func (p *Playlist) String() string {
	var sb strings.Builder
	for _, g := range p.Groups() {
		sb.WriteString(g.Name)
		sb.WriteString(genreSuffix)
		sb.WriteByte('\n')
		for _, ch := range g.Channels {
			sb.WriteString(ch.Name)
			sb.WriteByte(',')
			sb.WriteString(ch.Url)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, ",", "_")
}
