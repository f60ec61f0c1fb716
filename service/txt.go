package service

import (
	"github.com/snowie2000/stepdaddylive/model"
	"github.com/snowie2000/stepdaddylive/playlist/diyp"
)

const defaultGenre = "LiveTV"

// TXTGenerate renders the catalog as a DIYP text playlist, one genre per
// channel taken from its first tag.
func TXTGenerate(channels []model.Channel, base string) string {
	p := diyp.New()
	for _, ch := range channels {
		genre := defaultGenre
		if len(ch.Tags) > 0 && ch.Tags[0] != "" {
			genre = ch.Tags[0]
		}
		p.Add(genre, ch.Name, StreamURL(base, ch.ID))
	}
	return p.String()
}
