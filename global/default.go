package global

import (
	"time"

	"github.com/patrickmn/go-cache"
)

var defaultConfigValue = map[string]string{
	"listen":        ":9000",
	"datadir":       "",
	"upstream":      "https://daddylive.sx",
	"api_url":       "",
	"proxy":         "",
	"socks5":        "",
	"proxy_content": "true",
	"secret":        "",
	"meta":          "",
	"refresh":       "@every 30m",
	"impersonate":   "firefox",
	"api_rps":       "5",
	"key_timeout":   "60s",
}

var (
	HttpClientTimeout = 10 * time.Second
	LogoCache         = cache.New(6*time.Hour, 30*time.Minute)
	ScheduleCache     = cache.New(5*time.Minute, 10*time.Minute)
)
