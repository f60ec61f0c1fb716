package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/natefinch/lumberjack"
	"github.com/robfig/cron/v3"
	"github.com/snowie2000/stepdaddylive/global"
	"github.com/snowie2000/stepdaddylive/handler"
	"github.com/snowie2000/stepdaddylive/route"
	"github.com/snowie2000/stepdaddylive/service"
	"github.com/snowie2000/stepdaddylive/util"
)

func main() {
	listen := flag.String("listen", "", "listening address (default :9000)")
	dataFlag := flag.String("datadir", "", "directory for the log file")
	flag.Parse()

	datadir := *dataFlag
	if datadir == "" {
		datadir = global.GetString("datadir")
	}
	if datadir == "" {
		ex, err := os.Executable()
		if err != nil {
			panic(err)
		}
		datadir = filepath.Join(filepath.Dir(ex), "data")
	}
	os.MkdirAll(datadir, os.ModePerm)

	binding := *listen
	if binding == "" {
		binding = global.GetString("listen")
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   filepath.Join(datadir, "stepdaddy.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     1,    //days
		Compress:   true, // disabled by default
	}))
	log.Println("Server listen", binding)
	log.Println("Server datadir", datadir)

	secret := global.GetString("secret")
	if secret == "" {
		secret = util.RandomSecret()
		log.Println("STEPDADDY_SECRET is not set, using a random one; proxied links will not survive a restart")
	}
	codec, err := util.NewCodec(secret)
	if err != nil {
		log.Panicf("codec: %s\n", err)
	}
	proxyURL := global.GetString("proxy")
	if proxyURL == "" {
		proxyURL = global.GetString("socks5")
	}
	upstream := service.NewUpstream(service.UpstreamOptions{
		BaseURL:     global.GetString("upstream"),
		ProxyURL:    proxyURL,
		Impersonate: global.GetString("impersonate"),
		APIRate:     global.GetInt("api_rps"),
	})
	meta, err := service.LoadMetadata(global.GetString("meta"))
	if err != nil {
		log.Panicf("metadata: %s\n", err)
	}
	rewriter := service.NewRewriter(codec, global.GetBaseURL(), global.GetBool("proxy_content"))
	catalog := service.NewCatalog(upstream, rewriter, meta)

	log.Println("StepDaddy starting...")
	go catalog.Refresh(context.Background())
	c := cron.New()
	_, err = c.AddFunc(global.GetString("refresh"), func() {
		catalog.Refresh(context.Background())
	})
	if err != nil {
		log.Panicf("refreshCron: %s\n", err)
	}
	c.Start()
	defer c.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	route.Register(router, &handler.Handler{
		Catalog:  catalog,
		Resolver: service.NewResolver(upstream, rewriter),
		Relay:    service.NewRelay(codec, upstream, rewriter, global.GetDuration("key_timeout")),
		Schedule: service.NewSchedule(upstream),
		BaseURL:  global.GetBaseURL(),
	})
	srv := &http.Server{
		Addr:    binding,
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Panicf("listen: %s\n", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shuting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Panicf("Server forced to shutdown: %s\n", err)
	}
	log.Println("Server exiting")
}
