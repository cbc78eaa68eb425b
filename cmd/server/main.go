package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/genaker/imagecache/pkg/config"
	"github.com/genaker/imagecache/pkg/params"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", os.Getenv("IMAGECACHE_CONFIG"), "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("error occurred when loading config: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("initializing resize service")
	resizeService := InitializeResizeService(ctx, cfg)
	purgeService := InitializePurgeService(ctx, cfg)
	linkGenerator := InitializeLinkGenerator(cfg)
	parser := params.NewParser(ProvideParserConfig(cfg))

	log.Println("registering http handlers")
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", handleResizeRequest(ctx, resizeService))
	mux.HandleFunc("/purge", handlePurgeRequest(ctx, purgeService))
	mux.HandleFunc("/sign", handleSignRequest(linkGenerator, parser))

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: mux,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		log.Println("shutting down")
		server.Close()
	}()

	log.Printf("listening on %s", cfg.ListenAddress)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
