package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ternbach/badgelink/internal/badge"
	"github.com/ternbach/badgelink/internal/badge/protocol"
	"github.com/ternbach/badgelink/internal/ble"
	"github.com/ternbach/badgelink/internal/config"
	"github.com/ternbach/badgelink/internal/oscbridge"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/badgelink/config.yaml)")
	listenHost := flag.String("host", "", "host to listen on (overrides config)")
	listenPort := flag.Int("port", 0, "port to listen on (overrides config)")
	replyHost := flag.String("reply-host", "", "host to send replies to (overrides config)")
	replyPort := flag.Int("reply-port", 0, "port to send replies to (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *listenHost != "" {
		cfg.OSC.ListenHost = *listenHost
	}
	if *listenPort != 0 {
		cfg.OSC.ListenPort = *listenPort
	}
	if *replyHost != "" {
		cfg.OSC.ReplyHost = *replyHost
	}
	if *replyPort != 0 {
		cfg.OSC.ReplyPort = *replyPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	slog.SetLogLoggerLevel(config.ParseLogLevel(cfg.LogLevel))

	key, err := cfg.Badge.DecodeKey()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	mode, err := protocol.ParseMode(cfg.Display.Mode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// The bridge dials badges on demand; every /badge/connect gets a
	// fresh client that redials on link drops.
	adapter := ble.NewSystemAdapter()
	connector := func(ctx context.Context, address string) (*oscbridge.Link, error) {
		opts := ble.DefaultClientOptions()
		opts.AutoReconnect = true
		client := ble.NewClient(adapter, address, opts)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		b, err := badge.New(client, badge.Options{
			Key:             key,
			AckTimeout:      cfg.Badge.AckTimeout,
			InterChunkDelay: cfg.Badge.InterChunkDelay,
		})
		if err != nil {
			client.Close()
			return nil, err
		}
		return &oscbridge.Link{
			Badge:     b,
			Address:   address,
			Connected: client.Connected,
			Close:     client.Close,
		}, nil
	}

	reply := osc.NewClient(cfg.OSC.ReplyHost, cfg.OSC.ReplyPort)
	opts := oscbridge.DefaultOptions()
	opts.Settings = badge.DisplaySettings{
		Mode:       mode,
		Speed:      uint8(cfg.Display.Speed),
		Brightness: uint8(cfg.Display.Brightness),
	}
	bridge := oscbridge.New(connector, reply, opts)

	listenAddr := fmt.Sprintf("%s:%d", cfg.OSC.ListenHost, cfg.OSC.ListenPort)
	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", listenAddr, err)
	}

	log.Printf("OSC server listening on %s, replies to %s:%d",
		listenAddr, cfg.OSC.ReplyHost, cfg.OSC.ReplyPort)
	printAddressMap()

	// Closing the socket unblocks Serve for a clean shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	shutdown := make(chan struct{})
	go func() {
		sig := <-sigCh
		log.Printf("Received %s, shutting down...", sig)
		close(shutdown)
		conn.Close()
	}()

	bridge.AnnounceStarted(cfg.OSC.ListenPort)

	server := &osc.Server{Addr: listenAddr, Dispatcher: bridge}
	err = server.Serve(conn)
	select {
	case <-shutdown:
	default:
		if err != nil {
			log.Fatalf("serve: %v", err)
		}
	}

	bridge.Close()
	log.Println("OSC server stopped")
}

func printAddressMap() {
	log.Println("Available commands:")
	log.Println("  /badge/connect <address>     - Connect to badge")
	log.Println("  /badge/disconnect            - Disconnect from badge")
	log.Println("  /badge/status                - Get connection status")
	log.Println("  /badge/text <string>         - Send text")
	log.Println("  /badge/image <bytes...>      - Upload raw image bytes")
	log.Println("  /badge/image/json <json>     - Upload image from JSON")
	log.Println("  /badge/brightness <0-255>    - Set brightness")
	log.Println("  /badge/speed <0-255>         - Set speed")
	log.Println("  /badge/scroll <mode>         - Set scroll mode")
	log.Println("  /badge/on                    - Turn display on")
	log.Println("  /badge/off                   - Turn display off")
	log.Println("  /badge/animation <id>        - Play animation")
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	log.Println("No config file found, using defaults")
	return config.Default(), nil
}
