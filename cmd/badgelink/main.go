package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/ternbach/badgelink/internal/badge"
	"github.com/ternbach/badgelink/internal/badge/protocol"
	"github.com/ternbach/badgelink/internal/ble"
	"github.com/ternbach/badgelink/internal/config"
	"github.com/ternbach/badgelink/internal/font"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: badgelink [flags] <command> [args]

Commands:
  scan [all]            List nearby badges (all: every BLE device)
  on | off              Turn the display on or off
  mode <mode>           Set display mode (static/left/right/up/down/snow or 0-255)
  speed <0-255>         Set scroll speed
  brightness <0-255>    Set LED brightness
  text <message>        Render text and upload it
  image <file>          Upload raw segment bytes (or font-editor .json)
  show <slot>           Display a stored image
  anim <id>             Play a built-in animation
  play <slot...>        Cycle through stored images
  delete <slot...>      Delete stored images
  check                 Query stored images
  preview <message>     Print the rendered bitmap without a badge

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/badgelink/config.yaml)")
	address := flag.String("address", "", "badge BLE address (overrides config; empty scans for one)")
	timeout := flag.Duration("timeout", 0, "acknowledgment timeout (overrides config)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *address != "" {
		cfg.Badge.Address = *address
	}
	if *timeout > 0 {
		cfg.Badge.AckTimeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	slog.SetLogLoggerLevel(config.ParseLogLevel(cfg.LogLevel))

	cmd, args := flag.Arg(0), flag.Args()[1:]

	// SIGINT cancels an in-flight upload between packets.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "scan":
		err = runScan(ctx, cfg, args)
	case "preview":
		err = runPreview(args)
	case "on", "off", "mode", "speed", "brightness", "text", "image",
		"show", "anim", "play", "delete", "check":
		err = runBadgeCommand(ctx, cfg, cmd, args)
	default:
		fmt.Fprintf(os.Stderr, "badgelink: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runScan(ctx context.Context, cfg *config.Config, args []string) error {
	serviceUUID := ble.ServiceUUID
	label := "badge"
	if len(args) > 0 && args[0] == "all" {
		serviceUUID = ""
		label = "device"
	}

	adapter := ble.NewSystemAdapter()
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}

	log.Printf("Scanning for %ss (%s)...", label, cfg.Badge.ScanTimeout)
	scanCtx, cancel := context.WithTimeout(ctx, cfg.Badge.ScanTimeout)
	defer cancel()
	devices, err := adapter.Scan(scanCtx, serviceUUID)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		if serviceUUID != "" {
			fmt.Println("No badges found. Try 'badgelink scan all' to see every BLE device.")
		} else {
			fmt.Println("No devices found.")
		}
		return nil
	}
	fmt.Printf("Found %d %s(s):\n\n", len(devices), label)
	for i, d := range devices {
		name := d.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %d. %s\n     Address: %s  RSSI: %d\n\n", i+1, name, d.Address, d.RSSI)
	}
	return nil
}

func runPreview(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing message")
	}
	segs, err := font.Builtin().RenderText(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Printf("%d segment(s), %d bytes\n", len(segs), len(segs)*font.SegmentSize)
	for row := 0; row < font.GlyphHeight; row++ {
		var line strings.Builder
		for _, seg := range segs {
			g := font.DecodeGlyph(seg)
			for col := 0; col < font.GlyphWidth; col++ {
				if g[row][col] {
					line.WriteByte('X')
				} else {
					line.WriteByte('.')
				}
			}
		}
		fmt.Println(line.String())
	}
	return nil
}

func runBadgeCommand(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	b, closeLink, err := connectBadge(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLink()

	settings, err := displaySettings(cfg)
	if err != nil {
		return err
	}

	switch cmd {
	case "on":
		return b.PowerOn()
	case "off":
		return b.PowerOff()
	case "mode":
		if len(args) != 1 {
			return fmt.Errorf("usage: mode <static|left|right|up|down|snow|0-255>")
		}
		mode, err := protocol.ParseMode(args[0])
		if err != nil {
			return err
		}
		return b.SetMode(mode)
	case "speed":
		v, err := byteArg(args, "speed")
		if err != nil {
			return err
		}
		return b.SetSpeed(v)
	case "brightness":
		v, err := byteArg(args, "brightness")
		if err != nil {
			return err
		}
		return b.SetBrightness(v)
	case "text":
		if len(args) == 0 {
			return fmt.Errorf("missing message")
		}
		return b.DisplayText(ctx, strings.Join(args, " "), settings)
	case "image":
		if len(args) != 1 {
			return fmt.Errorf("usage: image <file>")
		}
		payload, err := readImageFile(args[0])
		if err != nil {
			return err
		}
		return b.UploadAndDisplay(ctx, payload, settings)
	case "show":
		v, err := byteArg(args, "slot")
		if err != nil {
			return err
		}
		return b.ShowImage(v)
	case "anim":
		v, err := byteArg(args, "animation id")
		if err != nil {
			return err
		}
		return b.PlayAnimation(v)
	case "play":
		ids, err := byteArgs(args)
		if err != nil {
			return err
		}
		return b.PlaySequence(ids...)
	case "delete":
		ids, err := byteArgs(args)
		if err != nil {
			return err
		}
		return b.DeleteImages(ids...)
	case "check":
		token, err := b.CheckImages(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Badge replied: %q\n", token)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// connectBadge resolves the badge address (scanning if the config has
// none), dials it, and wraps the link in a controller.
func connectBadge(ctx context.Context, cfg *config.Config) (*badge.Badge, func(), error) {
	adapter := ble.NewSystemAdapter()

	address := cfg.Badge.Address
	if address == "" {
		if err := adapter.Enable(); err != nil {
			return nil, nil, fmt.Errorf("enable adapter: %w", err)
		}
		log.Printf("No address configured, scanning (%s)...", cfg.Badge.ScanTimeout)
		scanCtx, cancel := context.WithTimeout(ctx, cfg.Badge.ScanTimeout)
		devices, err := adapter.Scan(scanCtx, ble.ServiceUUID)
		cancel()
		if err != nil {
			return nil, nil, err
		}
		if len(devices) == 0 {
			return nil, nil, fmt.Errorf("no badge found; is it powered on?")
		}
		address = devices[0].Address
		log.Printf("Using badge %q at %s", devices[0].Name, address)
	}

	client := ble.NewClient(adapter, address, ble.DefaultClientOptions())
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}

	key, err := cfg.Badge.DecodeKey()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	b, err := badge.New(client, badge.Options{
		Key:             key,
		AckTimeout:      cfg.Badge.AckTimeout,
		InterChunkDelay: cfg.Badge.InterChunkDelay,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return b, func() { client.Close() }, nil
}

func displaySettings(cfg *config.Config) (badge.DisplaySettings, error) {
	mode, err := protocol.ParseMode(cfg.Display.Mode)
	if err != nil {
		return badge.DisplaySettings{}, err
	}
	return badge.DisplaySettings{
		Mode:       mode,
		Speed:      uint8(cfg.Display.Speed),
		Brightness: uint8(cfg.Display.Brightness),
	}, nil
}

// readImageFile loads an upload payload: raw segment bytes, or the font
// editor's JSON export for .json files.
func readImageFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != ".json" {
		return data, nil
	}
	payload, err := font.ParseEditorExport(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return payload, nil
}

func byteArg(args []string, what string) (uint8, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one %s argument (0-255)", what)
	}
	n, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: want 0-255", what, args[0])
	}
	return uint8(n), nil
}

func byteArgs(args []string) ([]uint8, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing image slot arguments")
	}
	ids := make([]uint8, len(args))
	for i, a := range args {
		n, err := strconv.ParseUint(a, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid image slot %q: want 0-255", a)
		}
		ids[i] = uint8(n)
	}
	return ids, nil
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
