// Command infoboard drives a pixel matrix display through a rotation of
// information modules: sports scores, headlines, transit arrivals, bike
// share supply and the weather.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/infoboard"
	"github.com/BeatGlow/infoboard/config"
	"github.com/BeatGlow/infoboard/display"
	"github.com/BeatGlow/infoboard/font"
	"github.com/BeatGlow/infoboard/framebuffer"
	"github.com/BeatGlow/infoboard/sources/bikeshare"
	"github.com/BeatGlow/infoboard/sources/news"
	"github.com/BeatGlow/infoboard/sources/scores"
	"github.com/BeatGlow/infoboard/sources/transit"
	"github.com/BeatGlow/infoboard/sources/weather"
)

func main() {
	configFlag := flag.String("config", "infoboard.yaml", "Configuration file")
	outputFlag := flag.String("output", "", "Override the configured display driver")
	listFlag := flag.Bool("list-modules", false, "List the configured modules and exit")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("no configuration at %s, using defaults", *configFlag)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		fatal(err)
	}
	if *outputFlag != "" {
		cfg.Display.Driver = *outputFlag
		if err := cfg.Validate(); err != nil {
			fatal(err)
		}
	}

	if *listFlag {
		listModules(cfg)
		return
	}

	loc, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		fatal(err)
	}

	logw, closeLog, err := logWriter(cfg)
	if err != nil {
		fatal(err)
	}
	defer closeLog()

	disp, done, err := openDisplay(cfg)
	if err != nil {
		fatal(err)
	}
	defer disp.Close()

	boardCfg := infoboard.Config{
		TickRate:  cfg.Board.TickRate(),
		Workers:   cfg.Board.Workers,
		StaleSlot: cfg.Board.StaleSlot(),
		Logger:    log.New(logw, "board: ", log.LstdFlags),
	}
	if cfg.Brightness.Auto() {
		boardCfg.Dimmer = &infoboard.Dimmer{
			Lat:   cfg.Location.Latitude,
			Lon:   cfg.Location.Longitude,
			Day:   cfg.Brightness.Day,
			Night: cfg.Brightness.Night,
		}
	} else if err := disp.SetContrast(cfg.Brightness.Day); err != nil {
		fatal(err)
	}

	board := infoboard.New(disp, boardCfg)
	client := &http.Client{Timeout: 15 * time.Second}
	for _, mc := range cfg.Modules {
		if mc.Disabled {
			continue
		}
		m, err := buildModule(mc, cfg, loc, client, logw)
		if err != nil {
			fatal(err)
		}
		err = board.Register(m, infoboard.ModuleConfig{
			RefreshInterval: mc.Refresh(),
			StaleAfter:      mc.Stale(),
		})
		if err != nil {
			fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if done != nil {
		go func() {
			select {
			case <-done:
				stop()
			case <-ctx.Done():
			}
		}()
	}

	if err := board.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}

func listModules(cfg *config.Config) {
	for _, m := range cfg.Modules {
		state := "enabled"
		if m.Disabled {
			state = "disabled"
		}
		fmt.Printf("%-12s %-10s refresh %-8s %s\n", m.Name, m.Type, m.Refresh(), state)
	}
}

// logWriter picks where module and board logs go. The terminal emulator owns
// the tty, so logs only reach a terminal run when a log file is configured.
func logWriter(cfg *config.Config) (io.Writer, func(), error) {
	terminal := cfg.Display.Driver == "terminal"

	if cfg.Board.LogFile == "" {
		if terminal {
			return io.Discard, func() {}, nil
		}
		return os.Stderr, func() {}, nil
	}

	f, err := os.OpenFile(cfg.Board.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	if terminal {
		return f, func() { f.Close() }, nil
	}
	return io.MultiWriter(os.Stderr, f), func() { f.Close() }, nil
}

// openDisplay opens the configured output device. The second return value,
// when non-nil, is closed when the device asks the daemon to quit.
func openDisplay(cfg *config.Config) (display.Display, <-chan struct{}, error) {
	dcfg := &display.Config{
		Width:    cfg.Display.Width,
		Height:   cfg.Display.Height,
		Rotation: rotation(cfg.Display.Rotation),
	}

	switch cfg.Display.Driver {
	case "terminal":
		term, err := display.OpenTerminal(dcfg)
		if err != nil {
			return nil, nil, err
		}
		return term, term.Done(), nil

	case "memory":
		return display.NewMemory(cfg.Display.Width, cfg.Display.Height), nil, nil

	case "fb":
		d, err := framebuffer.Open(cfg.Display.Device)
		if err != nil {
			return nil, nil, err
		}
		return d, nil, nil

	case "st7735", "st7789":
		if _, err := host.Init(); err != nil {
			return nil, nil, err
		}
		if pin := cfg.Display.SPI.BacklightPin; pin != "" {
			dcfg.Backlight = gpioreg.ByName(pin)
		}
		conn, err := display.OpenSPI(&display.SPIConfig{
			Port:  cfg.Display.SPI.Port,
			Speed: physic.Frequency(cfg.Display.SPI.SpeedMHz) * physic.MegaHertz,
			Reset: gpioreg.ByName(cfg.Display.SPI.ResetPin),
			DC:    gpioreg.ByName(cfg.Display.SPI.DCPin),
		})
		if err != nil {
			return nil, nil, err
		}
		open := display.ST7735
		if cfg.Display.Driver == "st7789" {
			open = display.ST7789
		}
		d, err := open(conn, dcfg)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return d, nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported display driver %q", cfg.Display.Driver)
}

func rotation(degrees int) display.Rotation {
	switch degrees {
	case 90:
		return display.Rotate90
	case 180:
		return display.Rotate180
	case 270:
		return display.Rotate270
	default:
		return display.NoRotation
	}
}

// buildModule constructs one source from its rotation entry and the source's
// top level config section.
func buildModule(mc config.ModuleConfig, cfg *config.Config, loc *time.Location, client *http.Client, logw io.Writer) (infoboard.Module, error) {
	logger := log.New(logw, mc.Name+": ", log.LstdFlags)

	switch mc.Type {
	case "scores":
		return scores.New(scores.Config{
			Name:      mc.Name,
			Leagues:   cfg.Scores.Leagues,
			Favorites: cfg.Scores.Favorites,
			Lookahead: time.Duration(cfg.Scores.LookaheadDays) * 24 * time.Hour,
			Dwell:     time.Duration(cfg.Scores.GameSeconds) * time.Second,
			Slot:      mc.Duration(),
			Location:  loc,
		}, client, logger), nil

	case "news":
		feeds := make([]news.Feed, len(cfg.News.Feeds))
		for i, f := range cfg.News.Feeds {
			feeds[i] = news.Feed{Name: f.Name, URL: f.URL}
		}
		nc := news.Config{
			Name:   mc.Name,
			Feeds:  feeds,
			Speed:  cfg.News.ScrollSpeed,
			Settle: time.Duration(cfg.News.SettleSeconds * float64(time.Second)),
			Slot:   mc.Duration(),
		}
		if cfg.News.Font != "" {
			face, err := font.LoadTTF(cfg.News.Font, cfg.News.FontSize)
			if err != nil {
				return nil, err
			}
			nc.Face = face
		}
		return news.New(nc, client, logger), nil

	case "transit":
		stops := make([]transit.Stop, len(cfg.Transit.Stops))
		for i, s := range cfg.Transit.Stops {
			stops[i] = transit.Stop{Code: s.Code, Name: s.Name}
		}
		return transit.New(transit.Config{
			Name:   mc.Name,
			Agency: cfg.Transit.Agency,
			Key:    cfg.Transit.APIKey,
			Stops:  stops,
			Dwell:  time.Duration(cfg.Transit.StopSeconds) * time.Second,
			Slot:   mc.Duration(),
		}, client, logger), nil

	case "bikeshare":
		return bikeshare.New(bikeshare.Config{
			Name:     mc.Name,
			Region:   cfg.Bikeshare.Region,
			Stations: cfg.Bikeshare.Stations,
			Dwell:    time.Duration(cfg.Bikeshare.StationSeconds) * time.Second,
			Slot:     mc.Duration(),
		}, client, logger), nil

	case "weather":
		return weather.New(weather.Config{
			Name:      mc.Name,
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
			Location:  loc,
			Slot:      mc.Duration(),
		}, client, logger), nil
	}
	return nil, fmt.Errorf("unknown module type %q", mc.Type)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
