package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/solarlune/scenecore"
	"github.com/solarlune/scenecore/colors"
)

// Config is the viewer's configuration file.
type Config struct {
	Title string `toml:"title"`

	// Scene is loaded at startup. Scenes lists the files the number keys switch between; Scene is added to it if missing.
	Scene  string   `toml:"scene"`
	Scenes []string `toml:"scenes"`

	LogLevel  slog.Level `toml:"log_level"`
	HotReload bool       `toml:"hot_reload"`
	FlipV     bool       `toml:"flip_v"`

	// Background and TextColor are names from the colors package.
	Background string `toml:"background"`
	TextColor  string `toml:"text_color"`

	background, textColor scenecore.Color

	Renderer scenecore.Options `toml:"renderer"`
}

func defaultConfig() Config {
	return Config{
		Title:      "Scene Viewer",
		LogLevel:   slog.LevelInfo,
		HotReload:  true,
		Background: "slate",
		TextColor:  "light_gray",
		background: colors.Slate,
		textColor:  colors.LightGray,
		Renderer:  scenecore.DefaultOptions(),
	}
}

// loadConfig reads the TOML file at path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (Config, error) {

	config := defaultConfig()

	if path != "" {

		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("reading config: %w", err)
		}

		if err := toml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parsing config %s: %w", path, err)
		}

	}

	var ok bool
	if config.background, ok = colors.Named(config.Background); !ok {
		return config, fmt.Errorf("unknown background color %q", config.Background)
	}
	if config.textColor, ok = colors.Named(config.TextColor); !ok {
		return config, fmt.Errorf("unknown text color %q", config.TextColor)
	}

	def := scenecore.DefaultOptions()
	if config.Renderer.Width <= 0 || config.Renderer.Height <= 0 {
		config.Renderer.Width = def.Width
		config.Renderer.Height = def.Height
	}

	if config.Scene != "" {
		found := false
		for _, s := range config.Scenes {
			if s == config.Scene {
				found = true
				break
			}
		}
		if !found {
			config.Scenes = append([]string{config.Scene}, config.Scenes...)
		}
	}

	return config, nil

}
