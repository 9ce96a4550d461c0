// Command sceneviewer opens a glTF scene in a window, culling and batching it with scenecore.
//
//	sceneviewer -config viewer.toml
//	sceneviewer -cpuprofile . scenes/level.glb
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/profile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {

	configPath := flag.String("config", "", "TOML configuration file")
	profilePath := flag.String("cpuprofile", "", "write a CPU profile to this directory")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if flag.NArg() > 0 {
		config.Scene = flag.Arg(0)
		config.Scenes = append([]string{config.Scene}, config.Scenes...)
	}

	if config.Scene == "" {
		return errors.New("no scene given; pass a .gltf or .glb file, or set scene in the config file")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.LogLevel}))
	slog.SetDefault(logger)

	if *profilePath != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profilePath), profile.NoShutdownHook).Stop()
	}

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(config.Renderer.Width*2, config.Renderer.Height*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game := NewGame(config, logger)
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, errQuit) {
		return err
	}

	return nil

}
