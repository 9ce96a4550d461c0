package scenecore

import "log/slog"

// CameraOptions configures the Camera a Scene starts with.
type CameraOptions struct {
	Eye         Vector3 `toml:"eye"`
	Target      Vector3 `toml:"target"`
	FieldOfView float32 `toml:"fov"`  // Degrees
	Near        float32 `toml:"near"` // Distance to the near clipping plane
	Far         float32 `toml:"far"`  // Distance to the far clipping plane
	// TransitionSeconds is used for camera commands that don't specify their own duration. 0 moves the camera instantly.
	TransitionSeconds float32 `toml:"transition_seconds"`
}

// Options configures a Scene and the systems it owns. Options can be loaded from a TOML document; see DefaultOptions() for
// the values used for any field left zero.
type Options struct {
	Width  int `toml:"width"`  // Width of the view, in pixels
	Height int `toml:"height"` // Height of the view, in pixels

	// DisableCulling turns frustum culling off, so every entity that isn't hidden is drawn.
	DisableCulling bool `toml:"no_culling"`

	Camera    CameraOptions   `toml:"camera"`
	Resources ResourceOptions `toml:"resources"`

	// CommandQueueSize is the capacity of the Controller's command queue.
	CommandQueueSize int `toml:"command_queue_size"`

	Logger *slog.Logger `toml:"-"`
}

// DefaultOptions returns the default Options.
func DefaultOptions() Options {
	return Options{
		Width:  640,
		Height: 360,
		Camera: CameraOptions{
			Eye:         Vector3{0, 0, 5},
			FieldOfView: 45,
			Near:        0.01,
			Far:         1000,
		},
		Resources:        DefaultResourceOptions(),
		CommandQueueSize: 64,
	}
}

// withDefaults fills in zero fields from DefaultOptions().
func (options Options) withDefaults() Options {
	def := DefaultOptions()
	if options.Width <= 0 {
		options.Width = def.Width
	}
	if options.Height <= 0 {
		options.Height = def.Height
	}
	if options.Camera.FieldOfView <= 0 {
		options.Camera.FieldOfView = def.Camera.FieldOfView
	}
	if options.Camera.Near <= 0 {
		options.Camera.Near = def.Camera.Near
	}
	if options.Camera.Far <= options.Camera.Near {
		options.Camera.Far = def.Camera.Far
		if options.Camera.Far <= options.Camera.Near {
			options.Camera.Far = options.Camera.Near * 1000
		}
	}
	if options.Camera.Eye.Equals(options.Camera.Target) {
		options.Camera.Eye = options.Camera.Target.Add(def.Camera.Eye)
	}
	if options.CommandQueueSize <= 0 {
		options.CommandQueueSize = def.CommandQueueSize
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Resources.Logger == nil {
		options.Resources.Logger = options.Logger
	}
	return options
}
