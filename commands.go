package scenecore

import (
	"context"
	"sync"
)

// Command is a request sent to a Scene from outside the render loop. Commands are queued on a Controller and applied by
// Scene.Update(), once per frame.
type Command interface {
	command()
}

// ChangeScene asks for a different scene file to be loaded in place of the current one.
type ChangeScene struct {
	Path string
}

// ReloadScene asks for the current scene file to be loaded again (for example, because it changed on disk).
type ReloadScene struct{}

// SetCameraPosition moves the Camera's eye. If Seconds is greater than 0, the move is eased over that time.
type SetCameraPosition struct {
	Position Vector3
	Seconds  float32
}

// SetCameraTarget changes the point the Camera looks at. If Seconds is greater than 0, the change is eased over that time.
type SetCameraTarget struct {
	Target  Vector3
	Seconds float32
}

func (ChangeScene) command()       {}
func (ReloadScene) command()       {}
func (SetCameraPosition) command() {}
func (SetCameraTarget) command()   {}

// LoadingState is the stage a scene load (or the renderer as a whole) is in.
type LoadingState int

const (
	StateIdle LoadingState = iota
	StateInitializing
	StateInitFailed
	StateLoadingScene
	StateLoadingAssets
	StateSetting
	StateBuilding
	StateReady
	StateRunning
	StatePaused
	StateUnloading
	StateSwitching
	StateHotReloading
	StateDisposingAssets
	StateError
	StateAssetLoadError
	StateSceneParseError
	StateRenderError
)

var loadingStateNames = map[LoadingState]string{
	StateIdle:            "Idle",
	StateInitializing:    "Initializing",
	StateInitFailed:      "InitFailed",
	StateLoadingScene:    "LoadingScene",
	StateLoadingAssets:   "LoadingAssets",
	StateSetting:         "Setting",
	StateBuilding:        "Building",
	StateReady:           "Ready",
	StateRunning:         "Running",
	StatePaused:          "Paused",
	StateUnloading:       "Unloading",
	StateSwitching:       "Switching",
	StateHotReloading:    "HotReloading",
	StateDisposingAssets: "DisposingAssets",
	StateError:           "Error",
	StateAssetLoadError:  "AssetLoadError",
	StateSceneParseError: "SceneParseError",
	StateRenderError:     "RenderError",
}

func (state LoadingState) String() string {
	if name, ok := loadingStateNames[state]; ok {
		return name
	}
	return "Unknown"
}

// IsBusy returns true while work is in progress that shouldn't be interrupted.
func (state LoadingState) IsBusy() bool {
	switch state {
	case StateInitializing, StateLoadingScene, StateLoadingAssets, StateSetting, StateBuilding,
		StateUnloading, StateSwitching, StateHotReloading, StateDisposingAssets:
		return true
	}
	return false
}

// IsError returns true for the failure states.
func (state LoadingState) IsError() bool {
	switch state {
	case StateError, StateInitFailed, StateAssetLoadError, StateSceneParseError, StateRenderError:
		return true
	}
	return false
}

// CanLoad returns true if a new load may start from this state.
func (state LoadingState) CanLoad() bool {
	switch state {
	case StateIdle, StateReady, StateRunning, StatePaused:
		return true
	}
	return state.IsError()
}

// LoadingStatus is a snapshot of a Controller's loading state.
type LoadingStatus struct {
	State    LoadingState
	Progress float32 // 0 to 1
	Message  string
	Err      error // Set in the error states
}

// QueryResults is what a Scene publishes about itself every frame, for UIs and tooling.
type QueryResults struct {
	CameraPosition Vector3
	CameraTarget   Vector3
	EntityCount    int
	VisibleCount   int
	DrawCalls      int
	CurrentScene   string
}

// Controller is the link between a Scene and the rest of the program. Its command queue and status are safe to use from any
// goroutine; the Scene only touches them from its own update.
type Controller struct {
	commands chan Command

	mu     sync.Mutex
	status LoadingStatus
	query  QueryResults
}

// NewController creates a Controller whose command queue holds up to capacity commands. If capacity is 0 or less, 64 is used.
func NewController(capacity int) *Controller {
	if capacity <= 0 {
		capacity = 64
	}
	return &Controller{commands: make(chan Command, capacity)}
}

// Submit queues the command, waiting for room in the queue until ctx is done.
func (ctrl *Controller) Submit(ctx context.Context, cmd Command) error {
	select {
	case ctrl.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues the command if there's room, returning false if the queue is full.
func (ctrl *Controller) TrySubmit(cmd Command) bool {
	select {
	case ctrl.commands <- cmd:
		return true
	default:
		return false
	}
}

// Drain removes and returns every queued command, in the order they were submitted. It never blocks.
func (ctrl *Controller) Drain() []Command {
	var out []Command
	for {
		select {
		case cmd := <-ctrl.commands:
			out = append(out, cmd)
		default:
			return out
		}
	}
}

// Status returns the current loading status.
func (ctrl *Controller) Status() LoadingStatus {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	return ctrl.status
}

// SetState updates the loading status, clearing any previous error.
func (ctrl *Controller) SetState(state LoadingState, progress float32, message string) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	ctrl.status = LoadingStatus{State: state, Progress: progress, Message: message}
}

// SetError moves the status into the given error state.
func (ctrl *Controller) SetError(state LoadingState, err error) {
	if !state.IsError() {
		state = StateError
	}
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	ctrl.status.State = state
	ctrl.status.Err = err
	ctrl.status.Message = "Loading failed"
}

// PublishQuery stores the latest QueryResults.
func (ctrl *Controller) PublishQuery(results QueryResults) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	ctrl.query = results
}

// Query returns the QueryResults last published by the Scene.
func (ctrl *Controller) Query() QueryResults {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	return ctrl.query
}
