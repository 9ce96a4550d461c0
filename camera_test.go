package scenecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCameraDefaults(t *testing.T) {

	camera := NewCamera(200, 100)

	assert.Equal(t, Vector3{0, 0, 5}, camera.Eye())
	assert.Equal(t, float32(2), camera.AspectRatio())
	assert.Equal(t, float32(45), camera.FieldOfView())

	camera.Resize(100, 100)
	assert.Equal(t, float32(1), camera.AspectRatio())

	camera.Resize(0, 100)
	assert.Equal(t, float32(1), camera.AspectRatio(), "invalid sizes are ignored")

}

func TestCameraProjection(t *testing.T) {

	camera := NewCamera(100, 100)

	x, y, inFront := camera.WorldToScreen(Vector3{}, 100, 100)
	assert.True(t, inFront)
	assert.InDelta(t, 50, x, 1e-3)
	assert.InDelta(t, 50, y, 1e-3)

	// Up in the world is up on screen, which is a smaller Y.
	_, y, _ = camera.WorldToScreen(Vector3{0, 1, 0}, 100, 100)
	assert.Less(t, y, float32(50))

	_, _, inFront = camera.WorldToScreen(Vector3{0, 0, 10}, 100, 100)
	assert.False(t, inFront, "points behind the camera aren't on screen")

	camera.SetFieldOfView(90)
	assert.InDelta(t, 1, camera.Projection()[1][1], 1e-4)

}

func TestCameraScreenRay(t *testing.T) {

	camera := NewCamera(100, 100)
	camera.SetClipPlanes(0.1, 100)

	ray := camera.ScreenRay(50, 50, 100, 100)
	assert.True(t, ray.Direction.Equals(WorldForward), "got %s", ray.Direction)
	assert.InDelta(t, 0, ray.Origin.X, 1e-3)
	assert.InDelta(t, 4.9, ray.Origin.Z, 1e-2)

	ray = camera.ScreenRay(100, 50, 100, 100)
	assert.Greater(t, ray.Direction.X, float32(0))

}

func TestCameraMoveEyeTo(t *testing.T) {

	camera := NewCamera(100, 100)

	camera.MoveEyeTo(Vector3{10, 0, 5}, 1)
	assert.True(t, camera.Moving())

	camera.Update(0.5)
	assert.InDelta(t, 5, camera.Eye().X, 1e-3, "InOutQuad is halfway at the midpoint")

	camera.Update(0.6)
	assert.False(t, camera.Moving())
	assert.Equal(t, Vector3{10, 0, 5}, camera.Eye())

	camera.MoveTargetTo(Vector3{1, 1, 1}, 0)
	assert.False(t, camera.Moving())
	assert.Equal(t, Vector3{1, 1, 1}, camera.Target())

	camera.MoveEyeTo(Vector3{}, 2)
	camera.SetEye(Vector3{0, 3, 0})
	assert.False(t, camera.Moving(), "SetEye cancels the eased movement")

}
