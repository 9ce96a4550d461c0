package scenecore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroOptionsCull(t *testing.T) {

	importer := newFakeImporter()
	scene := NewScene("zero", newTestResources(importer, newFakeDevice()), nil, Options{Logger: quietLogger()})
	assert.True(t, scene.CullingEnabled())

	far, err := scene.AddModel(context.Background(), NewTransformAt(0, 0, 500000), "mesh:cube", "mat:red")
	require.NoError(t, err)
	near, err := scene.AddModel(context.Background(), NewIdentityTransform(), "mesh:cube", "mat:red")
	require.NoError(t, err)

	require.NoError(t, scene.Update(0))
	assert.False(t, scene.Visible(far))
	assert.True(t, scene.Visible(near))

}

func TestOptionsDisableCulling(t *testing.T) {

	options := newTestOptions()
	options.DisableCulling = true

	scene := NewScene("unculled", newTestResources(newFakeImporter(), newFakeDevice()), nil, options)
	assert.False(t, scene.CullingEnabled())

	far, err := scene.AddModel(context.Background(), NewTransformAt(0, 0, 500000), "mesh:cube", "mat:red")
	require.NoError(t, err)
	require.NoError(t, scene.Update(0))
	assert.True(t, scene.Visible(far))

}

func TestOptionsClipPlanes(t *testing.T) {

	options := Options{}.withDefaults()
	assert.Equal(t, float32(0.01), options.Camera.Near)
	assert.Equal(t, float32(1000), options.Camera.Far)

	options = Options{Camera: CameraOptions{Near: 1, Far: 0.5}}.withDefaults()
	assert.Equal(t, float32(1000), options.Camera.Far)

	// A near plane past the default far plane still leaves the far plane behind it.
	options = Options{Camera: CameraOptions{Near: 2000}}.withDefaults()
	assert.Greater(t, options.Camera.Far, options.Camera.Near)
	assert.Equal(t, float32(2000000), options.Camera.Far)

}
