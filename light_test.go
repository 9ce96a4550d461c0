package scenecore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightsAmbientAndDirectional(t *testing.T) {

	lights := NewLights(0.25)
	up := Vector3{0, 1, 0}

	assert.InDelta(t, 0.25, lights.Light(Vector3{}, up).R, 1e-6)

	require.True(t, lights.AddDirectional(DirectionalLight{Direction: Vector3{0, -2, 0}, Color: NewColor(1, 0, 0, 1), Energy: 0.5, On: true}))
	assert.InDelta(t, 1, lights.Directional[0].Direction.Magnitude(), 1e-6, "directions are normalized when added")

	lit := lights.Light(Vector3{}, up)
	assert.InDelta(t, 0.75, lit.R, 1e-6)
	assert.InDelta(t, 0.25, lit.G, 1e-6)
	assert.Equal(t, float32(1), lit.A)

	// Faces turned away from the light only get the ambient light.
	assert.InDelta(t, 0.25, lights.Light(Vector3{}, Vector3{0, -1, 0}).R, 1e-6)

	lights.Directional[0].On = false
	assert.InDelta(t, 0.25, lights.Light(Vector3{}, up).R, 1e-6)

}

func TestLightsPoint(t *testing.T) {

	lights := NewLights(0)
	lights.AddPoint(PointLight{Position: Vector3{0, 2, 0}, Color: White, Energy: 1, Range: 4, On: true})

	up := Vector3{0, 1, 0}
	near := lights.Light(Vector3{}, up).R
	assert.Greater(t, near, float32(0.9))

	assert.Zero(t, lights.Light(Vector3{0, -10, 0}, up).R, "out of range")
	assert.Zero(t, lights.Light(Vector3{}, Vector3{0, -1, 0}).R, "facing away")

	// Without a range, light falls off gradually instead.
	lights.Point[0].Range = 0
	assert.Greater(t, lights.Light(Vector3{0, -10, 0}, up).R, float32(0))
	assert.Less(t, lights.Light(Vector3{0, -10, 0}, up).R, near)

}

func TestLightsLimits(t *testing.T) {

	lights := NewLights(0)

	for i := 0; i < MaxDirectionalLights; i++ {
		assert.True(t, lights.AddDirectional(DirectionalLight{Direction: WorldForward}))
	}
	assert.False(t, lights.AddDirectional(DirectionalLight{Direction: WorldForward}))

	for i := 0; i < MaxPointLights; i++ {
		assert.True(t, lights.AddPoint(PointLight{}))
	}
	assert.False(t, lights.AddPoint(PointLight{}))

	lights.Clear()
	assert.Empty(t, lights.Directional)
	assert.Empty(t, lights.Point)

}

func TestLoadSceneLights(t *testing.T) {

	importer := newFakeImporter()

	plain := testSceneData()
	importer.scenes["plain.glb"] = plain

	lit := testSceneData()
	lit.Lights = []LightRecord{
		{Kind: LightAmbient, Color: White, Energy: 0.1},
		{Kind: LightPoint, Name: "lamp", Position: Vector3{0, 3, 0}, Color: White, Energy: 2, Range: 10},
	}
	importer.scenes["lit.glb"] = lit

	scene, err := LoadScene(context.Background(), "plain.glb", importer, newFakeDevice(), nil, newTestOptions())
	require.NoError(t, err)
	assert.Equal(t, DefaultLights(), scene.Lights(), "scenes without lights keep the default lighting")
	scene.Release()

	scene, err = LoadScene(context.Background(), "lit.glb", importer, newFakeDevice(), nil, newTestOptions())
	require.NoError(t, err)
	defer scene.Release()

	lights := scene.Lights()
	assert.Empty(t, lights.Directional)
	require.Len(t, lights.Point, 1)
	assert.Equal(t, Vector3{0, 3, 0}, lights.Point[0].Position)
	assert.True(t, lights.Point[0].On)
	assert.Equal(t, float32(0.1), lights.Ambient.Energy)

}
