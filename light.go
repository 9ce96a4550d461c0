package scenecore

import "github.com/chewxy/math32"

// The most lights of each kind a Lights collection holds; these match the sizes of the light arrays a shader would be given.
const (
	MaxPointLights       = 16
	MaxDirectionalLights = 4
)

// AmbientLight colors the entire Scene evenly.
type AmbientLight struct {
	Color Color
	// Energy is the overall energy of the Light. Internally, technically there's no difference between a brighter color and a
	// higher energy, but this is here for convenience / adherence to GLTF / 3D modelers.
	Energy float32
}

// DirectionalLight represents a directional light of infinite distance, like the sun.
type DirectionalLight struct {
	Direction Vector3 // The direction the light travels in, in world space
	Color     Color
	Energy    float32
	On        bool // If the light is on and contributing to the scene.
}

// PointLight represents a light shining in every direction from one point.
type PointLight struct {
	Position Vector3
	Color    Color
	Energy   float32
	// Range is the distance after which the light fully attenuates. If this is 0, it falls off using something akin to the
	// inverse square law instead.
	Range float32
	On    bool
}

// Lights holds the lights of a Scene. Lights are placed in world space and aren't part of the transform hierarchy.
type Lights struct {
	Ambient     AmbientLight
	Directional []DirectionalLight
	Point       []PointLight
}

// NewLights returns an empty collection of lights with a white ambient light of the given energy.
func NewLights(ambient float32) *Lights {
	return &Lights{Ambient: AmbientLight{Color: White, Energy: ambient}}
}

// DefaultLights returns the lighting a Scene starts with: a dim ambient light and a sun shining down at an angle.
func DefaultLights() *Lights {
	lights := NewLights(0.35)
	lights.AddDirectional(DirectionalLight{Direction: Vector3{-0.4, -1, -0.6}, Color: White, Energy: 0.65, On: true})
	return lights
}

// AddDirectional adds a directional light, returning false if the collection already holds MaxDirectionalLights.
func (lights *Lights) AddDirectional(light DirectionalLight) bool {
	if len(lights.Directional) >= MaxDirectionalLights {
		return false
	}
	light.Direction = light.Direction.Unit()
	lights.Directional = append(lights.Directional, light)
	return true
}

// AddPoint adds a point light, returning false if the collection already holds MaxPointLights.
func (lights *Lights) AddPoint(light PointLight) bool {
	if len(lights.Point) >= MaxPointLights {
		return false
	}
	lights.Point = append(lights.Point, light)
	return true
}

// Clear removes every directional and point light. The ambient light is kept.
func (lights *Lights) Clear() {
	lights.Directional = lights.Directional[:0]
	lights.Point = lights.Point[:0]
}

// Light returns the light falling on a surface at the given world position, facing along normal (which should be of unit
// length). The result's alpha is always 1.
func (lights *Lights) Light(position, normal Vector3) Color {

	amb := lights.Ambient
	r, g, b := amb.Color.R*amb.Energy, amb.Color.G*amb.Energy, amb.Color.B*amb.Energy

	for _, sun := range lights.Directional {
		if !sun.On {
			continue
		}
		diffuse := math32.Max(0, normal.Dot(sun.Direction.Invert())) * sun.Energy
		r += sun.Color.R * diffuse
		g += sun.Color.G * diffuse
		b += sun.Color.B * diffuse
	}

	for _, point := range lights.Point {

		if !point.On {
			continue
		}

		toLight := point.Position.Sub(position)
		distance := toLight.MagnitudeSquared()

		diffuse := math32.Max(0, normal.Dot(toLight.Unit()))

		if point.Range == 0 {
			diffuse *= 1 / (1 + 0.1*distance) * 2
		} else {
			falloff := 1 - math32.Pow(distance/(point.Range*point.Range), 4)
			diffuse *= math32.Max(math32.Min(falloff, 1), 0)
		}

		diffuse *= point.Energy
		r += point.Color.R * diffuse
		g += point.Color.G * diffuse
		b += point.Color.B * diffuse

	}

	return Color{r, g, b, 1}

}
