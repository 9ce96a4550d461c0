package scenecore

import (
	"fmt"
	"image"
)

// MaterialData is a material as delivered by an Importer.
type MaterialData struct {
	GUID      GUID
	Name      string
	BaseColor Color
	Texture   GUID // Base color texture; empty if the material is untextured
}

// Material is a material whose texture and bind group live on the GPU. It's owned by a ResourceManager.
type Material struct {
	GUID      GUID
	Name      string
	BaseColor Color
	Texture   GUID // The texture's GUID, or empty
	BindGroup BindGroup
}

func (material *Material) release() {
	if material.BindGroup != nil {
		material.BindGroup.Release()
		material.BindGroup = nil
	}
}

// TextureData is a decoded image as delivered by an Importer.
type TextureData struct {
	GUID  GUID
	Name  string
	Image image.Image
}

// Texture is an image uploaded to the GPU and owned by a ResourceManager.
type Texture struct {
	GUID   GUID
	Name   string
	Width  int
	Height int
	GPU    GPUTexture
}

func (texture *Texture) release() {
	if texture.GPU != nil {
		texture.GPU.Release()
		texture.GPU = nil
	}
}

func uploadTexture(device Device, data TextureData) (*Texture, error) {
	if data.Image == nil {
		return nil, fmt.Errorf("texture %q has no image data", data.GUID)
	}
	gpu, err := device.CreateTexture(string(data.GUID), data.Image)
	if err != nil {
		return nil, fmt.Errorf("creating texture %q: %w", data.GUID, err)
	}
	bounds := data.Image.Bounds()
	return &Texture{
		GUID:   data.GUID,
		Name:   data.Name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		GPU:    gpu,
	}, nil
}
