package scenecore

import "errors"

const (
	ErrorUnknownEntity = "error: entity is not registered with the transform system"
	ErrorCycle         = "error: parenting would create a cycle in the transform hierarchy"
	ErrorUnknownGUID   = "error: no resource is registered under that GUID"
	ErrorEmptyMesh     = "error: mesh data has no vertices or indices"
	ErrorNoImporter    = "error: no asset importer was provided"
	ErrorNoDevice      = "error: no GPU device was provided"
)

var (
	ErrUnknownEntity = errors.New(ErrorUnknownEntity)
	ErrCycle         = errors.New(ErrorCycle)
	ErrUnknownGUID   = errors.New(ErrorUnknownGUID)
	ErrEmptyMesh     = errors.New(ErrorEmptyMesh)
	ErrNoImporter    = errors.New(ErrorNoImporter)
	ErrNoDevice      = errors.New(ErrorNoDevice)
)
