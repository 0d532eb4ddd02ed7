package sieve

import (
	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/config"
)

type options struct {
	artifacts   config.ArtifactsConfig
	paths       *artifact.Paths
	onnxLibrary string
}

// Option configures a Sieve instance.
type Option func(*options)

// WithArtifactDir sets the directory holding encoder.json, vectorizer.json
// and model.onnx.
func WithArtifactDir(dir string) Option {
	return func(o *options) {
		o.artifacts.Dir = dir
	}
}

// WithArtifactPaths sets explicit paths for each artifact. The classifier
// may be an .onnx or a linear .safetensors model.
func WithArtifactPaths(encoder, vectorizer, classifier string) Option {
	return func(o *options) {
		o.paths = &artifact.Paths{
			Encoder:    encoder,
			Vectorizer: vectorizer,
			Classifier: classifier,
		}
	}
}

// WithONNXLibrary sets the onnxruntime shared library path.
func WithONNXLibrary(path string) Option {
	return func(o *options) {
		o.onnxLibrary = path
	}
}

func defaultOptions() options {
	return options{artifacts: config.Default().Artifacts}
}

// resolvePaths gives explicit paths precedence over the artifact directory.
func resolvePaths(o options) artifact.Paths {
	if o.paths != nil {
		return *o.paths
	}
	return o.artifacts.Paths()
}
