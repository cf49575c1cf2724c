package config

import (
	"bytes"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/collisionmap/logging"
)

// Read reads a scenario from the given file, expanding environment variables first.
func Read(filePath string, logger logging.Logger) (*Scenario, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a scenario in YAML (or JSON) from the given reader and specifies where, if
// applicable, the file the reader originated from. Relative geometry files are resolved against
// that file's directory.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Scenario, error) {
	scenario := &Scenario{ConfigFilePath: originalPath}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(scenario); err != nil {
		return nil, errors.Wrap(err, "failed to decode scenario")
	}
	if err := scenario.Ensure(); err != nil {
		return nil, err
	}
	logger.Debugw("read scenario",
		"path", originalPath,
		"joints", len(scenario.Arm.Joints),
		"bodies", len(scenario.Bodies),
		"samples", len(scenario.Path.Samples),
	)
	return scenario, nil
}
