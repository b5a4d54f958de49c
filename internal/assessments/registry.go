// Package assessments holds the built-in assessment definitions and the
// assessment-specific interpretation layered on top of the generic scoring
// engine.
package assessments

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/scoring"
)

//go:embed definitions/*.yaml
var definitionsFS embed.FS

var ErrUnknownAssessment = errors.New("unknown assessment type")

// Assessment types shipped with the service.
const (
	CareerReadiness = "career_readiness"
	Leadership      = "leadership"
	Communication   = "communication"
	CAIRPlus        = "cair_plus"
)

var interpreters = map[string]scoring.Interpreter{
	CareerReadiness: careerInterpreter{},
	Leadership:      leadershipInterpreter{},
	Communication:   communicationInterpreter{},
	CAIRPlus:        cairInterpreter{},
}

// Registry is the read-only set of loaded definitions. It is built once at
// startup and safe for concurrent use.
type Registry struct {
	defs    map[string]*models.Definition
	engines map[string]*scoring.Engine
	types   []string
}

// Load parses and validates the embedded definitions.
func Load() (*Registry, error) {
	return LoadFS(definitionsFS, "definitions/*.yaml")
}

// LoadFS parses every file matching pattern in fsys. Any invalid definition
// fails the whole load.
func LoadFS(fsys fs.FS, pattern string) (*Registry, error) {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no assessment definitions match %s", pattern)
	}

	r := &Registry{
		defs:    make(map[string]*models.Definition),
		engines: make(map[string]*scoring.Engine),
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(f), err)
		}
		if _, dup := r.defs[def.Type]; dup {
			return nil, fmt.Errorf("%s: assessment type %q defined twice", path.Base(f), def.Type)
		}
		r.defs[def.Type] = def
		r.engines[def.Type] = scoring.NewEngine(interpreters[def.Type])
		r.types = append(r.types, def.Type)
	}
	sort.Strings(r.types)
	return r, nil
}

// ParseDefinition decodes one YAML definition, applies defaults and
// validates it. Unknown fields are rejected.
func ParseDefinition(data []byte) (*models.Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def models.Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	def.ApplyDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Get returns the definition for an assessment type. The returned value is
// shared and must not be modified.
func (r *Registry) Get(assessmentType string) (*models.Definition, error) {
	def, ok := r.defs[assessmentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAssessment, assessmentType)
	}
	return def, nil
}

// Types returns the loaded assessment types in sorted order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.types...)
}

// List describes every loaded assessment, sorted by type.
func (r *Registry) List() []models.AssessmentInfo {
	out := make([]models.AssessmentInfo, 0, len(r.types))
	for _, t := range r.types {
		def := r.defs[t]
		dims := make([]string, len(def.Dimensions))
		for i, d := range def.Dimensions {
			dims[i] = d.Key
		}
		out = append(out, models.AssessmentInfo{
			Type:          def.Type,
			Name:          def.Name,
			Version:       def.Version,
			Description:   def.Description,
			Dimensions:    dims,
			QuestionCount: len(def.Questions),
		})
	}
	return out
}

// Score scores a submission against the definition named by its
// AssessmentType.
func (r *Registry) Score(sub models.Submission, opts scoring.Options) (*models.AssessmentResult, error) {
	def, err := r.Get(sub.AssessmentType)
	if err != nil {
		return nil, err
	}
	return r.engines[def.Type].Score(def, sub, opts)
}
