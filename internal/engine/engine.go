// Package engine provides the reference recognition implementation. It is
// deterministic and pure Go: templates are normalised luminance grids and
// detection looks for large dark regions.
package engine

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"tatte-go/tatte"
)

// Name is the registry name of the reference implementation.
const Name = "reference"

func init() {
	tatte.Register(Name, func() tatte.Interface { return New() })
}

// Reference implements tatte.Interface.
type Reference struct {
	mu        sync.RWMutex
	creation  map[tatte.TemplateRole]*Settings
	detection *Settings
	search    *index
}

var _ tatte.Interface = (*Reference)(nil)

// New returns an uninitialised engine.
func New() *Reference {
	return &Reference{creation: make(map[tatte.TemplateRole]*Settings)}
}

// InitializeTemplateCreation loads settings for the given role.
func (r *Reference) InitializeTemplateCreation(configDir string, role tatte.TemplateRole) tatte.ReturnStatus {
	if role != tatte.Enrollment && role != tatte.Identification {
		return tatte.Statusf(tatte.ConfigError, "unknown role %v", role)
	}
	s, err := LoadSettings(configDir)
	if err != nil {
		return tatte.Status(tatte.ConfigError, err.Error())
	}
	r.mu.Lock()
	r.creation[role] = s
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"role":      role,
		"grid_size": s.GridSize,
		"sketches":  s.SupportSketch,
	}).Info("Template creation initialized")
	return tatte.OK()
}

// InitializeDetection loads settings for detection.
func (r *Reference) InitializeDetection(configDir string) tatte.ReturnStatus {
	s, err := LoadSettings(configDir)
	if err != nil {
		return tatte.Status(tatte.ConfigError, err.Error())
	}
	r.mu.Lock()
	r.detection = s
	r.mu.Unlock()
	log.Infof("Detection initialized (threshold %.0f)", s.DetectThreshold)
	return tatte.OK()
}

// DetectTattoo reports the dark regions of img.
func (r *Reference) DetectTattoo(img tatte.Image) (tatte.Detection, tatte.ReturnStatus) {
	r.mu.RLock()
	s := r.detection
	r.mu.RUnlock()
	if s == nil {
		return tatte.Detection{}, tatte.Status(tatte.ConfigError, "detection not initialized")
	}
	if img.Type == tatte.Sketch && !s.SupportSketch {
		return tatte.Detection{}, tatte.Status(tatte.ImageTypeNotSupported, "sketches are not supported")
	}
	src, err := img.ToImage()
	if err != nil {
		return tatte.Detection{}, tatte.Status(tatte.ParseError, err.Error())
	}

	boxes := localize(workImage(src, s.WorkSize), int(img.Width), int(img.Height), s)
	det := tatte.Detection{Detected: len(boxes) > 0, BoundingBoxes: boxes}
	for _, bb := range boxes {
		if bb.Confidence > det.Confidence {
			det.Confidence = bb.Confidence
		}
	}
	return det, tatte.OK()
}

func (r *Reference) settingsFor(role tatte.TemplateRole) *Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creation[role]
}
