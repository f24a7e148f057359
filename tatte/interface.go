// Package tatte defines the data types and the interface a tattoo
// recognition implementation provides to the evaluation harness.
//
// The harness drives an implementation in two phases. During enrollment it
// calls InitializeTemplateCreation once, then CreateTemplate for every
// subject from independent workers, concatenates the templates into an
// enrollment database and calls FinalizeEnrollment once. During
// identification it calls InitializeIdentification and then IdentifyTemplate
// for each probe. Detection is independent of enrollment state.
//
// Implementations must not share mutable state between CreateTemplate
// calls: workers may live in separate processes.
package tatte

// API version implemented by this package.
const (
	APIMajorVersion = 1
	APIMinorVersion = 2
)

// Detection is the output of DetectTattoo.
type Detection struct {
	Detected      bool          `json:"detected"`
	Confidence    float64       `json:"confidence"`
	BoundingBoxes []BoundingBox `json:"bounding_boxes"`
}

// Interface is the operation set a recognition implementation provides.
// Partial support, e.g. for sketches, is reported through status codes.
type Interface interface {
	// InitializeTemplateCreation is called once before CreateTemplate calls
	// for the given role. configDir is read-only.
	InitializeTemplateCreation(configDir string, role TemplateRole) ReturnStatus

	// CreateTemplate builds a template from a homogeneous set of images of
	// one subject. The result always carries one bounding box and one
	// quality value per input image. On failure with the enrollment role the
	// template may be blank; it is still stored by the harness.
	CreateTemplate(images MultiTattoo, role TemplateRole) (TemplateResult, ReturnStatus)

	// FinalizeEnrollment is called once, in a single process, after all
	// enrollment templates exist. The input files may disappear after the
	// call; anything needed for search must be copied. The enrollment
	// directory is read-only afterwards.
	FinalizeEnrollment(enrollmentDir, edbName, manifestName string, gallery GalleryType) ReturnStatus

	// InitializeIdentification prepares for searches. Several independent
	// processes may call it concurrently on the same enrollment directory.
	InitializeIdentification(configDir, enrollmentDir string) ReturnStatus

	// IdentifyTemplate returns at most k candidates, most similar first.
	// It is never called with a probe whose creation failed.
	IdentifyTemplate(probe *Template, k uint32) ([]Candidate, ReturnStatus)

	// InitializeDetection prepares for DetectTattoo calls.
	InitializeDetection(configDir string) ReturnStatus

	// DetectTattoo reports whether img contains a tattoo, with a confidence
	// on [0,1] and the regions found.
	DetectTattoo(img Image) (Detection, ReturnStatus)
}
