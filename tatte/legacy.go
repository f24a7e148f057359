package tatte

// IdentificationInterface is the class I (1:N identification) method set
// of the first API revision.
type IdentificationInterface interface {
	InitializeEnrollmentSession(configDir string) ReturnStatus
	CreateTemplate(images MultiTattoo, role TemplateRole) (TemplateResult, ReturnStatus)
	FinalizeEnrollment(enrollmentDir, edbName, manifestName string) ReturnStatus
	InitializeProbeTemplateSession(configDir, enrollmentDir string) ReturnStatus
	InitializeIdentificationSession(configDir, enrollmentDir string) ReturnStatus
	IdentifyTemplate(probe *Template, k uint32) ([]Candidate, ReturnStatus)
}

// DetectAndLocalizeInterface is the class D (detection and localization)
// method set of the first API revision.
type DetectAndLocalizeInterface interface {
	Initialize(configDir string) ReturnStatus
	DetectTattoo(img Image) (bool, float64, ReturnStatus)
	LocalizeTattoos(img Image) ([]BoundingBox, ReturnStatus)
}

// AsIdentificationInterface exposes impl through the class I method set.
// Finalization uses a consolidated gallery, and the enrollment directory
// passed to InitializeProbeTemplateSession is not forwarded.
func AsIdentificationInterface(impl Interface) IdentificationInterface {
	return legacyIdentification{impl: impl}
}

// AsDetectAndLocalizeInterface exposes impl through the class D method set.
func AsDetectAndLocalizeInterface(impl Interface) DetectAndLocalizeInterface {
	return legacyDetection{impl: impl}
}

type legacyIdentification struct {
	impl Interface
}

func (l legacyIdentification) InitializeEnrollmentSession(configDir string) ReturnStatus {
	return l.impl.InitializeTemplateCreation(configDir, Enrollment)
}

func (l legacyIdentification) CreateTemplate(images MultiTattoo, role TemplateRole) (TemplateResult, ReturnStatus) {
	return l.impl.CreateTemplate(images, role)
}

func (l legacyIdentification) FinalizeEnrollment(enrollmentDir, edbName, manifestName string) ReturnStatus {
	return l.impl.FinalizeEnrollment(enrollmentDir, edbName, manifestName, Consolidated)
}

// InitializeProbeTemplateSession ignores enrollmentDir: Interface creates
// probe templates without reference to the enrolled gallery.
func (l legacyIdentification) InitializeProbeTemplateSession(configDir, enrollmentDir string) ReturnStatus {
	return l.impl.InitializeTemplateCreation(configDir, Identification)
}

func (l legacyIdentification) InitializeIdentificationSession(configDir, enrollmentDir string) ReturnStatus {
	return l.impl.InitializeIdentification(configDir, enrollmentDir)
}

func (l legacyIdentification) IdentifyTemplate(probe *Template, k uint32) ([]Candidate, ReturnStatus) {
	return l.impl.IdentifyTemplate(probe, k)
}

type legacyDetection struct {
	impl Interface
}

func (l legacyDetection) Initialize(configDir string) ReturnStatus {
	return l.impl.InitializeDetection(configDir)
}

func (l legacyDetection) DetectTattoo(img Image) (bool, float64, ReturnStatus) {
	d, st := l.impl.DetectTattoo(img)
	if !st.OK() {
		return false, 0, st
	}
	return d.Detected, d.Confidence, st
}

func (l legacyDetection) LocalizeTattoos(img Image) ([]BoundingBox, ReturnStatus) {
	d, st := l.impl.DetectTattoo(img)
	if !st.OK() {
		return nil, st
	}
	return d.BoundingBoxes, st
}
