package tatte_test

import (
	"testing"

	"tatte-go/tatte"

	"github.com/stretchr/testify/require"
)

// stubEngine records calls and returns canned outputs.
type stubEngine struct {
	calls     []string
	gallery   tatte.GalleryType
	detection tatte.Detection
	status    tatte.ReturnStatus
}

func (s *stubEngine) InitializeTemplateCreation(configDir string, role tatte.TemplateRole) tatte.ReturnStatus {
	s.calls = append(s.calls, "init-"+role.String())
	return tatte.OK()
}

func (s *stubEngine) CreateTemplate(images tatte.MultiTattoo, role tatte.TemplateRole) (tatte.TemplateResult, tatte.ReturnStatus) {
	s.calls = append(s.calls, "create")
	return tatte.TemplateResult{Template: &tatte.Template{}}, tatte.OK()
}

func (s *stubEngine) FinalizeEnrollment(dir, edb, manifest string, gallery tatte.GalleryType) tatte.ReturnStatus {
	s.calls = append(s.calls, "finalize")
	s.gallery = gallery
	return tatte.OK()
}

func (s *stubEngine) InitializeIdentification(configDir, enrollmentDir string) tatte.ReturnStatus {
	s.calls = append(s.calls, "init-search")
	return tatte.OK()
}

func (s *stubEngine) IdentifyTemplate(probe *tatte.Template, k uint32) ([]tatte.Candidate, tatte.ReturnStatus) {
	s.calls = append(s.calls, "identify")
	return nil, tatte.OK()
}

func (s *stubEngine) InitializeDetection(configDir string) tatte.ReturnStatus {
	s.calls = append(s.calls, "init-detect")
	return tatte.OK()
}

func (s *stubEngine) DetectTattoo(img tatte.Image) (tatte.Detection, tatte.ReturnStatus) {
	return s.detection, s.status
}

var _ tatte.Interface = (*stubEngine)(nil)

func TestRegistry(t *testing.T) {
	tatte.Register("stub-registry-test", func() tatte.Interface { return &stubEngine{} })

	impl, err := tatte.GetImplementation("stub-registry-test")
	require.NoError(t, err)
	require.IsType(t, &stubEngine{}, impl)
	require.Contains(t, tatte.Implementations(), "stub-registry-test")

	_, err = tatte.GetImplementation("missing")
	require.ErrorIs(t, err, tatte.ErrUnknownImplementation)

	require.Panics(t, func() {
		tatte.Register("stub-registry-test", func() tatte.Interface { return &stubEngine{} })
	})
}

func TestLegacyIdentificationAdapter(t *testing.T) {
	stub := &stubEngine{gallery: tatte.Unconsolidated}
	legacy := tatte.AsIdentificationInterface(stub)

	require.True(t, legacy.InitializeEnrollmentSession("cfg").OK())
	_, st := legacy.CreateTemplate(tatte.MultiTattoo{}, tatte.Enrollment)
	require.True(t, st.OK())
	require.True(t, legacy.FinalizeEnrollment("dir", "edb", "manifest").OK())
	require.True(t, legacy.InitializeProbeTemplateSession("cfg", "dir").OK())
	require.True(t, legacy.InitializeIdentificationSession("cfg", "dir").OK())
	_, st = legacy.IdentifyTemplate(&tatte.Template{}, 3)
	require.True(t, st.OK())

	require.Equal(t, tatte.Consolidated, stub.gallery)
	require.Equal(t, []string{
		"init-enrollment", "create", "finalize", "init-identification", "init-search", "identify",
	}, stub.calls)
}

func TestLegacyDetectionAdapter(t *testing.T) {
	box := tatte.BoundingBox{X: 1, Y: 1, Width: 3, Height: 3, Confidence: 0.7}
	stub := &stubEngine{
		detection: tatte.Detection{Detected: true, Confidence: 0.7, BoundingBoxes: []tatte.BoundingBox{box}},
		status:    tatte.OK(),
	}
	legacy := tatte.AsDetectAndLocalizeInterface(stub)
	require.True(t, legacy.Initialize("cfg").OK())

	found, conf, st := legacy.DetectTattoo(tatte.Image{})
	require.True(t, st.OK())
	require.True(t, found)
	require.Equal(t, 0.7, conf)

	boxes, st := legacy.LocalizeTattoos(tatte.Image{})
	require.True(t, st.OK())
	require.Equal(t, []tatte.BoundingBox{box}, boxes)

	stub.status = tatte.Status(tatte.ParseError, "")
	found, conf, st = legacy.DetectTattoo(tatte.Image{})
	require.False(t, st.OK())
	require.False(t, found)
	require.Zero(t, conf)
	boxes, _ = legacy.LocalizeTattoos(tatte.Image{})
	require.Empty(t, boxes)
}
