package harness_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tatte-go/internal/harness"
	"tatte-go/tatte"
)

// sloppyEngine succeeds at everything while breaking the output rules.
type sloppyEngine struct{}

func (sloppyEngine) InitializeTemplateCreation(string, tatte.TemplateRole) tatte.ReturnStatus {
	return tatte.OK()
}

func (sloppyEngine) CreateTemplate(images tatte.MultiTattoo, _ tatte.TemplateRole) (tatte.TemplateResult, tatte.ReturnStatus) {
	t, _ := tatte.NewTemplate([]byte{1, 2, 3})
	t.AddBoundingBox(tatte.BoundingBox{X: 40, Y: 40, Width: 20, Height: 20, Confidence: 0.5})
	return tatte.TemplateResult{Template: t, Quality: []float64{1.5}}, tatte.OK()
}

func (sloppyEngine) FinalizeEnrollment(string, string, string, tatte.GalleryType) tatte.ReturnStatus {
	return tatte.OK()
}

func (sloppyEngine) InitializeIdentification(string, string) tatte.ReturnStatus {
	return tatte.OK()
}

func (sloppyEngine) IdentifyTemplate(*tatte.Template, uint32) ([]tatte.Candidate, tatte.ReturnStatus) {
	return []tatte.Candidate{
		{IsAssigned: true, TemplateID: "a", SimilarityScore: 0.2},
		{IsAssigned: true, TemplateID: "ghost", SimilarityScore: 0.9},
		{IsAssigned: false, SimilarityScore: 0},
	}, tatte.OK()
}

func (sloppyEngine) InitializeDetection(string) tatte.ReturnStatus {
	return tatte.OK()
}

func (sloppyEngine) DetectTattoo(tatte.Image) (tatte.Detection, tatte.ReturnStatus) {
	return tatte.Detection{Detected: true, Confidence: 0.7}, tatte.Status(tatte.ExtractError, "boom")
}

func TestViolationsAreCollected(t *testing.T) {
	h := harness.New(sloppyEngine{}, options(t), nil)
	defer h.Close()
	ctx := context.Background()

	subjects := []harness.Subject{{ID: "a", Images: tatte.MultiTattoo{leftDark}}}
	_, err := h.Enroll(ctx, subjects)
	require.NoError(t, err)

	results, err := h.Search(ctx, []harness.Subject{{ID: "p", Images: tatte.MultiTattoo{leftDark}}}, 2)
	require.NoError(t, err)
	require.Len(t, results[0].Candidates, 3)

	_, err = h.Detect(ctx, subjects)
	require.NoError(t, err)

	byOp := map[string]int{}
	for _, v := range h.Report().Violations {
		byOp[v.Operation]++
	}
	// box outside the image and bad quality, for the enrollment and the probe template
	require.Equal(t, 4, byOp["CreateTemplate"])
	// too many, unsorted, unknown template, unassigned score
	require.Equal(t, 4, byOp["IdentifyTemplate"])
	require.Equal(t, 1, byOp["DetectTattoo"])
	require.Equal(t, 9, h.Report().ViolationCount())
}
