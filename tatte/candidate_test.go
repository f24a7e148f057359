package tatte_test

import (
	"errors"
	"testing"

	"tatte-go/tatte"

	"github.com/stretchr/testify/require"
)

func TestNewCandidateIsUnassignedSentinel(t *testing.T) {
	c := tatte.NewCandidate()
	require.False(t, c.IsAssigned)
	require.Equal(t, -1.0, c.SimilarityScore)
}

func TestSortCandidatesUnassignedLast(t *testing.T) {
	cs := []tatte.Candidate{
		tatte.NewCandidate(),
		{IsAssigned: true, TemplateID: "a", SimilarityScore: 0.2},
		{IsAssigned: true, TemplateID: "b", SimilarityScore: 0.9},
		{IsAssigned: true, TemplateID: "c", SimilarityScore: 0.2},
	}
	tatte.SortCandidates(cs)

	require.Equal(t, "b", cs[0].TemplateID)
	require.Equal(t, "a", cs[1].TemplateID)
	require.Equal(t, "c", cs[2].TemplateID)
	require.False(t, cs[3].IsAssigned)
	require.True(t, tatte.CandidatesSorted(cs))
}

func TestCandidatesSortedDetectsViolations(t *testing.T) {
	require.False(t, tatte.CandidatesSorted([]tatte.Candidate{
		{IsAssigned: true, SimilarityScore: 0.1},
		{IsAssigned: true, SimilarityScore: 0.5},
	}))
	require.False(t, tatte.CandidatesSorted([]tatte.Candidate{
		tatte.NewCandidate(),
		{IsAssigned: true, SimilarityScore: 0.5},
	}))
	require.True(t, tatte.CandidatesSorted(nil))
}

func TestReturnStatus(t *testing.T) {
	require.True(t, tatte.OK().OK())
	require.NoError(t, tatte.OK().Err())

	st := tatte.Status(tatte.ParseError, "bad raster")
	require.False(t, st.OK())
	require.Equal(t, "ParseError: bad raster", st.String())

	var se *tatte.StatusError
	require.True(t, errors.As(st.Err(), &se))
	require.Equal(t, tatte.ParseError, se.Status.Code)
}

func TestReturnCodesAreStable(t *testing.T) {
	codes := tatte.ReturnCodes()
	require.Len(t, codes, 13)
	require.Equal(t, 0, int(tatte.Success))
	require.Equal(t, 11, int(tatte.VendorError))
	require.Equal(t, 12, int(tatte.NotImplemented))

	for _, c := range codes {
		parsed, err := tatte.ParseReturnCode(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}
}

func TestReturnCodeCategory(t *testing.T) {
	require.Equal(t, tatte.CategoryConfig, tatte.EnrollDirError.Category())
	require.Equal(t, tatte.CategoryInput, tatte.NumDataError.Category())
	require.Equal(t, tatte.CategoryProcessing, tatte.TemplateFormatError.Category())
	require.Equal(t, tatte.CategoryOther, tatte.NotImplemented.Category())
	require.Equal(t, tatte.CategoryNone, tatte.Success.Category())
}
