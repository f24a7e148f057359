package engine

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"tatte-go/tatte"
)

const payloadVersion = 1

var errPayload = errors.New("malformed template payload")

// record is the CBOR body of a reference template.
type record struct {
	Version  int       `cbor:"1,keyasint"`
	Role     int       `cbor:"2,keyasint"`
	Images   int       `cbor:"3,keyasint"`
	Grid     int       `cbor:"4,keyasint"`
	Features []float32 `cbor:"5,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 20,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

func encodeRecord(role tatte.TemplateRole, images, grid int, features []float64) ([]byte, error) {
	r := record{
		Version:  payloadVersion,
		Role:     int(role),
		Images:   images,
		Grid:     grid,
		Features: make([]float32, len(features)),
	}
	for i, f := range features {
		r.Features[i] = float32(f)
	}
	return encMode.Marshal(r)
}

func decodeRecord(data []byte) (*record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", errPayload)
	}
	var r record
	if err := decMode.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", errPayload, err)
	}
	if r.Version != payloadVersion {
		return nil, fmt.Errorf("%w: version %d", errPayload, r.Version)
	}
	if r.Grid <= 0 || len(r.Features) != r.Grid*r.Grid {
		return nil, fmt.Errorf("%w: %d features for grid %d", errPayload, len(r.Features), r.Grid)
	}
	return &r, nil
}

func (r *record) vector() []float64 {
	out := make([]float64, len(r.Features))
	for i, f := range r.Features {
		out[i] = float64(f)
	}
	return out
}
