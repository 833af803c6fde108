package internal

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// cborMode encodes descriptions canonically, so equal descriptions encode to
// equal bytes.
var cborMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// dumpConfig is the spew configuration for description dumps.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// YAML encodes the description as YAML.
func (d Description) YAML() ([]byte, error) {
	b, err := yaml.Marshal(d)
	return b, errors.WithStack(err)
}

// CBOR encodes the description as canonical CBOR.
func (d Description) CBOR() ([]byte, error) {
	b, err := cborMode.Marshal(d)
	return b, errors.WithStack(err)
}

// Dump formats the description with its Go types for debugging.
func (d Description) Dump() string {
	return dumpConfig.Sdump(d)
}

// DecodeDescription decodes a description encoded with CBOR.
func DecodeDescription(b []byte) (Description, error) {
	var d Description
	if err := cbor.Unmarshal(b, &d); err != nil {
		return Description{}, errors.WithStack(err)
	}
	return d, nil
}
