// Package storyletio implements the compiled storylet library's binary
// wire format: magic "SYNL", a little-endian u16 version, then a cbor
// payload. cbor is used as the structural codec here: compact and
// self-describing enough to version safely.
package storyletio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/talgya/syn-director/internal/storylet"
)

var magic = [4]byte{'S', 'Y', 'N', 'L'}

const currentVersion uint16 = 1

// FormatError is returned for a malformed or incompatible library file.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "storylet library format: " + e.Reason }

// payload mirrors storylet.Library but with exported field names matching
// the CompiledStorylet cbor tags already declared on storylet.Compiled's
// constituent types; the top-level container needs its own tags since
// Library itself carries no struct tags.
type payload struct {
	Storylets      []storylet.Compiled             `cbor:"storylets"`
	IDToKey        map[string]uint32               `cbor:"id_to_key"`
	TagIndex       map[string][]uint32             `cbor:"tag_index"`
	LifeStageIndex map[uint8][]uint32               `cbor:"life_stage_index"`
	DomainIndex    map[uint8][]uint32               `cbor:"domain_index"`
	TotalCount     uint32                            `cbor:"total_count"`
}

// Encode serializes a library to the SYNL binary format.
func Encode(lib *storylet.Library) ([]byte, error) {
	p := toPayload(lib)
	body, err := cbor.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode storylet library payload: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	var verBuf [2]byte
	binary.LittleEndian.PutUint16(verBuf[:], currentVersion)
	buf.Write(verBuf[:])
	buf.Write(body)
	return buf.Bytes(), nil
}

// Decode parses the SYNL binary format, rejecting mismatched magic or
// version with a typed FormatError and leaving no partial state.
func Decode(data []byte) (*storylet.Library, error) {
	if len(data) < 6 {
		return nil, &FormatError{Reason: "truncated header"}
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, &FormatError{Reason: fmt.Sprintf("bad magic %q", data[:4])}
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != currentVersion {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported version %d", version)}
	}

	var p payload
	if err := cbor.Unmarshal(data[6:], &p); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("corrupt payload: %v", err)}
	}
	return fromPayload(&p), nil
}

// WriteFile encodes and writes a library to path.
func WriteFile(path string, lib *storylet.Library) error {
	data, err := Encode(lib)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads and decodes a library from path.
func ReadFile(path string) (*storylet.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read storylet library file: %w", err)
	}
	return Decode(data)
}

func toPayload(lib *storylet.Library) *payload {
	p := &payload{
		Storylets:      lib.Storylets,
		IDToKey:        make(map[string]uint32, len(lib.IDToKey)),
		TagIndex:       make(map[string][]uint32, len(lib.TagIndex)),
		LifeStageIndex: make(map[uint8][]uint32, len(lib.LifeStageIndex)),
		DomainIndex:    make(map[uint8][]uint32, len(lib.DomainIndex)),
		TotalCount:     lib.TotalCountVal,
	}
	for id, key := range lib.IDToKey {
		p.IDToKey[string(id)] = uint32(key)
	}
	for tag, keys := range lib.TagIndex {
		p.TagIndex[string(tag)] = keysToU32(keys)
	}
	for stage, keys := range lib.LifeStageIndex {
		p.LifeStageIndex[uint8(stage)] = keysToU32(keys)
	}
	for domain, keys := range lib.DomainIndex {
		p.DomainIndex[uint8(domain)] = keysToU32(keys)
	}
	return p
}

func fromPayload(p *payload) *storylet.Library {
	lib := storylet.New()
	lib.Storylets = p.Storylets
	lib.TotalCountVal = p.TotalCount
	for id, key := range p.IDToKey {
		lib.IDToKey[storyletIDOf(id)] = u32ToKey(key)
	}
	for tag, keys := range p.TagIndex {
		lib.TagIndex[tagOf(tag)] = keysFromU32(keys)
	}
	for stage, keys := range p.LifeStageIndex {
		lib.LifeStageIndex[lifeStageOf(stage)] = keysFromU32(keys)
	}
	for domain, keys := range p.DomainIndex {
		lib.DomainIndex[domainOf(domain)] = keysFromU32(keys)
	}
	return lib
}
