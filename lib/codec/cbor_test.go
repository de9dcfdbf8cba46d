// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sampleRecord struct {
	Order   int       `cbor:"order"`
	Format  string    `cbor:"format"`
	Squares int64     `cbor:"squares"`
	Note    string    `cbor:"note,omitempty"`
	When    time.Time `cbor:"when"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Order:   3,
		Format:  "binary",
		Squares: 8,
		When:    time.Date(2026, 3, 1, 12, 0, 0, 5, time.UTC),
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.When.Equal(original.When) {
		t.Errorf("When = %v, want %v", decoded.When, original.When)
	}
	decoded.When = original.When
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("non-deterministic encoding: %x vs %x", first, again)
		}
	}
}

func TestOmitemptyRespected(t *testing.T) {
	withNote, err := Marshal(sampleRecord{Note: "x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	withoutNote, err := Marshal(sampleRecord{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(withoutNote) >= len(withNote) {
		t.Errorf("empty note not omitted: %d bytes vs %d", len(withoutNote), len(withNote))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var decoded sampleRecord
	if err := Unmarshal([]byte{0xff, 0x00}, &decoded); err == nil {
		t.Error("Unmarshal should fail on invalid CBOR")
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for order := 1; order <= 3; order++ {
		if err := encoder.Encode(sampleRecord{Order: order}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for order := 1; order <= 3; order++ {
		var decoded sampleRecord
		if err := decoder.Decode(&decoded); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if decoded.Order != order {
			t.Errorf("Order = %d, want %d", decoded.Order, order)
		}
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]int{"order": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `"order": 3`) {
		t.Errorf("Diagnose = %q, want it to contain %q", diagnostic, `"order": 3`)
	}
}
