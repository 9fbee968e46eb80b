// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type snapshotRecord struct {
	Key       []byte `cbor:"key"`
	Footprint int64  `cbor:"footprint"`
	Note      string `cbor:"note,omitempty"`
}

type summaryRecord struct {
	Path      string `json:"path"`
	Footprint int64  `json:"footprint"`
}

func TestMarshalSortsMapKeys(t *testing.T) {
	first := map[string]int64{}
	second := map[string]int64{}
	names := []string{"z/Z.class", "a/A.class", "m/M.class", "b/B.class", "y/Y.class"}
	for i, name := range names {
		first[name] = int64(i)
	}
	for i := len(names) - 1; i >= 0; i-- {
		second[names[i]] = int64(i)
	}

	firstData, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	secondData, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(firstData, secondData) {
		t.Errorf("equal maps encoded differently: %x vs %x", firstData, secondData)
	}
}

func TestRecordRoundtrip(t *testing.T) {
	original := snapshotRecord{Key: []byte{0xde, 0xad, 0xbe, 0xef}, Footprint: 1234}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded snapshotRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(decoded.Key, original.Key) || decoded.Footprint != original.Footprint {
		t.Errorf("got %+v, want %+v", decoded, original)
	}
}

func TestJSONTagFallback(t *testing.T) {
	data, err := Marshal(summaryRecord{Path: "a/A.class", Footprint: 96})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var keyed map[string]any
	if err := Unmarshal(data, &keyed); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if keyed["path"] != "a/A.class" {
		t.Errorf("json tag name not used as CBOR key: %v", keyed)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(snapshotRecord{Key: []byte{1}, Footprint: 7, Note: "added later"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var older struct {
		Footprint int64 `cbor:"footprint"`
	}
	if err := Unmarshal(data, &older); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if older.Footprint != 7 {
		t.Errorf("Footprint = %d, want 7", older.Footprint)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record snapshotRecord
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestStreamRoundtrip(t *testing.T) {
	records := []snapshotRecord{
		{Key: []byte{1}, Footprint: 40},
		{Key: []byte{2}, Footprint: 96},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range records {
		var got snapshotRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if got.Footprint != want.Footprint || !bytes.Equal(got.Key, want.Key) {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
}
