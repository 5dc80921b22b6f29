package tlv

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/moov-io/bertlv"
)

// Mock custom unmarshaler
type customType struct {
	Val string
}

func (c *customType) UnmarshalTLV(data []byte) error {
	c.Val = "custom:" + hex.EncodeToString(data)
	return nil
}

type nestedStruct struct {
	Version []byte `tlv:"82"`
}

type testStruct struct {
	TagList []byte       `tlv:"5C"`
	Label   string       `tlv:"50"`
	Name    string       `tlv:"5F0E" fmt:"ascii"`
	Details nestedStruct `tlv:"A5"`
	Custom  customType   `tlv:"9F02"`
	Other   []bertlv.TLV `tlv:",unknown"`
}

type repeatedStruct struct {
	Instances []nestedStruct `tlv:"A5"`
	Raw       []bertlv.TLV   `tlv:"31"`
}

func TestUnmarshal(t *testing.T) {
	rawData := Hex(
		"5C", "02", "6175", // Tag list
		"50", "03", "414243", // Label "ABC"
		"5F0E", "03", "414243", // Name "ABC"
		"A5", "03", "8201FF", // Nested Details (Template A5, Tag 82)
		"9F02", "01", "AA", // Custom type (Tag 9F02)
		"DF01", "01", "BB", // Unknown tag
	)

	var result testStruct
	if err := Unmarshal(rawData, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if hex.EncodeToString(result.TagList) != "6175" {
		t.Errorf("Expected tag list 6175, got %s", hex.EncodeToString(result.TagList))
	}

	if result.Label != "414243" {
		t.Errorf("Expected Label 414243, got %s", result.Label)
	}

	if result.Name != "ABC" {
		t.Errorf("Expected Name ABC, got %q", result.Name)
	}

	if hex.EncodeToString(result.Details.Version) != "ff" {
		t.Errorf("Expected nested Version ff, got %s", hex.EncodeToString(result.Details.Version))
	}

	if result.Custom.Val != "custom:aa" {
		t.Errorf("Expected custom:aa, got %s", result.Custom.Val)
	}

	if len(result.Other) != 1 || strings.ToUpper(result.Other[0].Tag) != "DF01" {
		t.Errorf("Unknown tag DF01 not captured correctly")
	}
}

func TestUnmarshal_Repeated(t *testing.T) {
	rawData := Hex(
		"A5 03 820101",
		"A5 03 820102",
		"31 03 020101",
	)

	var result repeatedStruct
	if err := Unmarshal(rawData, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(result.Instances) != 2 {
		t.Fatalf("Expected 2 instances, got %d", len(result.Instances))
	}
	if result.Instances[1].Version[0] != 0x02 {
		t.Errorf("Second instance mismatch: %X", result.Instances[1].Version)
	}
	if len(result.Raw) != 1 || !strings.EqualFold(result.Raw[0].Tag, "02") {
		t.Errorf("Expected SET children to be kept as TLVs, got %+v", result.Raw)
	}
}

func TestGetValue(t *testing.T) {
	rawData := Hex(
		"5F1F", "02", "503C", // MRZ fragment
		"50", "03", "414243", // Label "ABC"
	)

	t.Run("Existing Tag", func(t *testing.T) {
		val, err := GetValue(rawData, 0x5F1F)
		if err != nil {
			t.Errorf("GetValue failed: %v", err)
		}
		if hex.EncodeToString(val) != "503c" {
			t.Errorf("Expected 503c, got %x", val)
		}
	})

	t.Run("Missing Tag", func(t *testing.T) {
		_, err := GetValue(rawData, 0x99)
		if err == nil {
			t.Error("Expected error for missing tag, got nil")
		}
	})
}

func TestFind(t *testing.T) {
	packets, err := bertlv.Decode(Hex("5F01 04 30313037", "5F36 06 303430303030"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if p, ok := Find(packets, "5f36"); !ok || string(p.Value) != "040000" {
		t.Errorf("Find(5f36) = %v, %v", p, ok)
	}
	if _, ok := Find(packets, "5C"); ok {
		t.Error("Find(5C) should fail")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	t.Run("Non-pointer target", func(t *testing.T) {
		err := Unmarshal([]byte{0x5C, 0x00}, testStruct{})
		if err == nil || !strings.Contains(err.Error(), "pointer") {
			t.Errorf("Expected pointer error, got %v", err)
		}
	})

	t.Run("Pointer to non-struct", func(t *testing.T) {
		var n int
		err := Unmarshal([]byte{0x5C, 0x00}, &n)
		if err == nil || !strings.Contains(err.Error(), "struct") {
			t.Errorf("Expected struct error, got %v", err)
		}
	})

	t.Run("Truncated input", func(t *testing.T) {
		var result testStruct
		if err := Unmarshal([]byte{0x61, 0x05, 0x5F}, &result); err == nil {
			t.Error("Expected decode error, got nil")
		}
	})
}
