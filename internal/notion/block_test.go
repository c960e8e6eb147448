package notion

import (
	"encoding/json"
	"testing"
)

func TestBlockDecodeParagraph(t *testing.T) {
	raw := `{
		"object": "block",
		"id": "b1",
		"type": "paragraph",
		"has_children": false,
		"paragraph": {
			"rich_text": [{"type": "text", "plain_text": "hello", "annotations": {"color": "default"}}],
			"color": "default"
		}
	}`
	var block Block
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.Type != BlockParagraph || block.Paragraph == nil {
		t.Fatalf("paragraph not decoded: %+v", block)
	}
	if got := block.PlainText(); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestBlockDecodeToDo(t *testing.T) {
	raw := `{
		"id": "b2",
		"type": "to_do",
		"has_children": false,
		"to_do": {
			"rich_text": [{"type": "text", "plain_text": "ship it"}],
			"checked": true
		}
	}`
	var block Block
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.ToDo == nil || !block.ToDo.Checked {
		t.Fatalf("to_do payload not decoded: %+v", block.ToDo)
	}
	if got := block.PlainText(); got != "ship it" {
		t.Fatalf("expected ship it, got %q", got)
	}
}

func TestBlockDecodeDivider(t *testing.T) {
	raw := `{"id": "b3", "type": "divider", "has_children": false, "divider": {}}`
	var block Block
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.Type != BlockDivider || !block.Divider {
		t.Fatalf("divider not recognized: %+v", block)
	}
}

func TestBlockDecodeUnknownTypeBecomesUnsupported(t *testing.T) {
	raw := `{
		"id": "b4",
		"type": "synced_block",
		"has_children": true,
		"synced_block": {"synced_from": null}
	}`
	var block Block
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		t.Fatalf("unknown block kinds must decode cleanly, got %v", err)
	}
	if block.Type != BlockUnsupported {
		t.Fatalf("expected unsupported type, got %q", block.Type)
	}
	if block.Unsupported == nil || block.Unsupported.OriginalType != "synced_block" {
		t.Fatalf("original tag not retained: %+v", block.Unsupported)
	}
	if len(block.Unsupported.Raw) == 0 {
		t.Fatalf("raw payload not captured")
	}
	if !block.HasChildren {
		t.Fatalf("has_children lost in unsupported path")
	}
	if got := block.PlainText(); got != "" {
		t.Fatalf("unsupported blocks project empty, got %q", got)
	}
}

func TestBlockDecodeImageVariants(t *testing.T) {
	hosted := `{"id": "b5", "type": "image", "image": {"type": "file", "file": {"url": "https://files.example/a.png"}}}`
	var block Block
	if err := json.Unmarshal([]byte(hosted), &block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.Image == nil || block.Image.File == nil || block.Image.File.URL == "" {
		t.Fatalf("hosted image not decoded: %+v", block.Image)
	}

	external := `{"id": "b6", "type": "image", "image": {"type": "external", "external": {"url": "https://example.com/b.png"}}}`
	if err := json.Unmarshal([]byte(external), &block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.Image == nil || block.Image.External == nil {
		t.Fatalf("external image not decoded: %+v", block.Image)
	}
}

func TestBlockDecodeMissingPayloadForKnownType(t *testing.T) {
	raw := `{"id": "b7", "type": "paragraph", "has_children": false}`
	var block Block
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		t.Fatalf("missing payload must not fail decode: %v", err)
	}
	if block.Type != BlockParagraph || block.Paragraph != nil {
		t.Fatalf("expected bare paragraph, got %+v", block)
	}
}

func TestBlockDecodeCallout(t *testing.T) {
	raw := `{
		"id": "b8",
		"type": "callout",
		"callout": {
			"rich_text": [{"type": "text", "plain_text": "note"}],
			"icon": {"type": "emoji", "emoji": "💡"}
		}
	}`
	var block Block
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.Callout == nil || block.Callout.Icon == nil || block.Callout.Icon.Emoji != "💡" {
		t.Fatalf("callout icon not decoded: %+v", block.Callout)
	}
	if got := block.PlainText(); got != "note" {
		t.Fatalf("expected note, got %q", got)
	}
}
