package notion

import (
	"encoding/json"
	"time"
)

type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockToggle           BlockType = "toggle"
	BlockCode             BlockType = "code"
	BlockImage            BlockType = "image"
	BlockDivider          BlockType = "divider"
	BlockCallout          BlockType = "callout"
	BlockQuote            BlockType = "quote"
	BlockTableOfContents  BlockType = "table_of_contents"
	BlockUnsupported      BlockType = "unsupported"
)

// RichTextPayload is the common payload shape shared by paragraph, headings,
// list items, toggles and quotes.
type RichTextPayload struct {
	RichText []RichTextRun `json:"rich_text"`
	Color    string        `json:"color,omitempty"`
}

type ToDoPayload struct {
	RichText []RichTextRun `json:"rich_text"`
	Checked  bool          `json:"checked"`
	Color    string        `json:"color,omitempty"`
}

type CodePayload struct {
	RichText []RichTextRun `json:"rich_text"`
	Caption  []RichTextRun `json:"caption,omitempty"`
	Language string        `json:"language,omitempty"`
}

type FileRef struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

type ImagePayload struct {
	Type     string        `json:"type"`
	File     *FileRef      `json:"file,omitempty"`
	External *FileRef      `json:"external,omitempty"`
	Caption  []RichTextRun `json:"caption,omitempty"`
}

type IconRef struct {
	Type     string   `json:"type"`
	Emoji    string   `json:"emoji,omitempty"`
	External *FileRef `json:"external,omitempty"`
	File     *FileRef `json:"file,omitempty"`
}

type CalloutPayload struct {
	RichText []RichTextRun `json:"rich_text"`
	Icon     *IconRef      `json:"icon,omitempty"`
	Color    string        `json:"color,omitempty"`
}

type TableOfContentsPayload struct {
	Color string `json:"color,omitempty"`
}

// UnsupportedPayload keeps what we could not interpret: the original type tag
// and the raw block object, so nothing is discarded on schema drift upstream.
type UnsupportedPayload struct {
	OriginalType string
	Raw          json.RawMessage
}

// Block is one unit of page content. Exactly one payload pointer is set for a
// known Type. Children are never populated by the decoder; the block tree
// resolver attaches them on demand (see Resolver).
type Block struct {
	ID             string
	Type           BlockType
	HasChildren    bool
	CreatedTime    time.Time
	LastEditedTime time.Time

	Paragraph        *RichTextPayload
	Heading1         *RichTextPayload
	Heading2         *RichTextPayload
	Heading3         *RichTextPayload
	BulletedListItem *RichTextPayload
	NumberedListItem *RichTextPayload
	ToDo             *ToDoPayload
	Toggle           *RichTextPayload
	Code             *CodePayload
	Image            *ImagePayload
	Divider          bool
	Callout          *CalloutPayload
	Quote            *RichTextPayload
	TableOfContents  *TableOfContentsPayload
	Unsupported      *UnsupportedPayload

	Children []Block
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
	}
	if raw, ok := fields["id"]; ok {
		_ = json.Unmarshal(raw, &b.ID)
	}
	if raw, ok := fields["has_children"]; ok {
		_ = json.Unmarshal(raw, &b.HasChildren)
	}
	if raw, ok := fields["created_time"]; ok {
		_ = json.Unmarshal(raw, &b.CreatedTime)
	}
	if raw, ok := fields["last_edited_time"]; ok {
		_ = json.Unmarshal(raw, &b.LastEditedTime)
	}
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &b.Type); err != nil {
			return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
		}
	}
	payload := fields[string(b.Type)]
	if b.Type == BlockDivider {
		b.Divider = true
		return nil
	}
	if len(payload) == 0 || string(payload) == "null" {
		if blockTypeKnown(b.Type) {
			return nil
		}
		payload = nil
	}

	var err error
	switch b.Type {
	case BlockParagraph:
		err = json.Unmarshal(payload, &b.Paragraph)
	case BlockHeading1:
		err = json.Unmarshal(payload, &b.Heading1)
	case BlockHeading2:
		err = json.Unmarshal(payload, &b.Heading2)
	case BlockHeading3:
		err = json.Unmarshal(payload, &b.Heading3)
	case BlockBulletedListItem:
		err = json.Unmarshal(payload, &b.BulletedListItem)
	case BlockNumberedListItem:
		err = json.Unmarshal(payload, &b.NumberedListItem)
	case BlockToDo:
		err = json.Unmarshal(payload, &b.ToDo)
	case BlockToggle:
		err = json.Unmarshal(payload, &b.Toggle)
	case BlockCode:
		err = json.Unmarshal(payload, &b.Code)
	case BlockImage:
		err = json.Unmarshal(payload, &b.Image)
	case BlockCallout:
		err = json.Unmarshal(payload, &b.Callout)
	case BlockQuote:
		err = json.Unmarshal(payload, &b.Quote)
	case BlockTableOfContents:
		err = json.Unmarshal(payload, &b.TableOfContents)
	default:
		original := string(b.Type)
		b.Unsupported = &UnsupportedPayload{
			OriginalType: original,
			Raw:          append(json.RawMessage(nil), data...),
		}
		b.Type = BlockUnsupported
		return nil
	}
	if err != nil {
		return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
	}
	return nil
}

func blockTypeKnown(t BlockType) bool {
	switch t {
	case BlockParagraph, BlockHeading1, BlockHeading2, BlockHeading3,
		BlockBulletedListItem, BlockNumberedListItem, BlockToDo, BlockToggle,
		BlockCode, BlockImage, BlockDivider, BlockCallout, BlockQuote,
		BlockTableOfContents:
		return true
	}
	return false
}

// PlainText projects the block's textual payload, mirroring the property
// display rules. Non-text blocks render empty.
func (b Block) PlainText() string {
	switch b.Type {
	case BlockParagraph:
		return richTextPayloadText(b.Paragraph)
	case BlockHeading1:
		return richTextPayloadText(b.Heading1)
	case BlockHeading2:
		return richTextPayloadText(b.Heading2)
	case BlockHeading3:
		return richTextPayloadText(b.Heading3)
	case BlockBulletedListItem:
		return richTextPayloadText(b.BulletedListItem)
	case BlockNumberedListItem:
		return richTextPayloadText(b.NumberedListItem)
	case BlockToggle:
		return richTextPayloadText(b.Toggle)
	case BlockQuote:
		return richTextPayloadText(b.Quote)
	case BlockToDo:
		if b.ToDo == nil {
			return ""
		}
		return PlainText(b.ToDo.RichText)
	case BlockCode:
		if b.Code == nil {
			return ""
		}
		return PlainText(b.Code.RichText)
	case BlockCallout:
		if b.Callout == nil {
			return ""
		}
		return PlainText(b.Callout.RichText)
	default:
		return ""
	}
}

func richTextPayloadText(p *RichTextPayload) string {
	if p == nil {
		return ""
	}
	return PlainText(p.RichText)
}
