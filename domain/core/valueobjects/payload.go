package valueobjects

import (
	"path/filepath"
	"strings"
	"time"
)

// Payload is the type-specific data carried by a node.
// Wikipedia and web nodes carry none.
type Payload interface {
	payloadKind() string
}

// NoticePayload holds a user-authored note.
type NoticePayload struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (NoticePayload) payloadKind() string { return "notice" }

// FileKind groups generic uploads for icon selection.
type FileKind string

const (
	FileKindPDF          FileKind = "pdf"
	FileKindText         FileKind = "text"
	FileKindDocument     FileKind = "document"
	FileKindSpreadsheet  FileKind = "spreadsheet"
	FileKindPresentation FileKind = "presentation"
	FileKindOther        FileKind = "other"
)

// MediaPayload holds an uploaded image, video or file.
type MediaPayload struct {
	// Data is a data URL or an external reference.
	Data      string   `json:"data"`
	FileName  string   `json:"fileName"`
	MediaType string   `json:"mediaType"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Kind      FileKind `json:"kind,omitempty"`
}

func (MediaPayload) payloadKind() string { return "media" }

// ClassifyUpload maps a media type to the node type an upload creates.
func ClassifyUpload(mediaType string) NodeType {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return NodeTypeImage
	case strings.HasPrefix(mediaType, "video/"):
		return NodeTypeVideo
	default:
		return NodeTypeFile
	}
}

// ClassifyFileKind picks the icon family for a generic file.
func ClassifyFileKind(fileName, mediaType string) FileKind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch {
	case strings.Contains(mediaType, "pdf") || ext == "pdf":
		return FileKindPDF
	case strings.HasPrefix(mediaType, "text/") || ext == "txt" || ext == "md":
		return FileKindText
	case strings.Contains(mediaType, "word") || ext == "doc" || ext == "docx" || ext == "odt" || ext == "rtf":
		return FileKindDocument
	case strings.Contains(mediaType, "excel") || strings.Contains(mediaType, "spreadsheet") || ext == "xls" || ext == "xlsx" || ext == "csv" || ext == "ods":
		return FileKindSpreadsheet
	case strings.Contains(mediaType, "powerpoint") || strings.Contains(mediaType, "presentation") || ext == "ppt" || ext == "pptx" || ext == "odp":
		return FileKindPresentation
	default:
		return FileKindOther
	}
}

// Color is the accent used when drawing a file node of this kind.
func (k FileKind) Color() string {
	switch k {
	case FileKindPDF:
		return "#e74c3c"
	case FileKindText:
		return "#2ecc71"
	case FileKindSpreadsheet:
		return "#27ae60"
	case FileKindPresentation:
		return "#f39c12"
	default:
		return "#3498db"
	}
}
