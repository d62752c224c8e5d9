package ports

import (
	"context"
	"time"

	"github.com/Apanazar/WGE/domain/core/aggregates"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/domain/events"
)

// Link is an outbound link found in fetched content
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// FetchResult is the content-fetch collaborator's answer for one URL
type FetchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Links   []Link `json:"links"`
}

// ContentFetcher retrieves remote content for wikipedia and web nodes.
// The engine never inspects Content; it is forwarded to the presenter.
type ContentFetcher interface {
	// Fetch returns the title, markup and at most limit outbound links of url.
	// A limit of zero or less means no cap.
	Fetch(ctx context.Context, url string, limit int) (*FetchResult, error)

	// RandomURL returns the address of a random article for a language
	RandomURL(ctx context.Context, language string) (string, error)
}

// PromptRequest describes a question put to the user
type PromptRequest struct {
	Message string
	Default string
}

// Prompter asks the user for a string. ok is false when the user cancelled.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (answer string, ok bool, err error)
}

// PresentationKind selects what the side panel shows
type PresentationKind string

const (
	PresentLoading PresentationKind = "loading"
	PresentArticle PresentationKind = "article"
	PresentNotice  PresentationKind = "notice"
	PresentMedia   PresentationKind = "media"
	PresentFailure PresentationKind = "failure"
)

// Presentation is the content bound to the side panel for one activation
type Presentation struct {
	Token   uint64                      `json:"token"`
	NodeID  valueobjects.NodeID         `json:"nodeId"`
	Kind    PresentationKind            `json:"kind"`
	Title   string                      `json:"title"`
	URL     string                      `json:"url,omitempty"`
	Content string                      `json:"content,omitempty"`
	Notice  *valueobjects.NoticePayload `json:"notice,omitempty"`
	Media   *valueobjects.MediaPayload  `json:"media,omitempty"`
	Message string                      `json:"message,omitempty"`
}

// Presenter is the presentation surface (side panel)
type Presenter interface {
	// Present replaces whatever the surface shows
	Present(ctx context.Context, p Presentation)

	// Clear closes the surface
	Clear(ctx context.Context)
}

// EventPublisher forwards graph deltas to renderers and other subscribers
type EventPublisher interface {
	Publish(ctx context.Context, events []events.DomainEvent) error
}

// UploadedFile is a file picked or dropped by the user
type UploadedFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// Thumbnail is a scaled preview encoded as a data URL
type Thumbnail struct {
	DataURL string
	Width   int
	Height  int
}

// Thumbnailer produces bounded previews of images
type Thumbnailer interface {
	// Thumbnail scales an image to at most maxSize on its longer side,
	// preserving the aspect ratio.
	Thumbnail(ctx context.Context, data []byte, maxSize, quality int) (*Thumbnail, error)
}

// BlobSink writes bytes under a suggested name, returning where they went
type BlobSink interface {
	Write(ctx context.Context, suggestedName string, data []byte) (string, error)
}

// SnapshotInfo is the metadata block of a saved graph
type SnapshotInfo struct {
	SavedAt   time.Time `json:"savedAt"`
	Version   string    `json:"version"`
	NodeCount int       `json:"nodeCount"`
	EdgeCount int       `json:"edgeCount"`
	Language  string    `json:"language"`
}

// GraphCodec converts graphs to and from the saved document format
type GraphCodec interface {
	// Encode serializes every node and edge of graph with metadata
	Encode(graph *aggregates.Graph, language string) ([]byte, SnapshotInfo, error)

	// Decode builds a fresh graph from payload. It fails with InvalidFormat
	// when the document lacks nodes or edges.
	Decode(payload []byte) (*aggregates.Graph, SnapshotInfo, error)

	// FileName suggests a download name for a save made at t
	FileName(t time.Time) string
}

// SnapshotSummary lists a stored snapshot
type SnapshotSummary struct {
	Name string `json:"name"`
	SnapshotInfo
}

// SnapshotStore keeps named saved graphs
type SnapshotStore interface {
	// Save stores payload under name, replacing an existing snapshot
	Save(ctx context.Context, name string, payload []byte, info SnapshotInfo) error

	// Load returns the payload stored under name
	Load(ctx context.Context, name string) ([]byte, error)

	// List returns all snapshots, newest first
	List(ctx context.Context) ([]SnapshotSummary, error)
}
