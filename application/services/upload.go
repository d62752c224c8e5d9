package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// RejectedUploadMessage is shown when a blocked file type is dropped.
const RejectedUploadMessage = "Executable files are not allowed for security reasons."

const iconSize = 60

var fileIcons = map[valueobjects.FileKind]string{
	valueobjects.FileKindPDF:          "\U0001F4D5",
	valueobjects.FileKindText:         "\U0001F4DD",
	valueobjects.FileKindDocument:     "\U0001F4D8",
	valueobjects.FileKindSpreadsheet:  "\U0001F4D7",
	valueobjects.FileKindPresentation: "\U0001F4D9",
	valueobjects.FileKindOther:        "\U0001F4C4",
}

const (
	videoIcon      = "\U0001F4FC"
	videoIconColor = "#3ca3e7"
)

// UploadService turns user files into image, video and file nodes.
type UploadService struct {
	ws          *Workspace
	thumbnailer ports.Thumbnailer
	logger      *zap.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(ws *Workspace, thumbnailer ports.Thumbnailer, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{ws: ws, thumbnailer: thumbnailer, logger: logger}
}

// UploadOutcome reports what happened to one file of a batch.
type UploadOutcome struct {
	FileName string              `json:"fileName"`
	NodeID   valueobjects.NodeID `json:"nodeId"`
	Error    string              `json:"error,omitempty"`
}

// UploadAsNode creates a node for file at pos. Blocked extensions are
// refused with RejectedUpload and leave the graph untouched.
func (s *UploadService) UploadAsNode(ctx context.Context, file ports.UploadedFile, pos *valueobjects.Position) (valueobjects.NodeID, error) {
	cfg := s.ws.rules()
	if cfg.IsBlockedExtension(filepath.Ext(file.Name)) {
		s.ws.metrics.UploadRejected()
		s.logger.Warn("Rejected upload", zap.String("fileName", file.Name))
		return valueobjects.UnassignedNodeID, pkgerrors.NewRejectedUploadError(file.Name).
			WithDetails(map[string]interface{}{"fileName": file.Name, "reason": RejectedUploadMessage})
	}
	if len(file.Data) == 0 {
		return valueobjects.UnassignedNodeID, pkgerrors.NewValidationError(fmt.Sprintf("file %q is empty", file.Name))
	}

	mediaType := detectMediaType(file)
	media := valueobjects.MediaPayload{
		Data:      dataURL(mediaType, file.Data),
		FileName:  file.Name,
		MediaType: mediaType,
	}

	attrs := map[string]json.RawMessage{}
	switch valueobjects.ClassifyUpload(mediaType) {
	case valueobjects.NodeTypeImage:
		thumb, err := s.thumbnail(ctx, file)
		if err != nil {
			return valueobjects.UnassignedNodeID, err
		}
		media.Thumbnail = thumb.DataURL
		size := float64(max(thumb.Width, thumb.Height))/10 + 40
		attrs["shape"] = mustRaw("image")
		attrs["image"] = mustRaw(thumb.DataURL)
		attrs["size"] = mustRaw(size)
		mergeAttributes(attrs, typeColor(valueobjects.NodeTypeImage))
	case valueobjects.NodeTypeVideo:
		attrs["shape"] = mustRaw("icon")
		attrs["icon"] = iconAttribute(videoIcon, videoIconColor)
		mergeAttributes(attrs, typeColor(valueobjects.NodeTypeVideo))
	default:
		media.Kind = valueobjects.ClassifyFileKind(file.Name, mediaType)
		attrs["shape"] = mustRaw("icon")
		attrs["icon"] = iconAttribute(fileIcons[media.Kind], media.Kind.Color())
		mergeAttributes(attrs, fileColor(media.Kind))
	}

	var id valueobjects.NodeID
	err := s.ws.mutate(ctx, func(fx *effects) error {
		node, err := entities.NewMediaNode(media, pos, cfg)
		if err != nil {
			return err
		}
		node.Apply(entities.NodeUpdate{Attributes: attrs})
		id, err = s.ws.addNodeLocked(node)
		return err
	})
	if err != nil {
		return valueobjects.UnassignedNodeID, err
	}

	s.logger.Info("Upload added",
		zap.Int("nodeID", int(id)),
		zap.String("fileName", file.Name),
		zap.String("mediaType", mediaType),
		zap.Int("bytes", len(file.Data)),
	)
	return id, nil
}

// UploadMany places files around center, each one offset diagonally from
// the previous. A rejected file does not stop the batch.
func (s *UploadService) UploadMany(ctx context.Context, files []ports.UploadedFile, center valueobjects.Position) []UploadOutcome {
	outcomes := make([]UploadOutcome, 0, len(files))
	for i, file := range files {
		pos := center.Offset(float64(i) * s.ws.rules().UploadOffset)
		id, err := s.UploadAsNode(ctx, file, &pos)
		outcome := UploadOutcome{FileName: file.Name, NodeID: id}
		if err != nil {
			outcome.Error = err.Error()
			if pkgerrors.IsRejectedUpload(err) {
				outcome.Error = RejectedUploadMessage
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *UploadService) thumbnail(ctx context.Context, file ports.UploadedFile) (*ports.Thumbnail, error) {
	if s.thumbnailer == nil {
		return nil, pkgerrors.NewUnavailableError("thumbnailer")
	}
	cfg := s.ws.rules()
	thumb, err := s.thumbnailer.Thumbnail(ctx, file.Data, cfg.ThumbnailMaxSize, cfg.ThumbnailQuality)
	if err != nil {
		s.logger.Warn("Failed to decode image upload", zap.String("fileName", file.Name), zap.Error(err))
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("image %q could not be decoded", file.Name)).WithCause(err)
	}
	return thumb, nil
}

// detectMediaType trusts the declared type unless it is missing or generic,
// in which case the content is sniffed.
func detectMediaType(file ports.UploadedFile) string {
	declared := strings.TrimSpace(file.MediaType)
	if declared != "" {
		if parsed, _, err := mime.ParseMediaType(declared); err == nil {
			declared = parsed
		}
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	sniffed := mimetype.Detect(file.Data).String()
	if parsed, _, err := mime.ParseMediaType(sniffed); err == nil {
		return parsed
	}
	return sniffed
}

func dataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func iconAttribute(code, color string) json.RawMessage {
	return mustRaw(map[string]interface{}{
		"face":  "FontAwesome",
		"code":  code,
		"color": color,
		"size":  iconSize,
	})
}

func mergeAttributes(dst, src map[string]json.RawMessage) {
	for k, v := range src {
		dst[k] = v
	}
}

func mustRaw(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
