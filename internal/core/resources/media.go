package resources

import (
	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
)

func init() {
	registerStream("live-streams", "Live Streams", "live-stream", "liveStreams", "liveStream")
	registerStream("audio-streams", "Audio Streams", "audio-stream", "audioStreams", "audioStream")
	registerStream("video-streams", "Video Streams", "video-stream", "videoStreams", "videoStream")
}

// registerStream registers one of the three stream resources; they share a
// record shape.
func registerStream(key, label, noun, listKey, itemKey string) {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: key, Group: session.GroupMedia, Label: label},
		Fields: []core.FieldSpec{
			title,
			{Name: "url", Label: "Stream URL", Type: core.FieldURL, Editable: true, Required: true},
			{Name: "platform", Label: "Platform", Type: core.FieldEnum, Filterable: true, Sortable: true, Editable: true,
				EnumValues: []string{"youtube", "facebook", "mixlr", "website"}},
			{Name: "scheduledAt", Label: "Scheduled", Type: core.FieldDate, Sortable: true, Editable: true},
			{Name: "isLive", Label: "Live", Type: core.FieldBool, Sortable: true, Filterable: true, Editable: true},
		},
		Endpoints:    crud(noun, listKey, itemKey),
		DefaultSort:  "scheduledAt",
		DefaultOrder: table.Desc,
	})
}
