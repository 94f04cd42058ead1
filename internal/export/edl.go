package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/cutline/cutline/internal/segments"
)

// DefaultFrameRate is used when the source frame rate is unknown.
const DefaultFrameRate = 30.0

// GenerateEDL renders segs as a CMX3600 edit decision list cutting from
// mediaPath. Events are laid end to end on the record side.
func GenerateEDL(segs []segments.Segment, title string, frameRate float64, mediaPath string) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}

	fcm := "FCM: NON-DROP FRAME"
	if math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01 {
		fcm = "FCM: DROP FRAME"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n%s\n\n", title, fcm)

	record := 0.0
	for i, s := range segs {
		length := math.Max(0, s.End-s.Start)
		fmt.Fprintf(&b, "%03d  %-8s %-5s C        %s %s %s %s\n",
			i+1, "AX", "V",
			timecode(s.Start, fps), timecode(s.End, fps),
			timecode(record, fps), timecode(record+length, fps),
		)
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", s.Label)
		fmt.Fprintf(&b, "* MEDIA PATH:  %s\n", mediaPath)
		record += length
	}

	return b.String()
}

// timecode converts seconds to HH:MM:SS:FF at fps.
func timecode(seconds float64, fps int) string {
	frames := int(math.Round(seconds * float64(fps)))
	if frames < 0 {
		frames = 0
	}
	ff := frames % fps
	total := frames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", total/3600, (total/60)%60, total%60, ff)
}
