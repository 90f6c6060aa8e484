package gesture

import "github.com/ayusman/handpointer/internal/detector"

// AssignRoles picks the pointer and scroll hands from one frame's
// detections. The camera view is mirrored: "Right" drives the pointer and
// "Left" scrolls. Other labels are ignored. When a label appears more than
// once, the last occurrence wins.
func AssignRoles(hands []detector.HandLandmarks) (pointerHand, scrollHand *detector.HandLandmarks) {
	for i := range hands {
		switch hands[i].Handedness {
		case detector.LabelRight:
			pointerHand = &hands[i]
		case detector.LabelLeft:
			scrollHand = &hands[i]
		}
	}
	return pointerHand, scrollHand
}
