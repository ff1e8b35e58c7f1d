package controllers

import (
	"github.com/smear-video/smear/h264"
	gocaption "github.com/szatmary/gocaption"
)

// user_data_registered_itu_t_t35
const seiPayloadTypeRegisteredUserData = 4

// CaptionReader decodes EIA-608 captions carried in SEI units. It keeps the
// caption frame between calls, so feed it units in stream order.
type CaptionReader struct {
	frame gocaption.EIA608Frame
}

func NewCaptionReader() *CaptionReader {
	return &CaptionReader{}
}

// Read returns the caption completed by nal, or "" when nal completes none.
func (r *CaptionReader) Read(nal h264.NAL) (string, error) {
	if nal.UnitType != h264.SupplementalEnhancementInformation || nal.PayloadType != seiPayloadTypeRegisteredUserData {
		return "", nil
	}
	// ANSI/SCTE 128-1 2020: caption data rides in the SEI RBSP, after the payload type and size
	payload := nal.RBSPByte[min(nal.PayloadOffset, len(nal.RBSPByte)):]
	if len(payload) > nal.PayloadSize {
		payload = payload[:nal.PayloadSize]
	}
	if len(payload) == 0 {
		return "", nil
	}
	ccData, err := gocaption.CEA708ToCCData(payload)
	if err != nil {
		return "", err
	}
	for _, cc := range ccData {
		ready, err := r.frame.Decode(cc)
		if err != nil {
			return "", err
		}
		if ready {
			return r.frame.String(), nil
		}
	}
	return "", nil
}
