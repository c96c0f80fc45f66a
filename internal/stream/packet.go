package stream

import (
	"github.com/pion/rtp"

	"screen-grab-streamer/internal/encode"
)

// buildJPEGHeader writes the RFC 2435 main JPEG header for one fragment.
func buildJPEGHeader(offset int, width, height int) []byte {
	h := make([]byte, 8)
	h[0] = 0x00
	h[1] = byte(offset >> 16)
	h[2] = byte(offset >> 8)
	h[3] = byte(offset)
	h[4] = 1
	h[5] = 0x01
	h[6] = byte(width / 8)
	h[7] = byte(height / 8)
	return h
}

// packetizeJPEG fragments one encoded frame into RTP/JPEG packets. seq is
// advanced across calls; all fragments of a frame share ts and the last one
// carries the marker bit.
func packetizeJPEG(frame encode.EncodedFrame, payloadType uint8, seq *uint16, ts uint32, maxPayload int) []*rtp.Packet {
	var packets []*rtp.Packet
	offset := 0
	for offset < len(frame.Data) {
		payloadSize := maxPayload - 8
		if remain := len(frame.Data) - offset; remain < payloadSize {
			payloadSize = remain
		}
		fragment := frame.Data[offset : offset+payloadSize]
		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    payloadType,
				SequenceNumber: *seq,
				Timestamp:      ts,
				SSRC:           12345678,
				Marker:         offset+payloadSize >= len(frame.Data),
			},
			Payload: append(buildJPEGHeader(offset, frame.Width, frame.Height), fragment...),
		})
		offset += payloadSize
		*seq++
	}
	return packets
}
