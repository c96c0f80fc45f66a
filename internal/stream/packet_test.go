package stream

import (
	"bytes"
	"testing"
	"time"

	"screen-grab-streamer/internal/encode"
)

func TestPacketizeJPEGFragments(t *testing.T) {
	data := make([]byte, 3000)
	for i := range data {
		data[i] = byte(i)
	}
	frame := encode.EncodedFrame{Data: data, Width: 640, Height: 480, Timestamp: time.Now()}

	var seq uint16 = 100
	const maxPayload = 1400
	packets := packetizeJPEG(frame, 26, &seq, 90000, maxPayload)

	if len(packets) != 3 {
		t.Fatalf("got %d packets, want 3", len(packets))
	}

	var reassembled []byte
	offset := 0
	for i, p := range packets {
		if p.Header.Version != 2 || p.Header.PayloadType != 26 || p.Header.SSRC != 12345678 {
			t.Errorf("packet %d header: %+v", i, p.Header)
		}
		if p.Header.SequenceNumber != uint16(100+i) {
			t.Errorf("packet %d seq = %d, want %d", i, p.Header.SequenceNumber, 100+i)
		}
		if p.Header.Timestamp != 90000 {
			t.Errorf("packet %d ts = %d, want 90000", i, p.Header.Timestamp)
		}
		wantMarker := i == len(packets)-1
		if p.Header.Marker != wantMarker {
			t.Errorf("packet %d marker = %v, want %v", i, p.Header.Marker, wantMarker)
		}

		h := p.Payload[:8]
		gotOffset := int(h[1])<<16 | int(h[2])<<8 | int(h[3])
		if gotOffset != offset {
			t.Errorf("packet %d fragment offset = %d, want %d", i, gotOffset, offset)
		}
		if h[6] != byte(640/8) || h[7] != byte(480/8) {
			t.Errorf("packet %d dimensions = %d,%d", i, h[6], h[7])
		}
		if len(p.Payload) > maxPayload {
			t.Errorf("packet %d payload %d bytes exceeds %d", i, len(p.Payload), maxPayload)
		}
		reassembled = append(reassembled, p.Payload[8:]...)
		offset += len(p.Payload) - 8
	}
	if seq != 103 {
		t.Errorf("seq advanced to %d, want 103", seq)
	}
	if !bytes.Equal(reassembled, data) {
		t.Error("reassembled fragments differ from original frame")
	}
}

func TestPacketizeJPEGSingleFragment(t *testing.T) {
	frame := encode.EncodedFrame{Data: make([]byte, 100), Width: 64, Height: 48}
	var seq uint16
	packets := packetizeJPEG(frame, 26, &seq, 0, 1400)
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	if !packets[0].Header.Marker {
		t.Error("single fragment must carry the marker bit")
	}
	if len(packets[0].Payload) != 108 {
		t.Errorf("payload %d bytes, want 108", len(packets[0].Payload))
	}
}
