package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/bluenviron/gortsplib/v4/pkg/format"
	"go.uber.org/zap"

	"screen-grab-streamer/internal/encode"
	"screen-grab-streamer/internal/grab"
	"screen-grab-streamer/pkg/config"
)

type rtspHandler struct {
	stream        *gortsplib.ServerStream
	media         *description.Media
	activeClients *int32
	path          string
	log           *zap.SugaredLogger
}

func (h *rtspHandler) OnConnOpen(ctx *gortsplib.ServerHandlerOnConnOpenCtx) {
	h.log.Infof("[RTSP] client connected from %v", ctx.Conn.NetConn().RemoteAddr())
}

func (h *rtspHandler) OnConnClose(ctx *gortsplib.ServerHandlerOnConnCloseCtx) {
	atomic.AddInt32(h.activeClients, -1)
	h.log.Infof("[RTSP] client disconnected, remaining: %d", atomic.LoadInt32(h.activeClients))
}

func (h *rtspHandler) OnDescribe(ctx *gortsplib.ServerHandlerOnDescribeCtx) (*base.Response, *gortsplib.ServerStream, error) {
	if strings.TrimPrefix(ctx.Path, "/") != h.path {
		h.log.Warnf("[RTSP] invalid path in Describe: %s", ctx.Path)
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, h.stream, nil
}

func (h *rtspHandler) OnSetup(ctx *gortsplib.ServerHandlerOnSetupCtx) (*base.Response, *gortsplib.ServerStream, error) {
	if strings.TrimPrefix(ctx.Path, "/") != h.path {
		h.log.Warnf("[RTSP] OnSetup rejected: invalid path %s", ctx.Path)
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, h.stream, nil
}

func (h *rtspHandler) OnPlay(ctx *gortsplib.ServerHandlerOnPlayCtx) (*base.Response, error) {
	if strings.TrimPrefix(ctx.Path, "/") != h.path {
		h.log.Warnf("[RTSP] OnPlay rejected: invalid path %s", ctx.Path)
		return &base.Response{StatusCode: base.StatusNotFound}, nil
	}
	atomic.AddInt32(h.activeClients, 1)
	h.log.Infof("[RTSP] play requested, active clients: %d", atomic.LoadInt32(h.activeClients))
	return &base.Response{StatusCode: base.StatusOK}, nil
}

// Run serves the capture session over RTSP/MJPEG until ctx is cancelled or
// the session terminates. One goroutine pulls frames from the session at
// the encoder's pace; the send loop packetizes whatever the encoder emits.
func Run(ctx context.Context, cfg *config.Config, sess *grab.Session, encoder *encode.Encoder, log *zap.SugaredLogger) error {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", cfg.RtspPort), 500*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("stream: port %d already in use", cfg.RtspPort)
	}

	mjpeg := &format.MJPEG{}
	media := &description.Media{
		Type:    description.MediaTypeVideo,
		Control: "trackID=0",
		Formats: []format.Format{mjpeg},
	}

	var activeClients int32
	h := &rtspHandler{
		media:         media,
		activeClients: &activeClients,
		path:          cfg.RtspPath,
		log:           log,
	}

	server := &gortsplib.Server{
		RTSPAddress:   fmt.Sprintf(":%d", cfg.RtspPort),
		Handler:       h,
		MaxPacketSize: 1472,
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("stream: failed to start server: %w", err)
	}
	defer server.Close()

	stream := &gortsplib.ServerStream{
		Server: server,
		Desc: &description.Session{
			Medias: []*description.Media{media},
			Title:  "RTSP Screen Grabber",
		},
	}
	if err := stream.Initialize(); err != nil {
		return fmt.Errorf("stream: failed to initialize stream: %w", err)
	}
	defer stream.Close()
	h.stream = stream
	log.Infof("[RTSP] ready on rtsp://localhost:%d/%s", cfg.RtspPort, cfg.RtspPath)

	// Pull loop: drain the session at our own pace. The session blocks us
	// until a frame is in stock, and never holds more than one.
	in := make(chan *grab.Frame, 8)
	go func() {
		defer close(in)
		for {
			frame, err := sess.ReadFrame(true)
			if err != nil {
				if !errors.Is(err, grab.ErrTerminated) {
					log.Errorf("[RTSP] capture stream failed: %v", err)
				}
				return
			}
			select {
			case in <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()
	encoder.Start(in)

	var seq uint16
	var epoch time.Time
	var wasActive bool
	for {
		var frame encode.EncodedFrame
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case frame, ok = <-encoder.Chan():
			if !ok {
				return nil
			}
		}
		if atomic.LoadInt32(&activeClients) == 0 {
			if wasActive {
				log.Infof("[RTSP] no clients, streaming paused")
				wasActive = false
			}
			continue
		}
		if !wasActive {
			log.Infof("[RTSP] client detected, streaming started")
			wasActive = true
		}
		if epoch.IsZero() {
			epoch = frame.Timestamp
		}
		ts := uint32(frame.Timestamp.Sub(epoch) * 90000 / time.Second)
		for _, packet := range packetizeJPEG(frame, mjpeg.PayloadType(), &seq, ts, cfg.RtpPayloadMaxSize) {
			if err := stream.WritePacketRTP(media, packet); err != nil {
				log.Warnf("[RTSP] failed to send packet: %v", err)
			}
		}
	}
}
