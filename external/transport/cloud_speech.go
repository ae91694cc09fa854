package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/koetsuki/internal/audio"
	"github.com/foxseedlab/koetsuki/internal/protocol"
	"github.com/foxseedlab/koetsuki/internal/transport"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	audioChannelCount     = 1

	statusStreamLimit = "Cloud Speech stream limit reached. Stop and start again to continue."
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

// CloudSpeechClient opens a recognition stream on every start.
type CloudSpeechClient struct {
	projectID       string
	credentialsJSON string
	language        string
	location        string
	model           string
}

func NewCloudSpeechClient(cfg CloudSpeechConfig) *CloudSpeechClient {
	return &CloudSpeechClient{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
	}
}

func (c *CloudSpeechClient) Connect(ctx context.Context, receiver transport.Receiver) (transport.Conn, error) {
	slog.Info("connecting cloud speech", "location", c.location, "language", c.language, "model", c.model)
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(c.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: detect credentials: %v", transport.ErrTransport, err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if c.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", c.location, speechAPIEndpointPort)))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	return &speechConn{
		client:     client,
		receiver:   receiver,
		ctx:        streamCtx,
		cancel:     cancel,
		recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", c.projectID, c.location),
		config:     c.streamingConfig(),
	}, nil
}

func (c *CloudSpeechClient) streamingConfig() *speechpb.StreamingRecognitionConfig {
	return &speechpb.StreamingRecognitionConfig{
		Config: &speechpb.RecognitionConfig{
			Model:         c.model,
			LanguageCodes: []string{c.language},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   audio.TargetSampleRate,
					AudioChannelCount: audioChannelCount,
				},
			},
			Features: &speechpb.RecognitionFeatures{},
		},
		StreamingFeatures: &speechpb.StreamingRecognitionFeatures{InterimResults: true},
	}
}

type speechConn struct {
	client     *speech.Client
	receiver   transport.Receiver
	ctx        context.Context
	cancel     context.CancelFunc
	recognizer string
	config     *speechpb.StreamingRecognitionConfig

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	closed atomic.Bool
}

func (c *speechConn) SendPCM(pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return io.ErrClosedPipe
	}
	if c.stream == nil {
		return nil
	}
	err := c.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{Audio: pcm},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	return nil
}

func (c *speechConn) SendControl(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return io.ErrClosedPipe
	}
	switch msg.Kind {
	case protocol.KindStart:
		return c.openStreamLocked()
	case protocol.KindStop:
		return c.closeStreamLocked()
	default:
		return fmt.Errorf("message type %q cannot be sent", msg.Kind)
	}
}

func (c *speechConn) openStreamLocked() error {
	if c.stream != nil {
		_ = c.stream.CloseSend()
	}
	stream, err := c.client.StreamingRecognize(c.ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		Recognizer:       c.recognizer,
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{StreamingConfig: c.config},
	})
	if err != nil {
		_ = stream.CloseSend()
		return fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	c.stream = stream
	go c.receiveLoop(stream)
	slog.Info("cloud speech stream opened", "recognizer", c.recognizer)
	return nil
}

func (c *speechConn) closeStreamLocked() error {
	if c.stream == nil {
		return nil
	}
	err := c.stream.CloseSend()
	c.stream = nil
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	return nil
}

func (c *speechConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	if c.stream != nil {
		_ = c.stream.CloseSend()
		c.stream = nil
	}
	c.mu.Unlock()
	c.cancel()
	return c.client.Close()
}

func (c *speechConn) receiveLoop(stream speechpb.Speech_StreamingRecognizeClient) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			c.handleRecvError(stream, err)
			return
		}
		for _, msg := range messagesFromResponse(resp) {
			c.receiver.OnMessage(msg)
		}
	}
}

func (c *speechConn) handleRecvError(stream speechpb.Speech_StreamingRecognizeClient, err error) {
	switch {
	case errors.Is(err, io.EOF), c.closed.Load(), status.Code(err) == codes.Canceled:
		slog.Info("cloud speech receive loop stopped", "reason", err.Error())
	case isStreamLimitError(err):
		slog.Warn("cloud speech stream ended by server limit", "error", err)
		c.detachStream(stream)
		c.receiver.OnMessage(protocol.Message{Kind: protocol.KindStatus, Text: statusStreamLimit})
	default:
		slog.Error("cloud speech stream failed", "error", err)
		c.receiver.OnClose(fmt.Errorf("%w: %v", transport.ErrTransport, err))
	}
}

func (c *speechConn) detachStream(stream speechpb.Speech_StreamingRecognizeClient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == stream {
		_ = c.stream.CloseSend()
		c.stream = nil
	}
}

func messagesFromResponse(resp *speechpb.StreamingRecognizeResponse) []protocol.Message {
	var out []protocol.Message
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		text := result.GetAlternatives()[0].GetTranscript()
		if result.GetIsFinal() {
			out = append(out, protocol.Message{Kind: protocol.KindFinal, Text: strings.TrimSpace(text)})
			continue
		}
		out = append(out, protocol.Message{Kind: protocol.KindPartial, Text: text})
	}
	return out
}

func isStreamLimitError(err error) bool {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Aborted {
		return false
	}
	msg := strings.ToLower(st.Message())
	return strings.Contains(msg, "max duration of 5 minutes") ||
		strings.Contains(msg, "stream timed out after receiving no more client requests")
}
