package transport

import (
	"errors"
	"io"
	"sync"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/koetsuki/internal/protocol"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMessagesFromResponse(t *testing.T) {
	resp := &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "hel"}}},
			{},
			{IsFinal: true, Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " hello "}, {Transcript: "yellow"}}},
		},
	}

	got := messagesFromResponse(resp)
	want := []protocol.Message{
		{Kind: protocol.KindPartial, Text: "hel"},
		{Kind: protocol.KindFinal, Text: "hello"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestIsStreamLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"max duration", status.Error(codes.Aborted, "Max duration of 5 minutes reached for stream."), true},
		{"idle timeout", status.Error(codes.Aborted, "Stream timed out after receiving no more client requests."), true},
		{"other abort", status.Error(codes.Aborted, "something else"), false},
		{"unavailable", status.Error(codes.Unavailable, "max duration of 5 minutes"), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStreamLimitError(tt.err); got != tt.want {
				t.Fatalf("isStreamLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeRecognizeStream struct {
	speechpb.Speech_StreamingRecognizeClient

	mu        sync.Mutex
	responses []*speechpb.StreamingRecognizeResponse
	recvErr   error
	sendErr   error
	sent      int
	closed    bool
}

func (f *fakeRecognizeStream) Send(*speechpb.StreamingRecognizeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent++
	return nil
}

func (f *fakeRecognizeStream) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		return resp, nil
	}
	return nil, f.recvErr
}

func (f *fakeRecognizeStream) CloseSend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestSpeechConnStreamLimitDropsAudioUntilRestart(t *testing.T) {
	stream := &fakeRecognizeStream{
		responses: []*speechpb.StreamingRecognizeResponse{
			{Results: []*speechpb.StreamingRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "hel"}}},
			}},
		},
		recvErr: status.Error(codes.Aborted, "Max duration of 5 minutes reached for stream."),
		sendErr: errors.New("stream already finished"),
	}
	recv := &recordingReceiver{}
	c := &speechConn{receiver: recv, stream: stream}

	c.receiveLoop(stream)

	msgs, closes := recv.snapshot()
	if len(closes) != 0 {
		t.Fatalf("stream limit reported as close: %v", closes)
	}
	want := []protocol.Message{
		{Kind: protocol.KindPartial, Text: "hel"},
		{Kind: protocol.KindStatus, Text: statusStreamLimit},
	}
	if len(msgs) != len(want) || msgs[0] != want[0] || msgs[1] != want[1] {
		t.Fatalf("messages = %+v, want %+v", msgs, want)
	}
	if err := c.SendPCM([]byte{0, 0}); err != nil {
		t.Fatalf("SendPCM after stream limit failed: %v", err)
	}
	if err := c.SendControl(protocol.Stop()); err != nil {
		t.Fatalf("stop after stream limit failed: %v", err)
	}
	stream.mu.Lock()
	defer stream.mu.Unlock()
	if stream.sent != 0 {
		t.Fatalf("audio sent to finished stream %d times", stream.sent)
	}
	if !stream.closed {
		t.Fatal("finished stream was not half-closed")
	}
}

func TestSpeechConnStreamLimitKeepsNewerStream(t *testing.T) {
	old := &fakeRecognizeStream{}
	current := &fakeRecognizeStream{}
	c := &speechConn{receiver: &recordingReceiver{}, stream: current}

	c.handleRecvError(old, status.Error(codes.Aborted, "Max duration of 5 minutes reached for stream."))

	if err := c.SendPCM([]byte{1, 0}); err != nil {
		t.Fatalf("SendPCM failed: %v", err)
	}
	current.mu.Lock()
	defer current.mu.Unlock()
	if current.sent != 1 {
		t.Fatalf("expected audio on the current stream, got %d sends", current.sent)
	}
}

func TestSpeechConnReportsStreamFailure(t *testing.T) {
	stream := &fakeRecognizeStream{recvErr: status.Error(codes.Unavailable, "connection reset")}
	recv := &recordingReceiver{}
	c := &speechConn{receiver: recv, stream: stream}

	c.receiveLoop(stream)

	if _, closes := recv.snapshot(); len(closes) != 1 {
		t.Fatalf("expected one close, got %v", closes)
	}
}

func TestSpeechConnEndOfStreamIsSilent(t *testing.T) {
	stream := &fakeRecognizeStream{recvErr: io.EOF}
	recv := &recordingReceiver{}
	c := &speechConn{receiver: recv, stream: stream}

	c.receiveLoop(stream)

	msgs, closes := recv.snapshot()
	if len(msgs) != 0 || len(closes) != 0 {
		t.Fatalf("unexpected callbacks: %+v %v", msgs, closes)
	}
}
