package session

const (
	messageReady               = "Ready. Connect to the decoder, then hold push-to-talk or start continuous capture."
	messageConnected           = "STT connected."
	messageAlreadyConnected    = "STT already connected."
	messageConnectFailed       = "STT connect failed."
	messageConnectFirst        = "Connect STT first."
	messageListeningPushToTalk = "Push-to-talk listening (hold)."
	messageListeningContinuous = "Continuous listening. Stop to end."
	messageCaptureStopped      = "Capture stopped."
	messageDisconnected        = "STT stopped."
	messageTransportLost       = "STT disconnected."
	messageReconnectRequired   = "STT connection lost. Connect again."
	messageMicFailed           = "Microphone permission failed."
	messageTranscriptCleared   = "Transcript cleared."
)

const (
	stopReasonManual        = "manual disconnect"
	stopReasonShutdown      = "client shutdown"
	stopReasonTransportLost = "transport closed unexpectedly"
)

func listeningMessage(mode Mode) string {
	if mode == ModeContinuous {
		return messageListeningContinuous
	}
	return messageListeningPushToTalk
}

const messageArchiveAttachment = "Speech session ended. Transcript attached."
