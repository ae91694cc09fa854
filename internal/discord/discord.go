package discord

type FileMessage struct {
	ChannelID string
	Content   string
	Filename  string
	FileBody  []byte
}

type Client interface {
	SendChannelMessage(channelID, content string) error
	SendChannelMessageWithFile(msg FileMessage) error
}
