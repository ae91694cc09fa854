package discord

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/koetsuki/internal/discord"
)

// Client never opens a gateway connection.
type Client struct {
	session *discordgo.Session
}

func NewClient(token string) (discordpkg.Client, error) {
	if token == "" {
		return noopClient{}, nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Client{session: s}, nil
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	_, err := c.session.ChannelMessageSend(channelID, content)
	return err
}

func (c *Client) SendChannelMessageWithFile(msg discordpkg.FileMessage) error {
	m, err := c.session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: msg.Content,
		Files: []*discordgo.File{
			{Name: msg.Filename, ContentType: "text/plain", Reader: bytes.NewReader(msg.FileBody)},
		},
	})
	if err != nil {
		return err
	}
	slog.Info("transcript file posted", "channel_id", msg.ChannelID, "message_id", m.ID, "filename", msg.Filename)
	return nil
}

type noopClient struct{}

func (noopClient) SendChannelMessage(string, string) error { return nil }

func (noopClient) SendChannelMessageWithFile(discordpkg.FileMessage) error { return nil }
