package platform

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// LoggingCommander is a Commander that records every outbound command in the
// log and acknowledges it. It backs local development and any deployment that
// runs the lifecycle without a live gateway connection; channel IDs it hands
// out are synthetic.
type LoggingCommander struct {
	logger *zap.Logger
	seq    atomic.Int64
}

// NewLoggingCommander constructs the commander.
func NewLoggingCommander(logger *zap.Logger) *LoggingCommander {
	return &LoggingCommander{logger: logger}
}

func (c *LoggingCommander) CreateTicketChannel(ctx context.Context, req ChannelRequest) (ChannelRef, error) {
	ref := ChannelRef{ID: fmt.Sprintf("chan-%d", c.seq.Add(1)), Name: req.Name}
	c.logger.Info("create ticket channel",
		zap.String("channel_id", ref.ID),
		zap.String("name", req.Name),
		zap.String("requester_id", req.RequesterID))
	return ref, nil
}

func (c *LoggingCommander) SendMessage(ctx context.Context, channelID, content string) error {
	c.logger.Info("send message", zap.String("channel_id", channelID), zap.String("content", content))
	return nil
}

func (c *LoggingCommander) SendMessageWithFile(ctx context.Context, channelID, content string, file FileUpload) error {
	c.logger.Info("send message with file",
		zap.String("channel_id", channelID),
		zap.String("file", file.Name),
		zap.Int("bytes", len(file.Content)))
	return nil
}

func (c *LoggingCommander) SetChannelPermissions(ctx context.Context, channelID, subjectID string, perms PermissionSet) error {
	c.logger.Info("set channel permissions",
		zap.String("channel_id", channelID),
		zap.String("subject_id", subjectID),
		zap.Bool("manage_messages", perms.ManageMessages))
	return nil
}

func (c *LoggingCommander) ClearChannelPermissions(ctx context.Context, channelID, subjectID string) error {
	c.logger.Info("clear channel permissions",
		zap.String("channel_id", channelID),
		zap.String("subject_id", subjectID))
	return nil
}

func (c *LoggingCommander) RenameChannel(ctx context.Context, channelID, name string) error {
	c.logger.Info("rename channel", zap.String("channel_id", channelID), zap.String("name", name))
	return nil
}

func (c *LoggingCommander) DeleteChannel(ctx context.Context, channelID string) error {
	c.logger.Info("delete channel", zap.String("channel_id", channelID))
	return nil
}

func (c *LoggingCommander) SendDirect(ctx context.Context, userID, content string) error {
	c.logger.Info("send direct message", zap.String("user_id", userID), zap.String("content", content))
	return nil
}

func (c *LoggingCommander) SendRatingPrompt(ctx context.Context, userID, ticketID, promptToken string) error {
	c.logger.Info("send rating prompt",
		zap.String("user_id", userID),
		zap.String("ticket_id", ticketID),
		zap.String("prompt_token", promptToken))
	return nil
}
