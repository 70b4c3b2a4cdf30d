package services

import (
	"context"

	"csv-insights/dataset"
	"csv-insights/responder"
	"csv-insights/viz"
	"csv-insights/web/format"
	"csv-insights/web/types"

	"go.uber.org/zap"
)

// Chat transcript messages.
const (
	MsgUploadSuccess       = "CSV file uploaded successfully!"
	msgParseErrorPrefix    = "Error parsing file: "
	msgUploadChartFollowUp = "Here is a line graph of the first two columns."
)

// Responder answers a single chat message.
type Responder interface {
	Respond(ctx context.Context, req responder.Request) responder.Reply
}

// ChatService appends turns to a session transcript. It takes the session by
// pointer and the caller saves it afterwards.
type ChatService struct {
	responder Responder
	logger    *zap.Logger
}

func NewChatService(r Responder, logger *zap.Logger) *ChatService {
	return &ChatService{responder: r, logger: logger}
}

// SendMessage records the user's message and the bot reply, returning the new turns.
func (cs *ChatService) SendMessage(ctx context.Context, session *types.Session, message string) []types.Turn {
	start := len(session.Transcript)
	session.Append(types.Turn{Speaker: types.SpeakerUser, Text: message})

	reply := cs.responder.Respond(ctx, responder.Request{
		Message:      message,
		LastChartPNG: session.LastChartPNG,
	})
	cs.logger.Debug("Chat reply",
		zap.String("session_id", session.ID.String()),
		zap.String("kind", string(reply.Kind)))

	session.Append(botTurn(reply.Text))
	return session.Transcript[start:]
}

// Upload records an uploaded file and either a line graph of its first two
// columns or the reason none could be drawn.
func (cs *ChatService) Upload(session *types.Session, upload *Upload) []types.Turn {
	start := len(session.Transcript)
	session.Append(botTurn(MsgUploadSuccess))

	table, err := dataset.ParseDataURI(upload.DataURI())
	if err != nil {
		cs.logger.Info("Chat upload could not be parsed",
			zap.String("session_id", session.ID.String()),
			zap.String("filename", upload.Filename),
			zap.Error(err))
		session.Append(botTurn(msgParseErrorPrefix + err.Error()))
		return session.Transcript[start:]
	}

	chart, err := viz.Render(viz.NewSpec(viz.KindLine, table), table)
	if err != nil {
		session.Append(botTurn(viz.ErrorMessage(err)))
		return session.Transcript[start:]
	}

	session.LastChartPNG = chart.PNG()
	session.Append(types.Turn{
		Speaker:    types.SpeakerBot,
		Text:       msgUploadChartFollowUp,
		HTML:       format.ToHTML(msgUploadChartFollowUp),
		ChartImage: pngDataURI(chart.PNG()),
	})
	return session.Transcript[start:]
}

func botTurn(text string) types.Turn {
	return types.Turn{Speaker: types.SpeakerBot, Text: text, HTML: format.ToHTML(text)}
}
