package telegram

import (
	"context"
	"fmt"
	"time"

	xhttp "Boardroom/pkg/http"
	xlogger "Boardroom/pkg/logger"
)

const sendTimeout = 10 * time.Second

// Notifier pushes trade receipts and alerts to a Telegram chat. Sends are
// fire and forget; a dead bot never blocks or fails a trading cycle.
type Notifier struct {
	token  string
	chatID string
	http   *xhttp.Client
	logger *xlogger.Logger
}

func New(token, chatID string, logger *xlogger.Logger) *Notifier {
	return &Notifier{
		token:  token,
		chatID: chatID,
		http:   xhttp.NewClient(xhttp.WithTimeout(sendTimeout)),
		logger: logger.With("telegram"),
	}
}

// Enabled reports whether credentials are configured.
func (n *Notifier) Enabled() bool {
	return n.token != "" && n.chatID != ""
}

// Notify sends text to the configured chat in the background.
func (n *Notifier) Notify(text string) {
	if !n.Enabled() || text == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		err := n.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.token),
			Body: map[string]string{
				"chat_id": n.chatID,
				"text":    text,
			},
		}, nil)
		if err != nil {
			n.logger.Warn("send failed", xlogger.Error(err))
		}
	}()
}
