package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gotd/td/tg"

	"github.com/applygate/applybot/internal/source"
)

// HistoryClient reads channel history over MTProto. The Bot API exposes no
// history iteration, so searches go through the raw client instead.
type HistoryClient struct {
	api      *tg.Client
	pageSize int
	log      *slog.Logger
}

// NewHistoryClient builds a HistoryClient over the raw MTProto API.
func NewHistoryClient(api *tg.Client, pageSize int, log *slog.Logger) *HistoryClient {
	if pageSize <= 0 {
		pageSize = 100
	}
	if log == nil {
		log = slog.Default()
	}

	return &HistoryClient{
		api:      api,
		pageSize: pageSize,
		log:      log,
	}
}

// Resolve maps a public username to a channel input peer.
func (h *HistoryClient) Resolve(ctx context.Context, handle string) (source.Peer, error) {
	resolved, err := h.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: handle,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve @%s: %w", handle, err)
	}

	for _, chat := range resolved.Chats {
		if channel, ok := chat.(*tg.Channel); ok {
			return &tg.InputPeerChannel{
				ChannelID:  channel.ID,
				AccessHash: channel.AccessHash,
			}, nil
		}
	}

	return nil, fmt.Errorf("@%s does not resolve to a channel", handle)
}

// Messages pages through the peer's history newest-first and feeds each text
// message to fn until the history ends or fn returns false.
func (h *HistoryClient) Messages(ctx context.Context, peer source.Peer, fn func(source.Message) bool) error {
	input, ok := peer.(tg.InputPeerClass)
	if !ok {
		return fmt.Errorf("unexpected peer type %T", peer)
	}

	offsetID := 0
	for {
		res, err := h.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     input,
			OffsetID: offsetID,
			Limit:    h.pageSize,
		})
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}

		batch, err := historyMessages(res)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		for _, raw := range batch {
			offsetID = raw.GetID()

			msg, ok := raw.(*tg.Message)
			if !ok {
				// Service messages carry no searchable body.
				continue
			}

			if !fn(source.Message{
				Body:     msg.Message,
				PostedAt: time.Unix(int64(msg.Date), 0).UTC(),
			}) {
				return nil
			}
		}

		if len(batch) < h.pageSize {
			return nil
		}
	}
}

func historyMessages(res tg.MessagesMessagesClass) ([]tg.MessageClass, error) {
	switch m := res.(type) {
	case *tg.MessagesMessages:
		return m.Messages, nil
	case *tg.MessagesMessagesSlice:
		return m.Messages, nil
	case *tg.MessagesChannelMessages:
		return m.Messages, nil
	default:
		return nil, fmt.Errorf("unexpected history response %T", res)
	}
}
