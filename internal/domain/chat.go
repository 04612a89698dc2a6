package domain

import "context"

// ChatService syncs event guest lists to the external chat provider's channel
// membership. Calls are best-effort: the guest list in the store is
// authoritative and a failed sync is only logged.
type ChatService interface {
	SyncEventChannel(ctx context.Context, eventID string, memberIDs []string) error
}
