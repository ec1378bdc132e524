package chatclient

import (
	"testing"
	"time"

	"direct-chat-backend/internal/models"
)

func msgAt(id, sender, receiver, text string, at time.Time) *models.Message {
	return &models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  at,
	}
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestStore_MergeOrdersAndDeduplicates(t *testing.T) {
	store := NewStore("me")
	store.SelectPeer("bob")

	m1 := msgAt("m1", "bob", "me", "first", t0)
	m2 := msgAt("m2", "me", "bob", "second", t0.Add(time.Minute))
	m3 := msgAt("m3", "bob", "me", "third", t0.Add(2*time.Minute))

	// Live push lands before the historical fetch returns.
	store.ApplyIncoming(m3)
	store.MergeMessages(m2, m1, m3)

	msgs := store.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Messages() = %d entries, want 3 (no duplicates)", len(msgs))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if msgs[i].ID != want {
			t.Errorf("Messages()[%d] = %s, want %s", i, msgs[i].ID, want)
		}
	}
}

func TestStore_MergeIgnoresOtherConversations(t *testing.T) {
	store := NewStore("me")
	store.SelectPeer("bob")

	store.MergeMessages(
		msgAt("m1", "bob", "me", "mine", t0),
		msgAt("m2", "carol", "me", "other peer", t0),
		msgAt("m3", "carol", "dave", "unrelated", t0),
	)

	msgs := store.Messages()
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("Messages() = %v, want only m1", msgs)
	}
}

func TestStore_TimestampTieBreaksOnID(t *testing.T) {
	store := NewStore("me")
	store.SelectPeer("bob")

	store.MergeMessages(
		msgAt("b", "bob", "me", "later id", t0),
		msgAt("a", "me", "bob", "earlier id", t0),
	)

	msgs := store.Messages()
	if msgs[0].ID != "a" || msgs[1].ID != "b" {
		t.Errorf("tie-broken order = [%s %s], want [a b]", msgs[0].ID, msgs[1].ID)
	}
}

func TestStore_ApplyIncoming_ActiveConversation(t *testing.T) {
	store := NewStore("me")
	store.SetUsers([]*models.UserSummary{
		{User: models.User{ID: "bob", FullName: "Bob"}},
	})
	store.SelectPeer("bob")

	msg := msgAt("m1", "bob", "me", "hi", t0)
	if active := store.ApplyIncoming(msg); !active {
		t.Fatal("ApplyIncoming() = inactive for the open conversation")
	}

	if msgs := store.Messages(); len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Errorf("Messages() = %v, want [m1]", msgs)
	}
	if got := store.UnreadCount("bob"); got != 0 {
		t.Errorf("UnreadCount() = %d for the open conversation, want 0", got)
	}

	users := store.Users()
	if users[0].LastMessage == nil || users[0].LastMessage.ID != "m1" {
		t.Errorf("LastMessage = %+v, want m1", users[0].LastMessage)
	}
}

func TestStore_ApplyIncoming_BackgroundConversation(t *testing.T) {
	store := NewStore("me")
	store.SetUsers([]*models.UserSummary{
		{User: models.User{ID: "bob"}},
		{User: models.User{ID: "carol"}},
	})
	store.SelectPeer("bob")

	if active := store.ApplyIncoming(msgAt("m1", "carol", "me", "psst", t0)); active {
		t.Fatal("ApplyIncoming() = active for a background conversation")
	}
	if active := store.ApplyIncoming(msgAt("m2", "carol", "me", "psst again", t0.Add(time.Second))); active {
		t.Fatal("ApplyIncoming() = active for a background conversation")
	}

	if msgs := store.Messages(); len(msgs) != 0 {
		t.Errorf("background messages leaked into the open buffer: %v", msgs)
	}
	if got := store.UnreadCount("carol"); got != 2 {
		t.Errorf("UnreadCount(carol) = %d, want 2", got)
	}

	for _, user := range store.Users() {
		if user.ID == "carol" {
			if user.LastMessage == nil || user.LastMessage.ID != "m2" {
				t.Errorf("carol.LastMessage = %+v, want m2", user.LastMessage)
			}
		}
	}
}

func TestStore_ApplyIncoming_OwnMessage(t *testing.T) {
	store := NewStore("me")
	store.SetUsers([]*models.UserSummary{{User: models.User{ID: "bob"}}})
	store.SelectPeer("bob")

	// The optimistic append of a send response goes through the same path.
	if active := store.ApplyIncoming(msgAt("m1", "me", "bob", "hi", t0)); !active {
		t.Fatal("ApplyIncoming() = inactive for own message to the open peer")
	}
	if got := store.UnreadCount("bob"); got != 0 {
		t.Errorf("UnreadCount() = %d after own send, want 0", got)
	}
}

func TestStore_ApplyIncoming_UnknownPeerTracked(t *testing.T) {
	store := NewStore("me")
	store.SelectPeer("bob")

	store.ApplyIncoming(msgAt("m1", "mallory", "me", "hello stranger", t0))

	if got := store.UnreadCount("mallory"); got != 1 {
		t.Errorf("UnreadCount(mallory) = %d, want 1", got)
	}
}

func TestStore_ApplyIncoming_UninvolvedViewer(t *testing.T) {
	store := NewStore("me")
	store.SelectPeer("bob")

	if active := store.ApplyIncoming(msgAt("m1", "carol", "dave", "not ours", t0)); active {
		t.Error("ApplyIncoming() = active for a message the viewer is not part of")
	}
	if msgs := store.Messages(); len(msgs) != 0 {
		t.Errorf("foreign message entered the buffer: %v", msgs)
	}
}

func TestStore_SelectPeerResetsBufferAndUnread(t *testing.T) {
	store := NewStore("me")
	store.SetUsers([]*models.UserSummary{
		{User: models.User{ID: "bob"}, UnreadCount: 4},
		{User: models.User{ID: "carol"}},
	})

	store.SelectPeer("carol")
	store.MergeMessages(msgAt("m1", "carol", "me", "hi", t0))

	store.SelectPeer("bob")
	if msgs := store.Messages(); len(msgs) != 0 {
		t.Errorf("buffer not reset on SelectPeer: %v", msgs)
	}
	if got := store.UnreadCount("bob"); got != 0 {
		t.Errorf("UnreadCount(bob) = %d after opening, want 0", got)
	}

	// Re-opening carol refetches from scratch; the old buffer entry must
	// not survive as a duplicate guard.
	store.SelectPeer("carol")
	store.MergeMessages(msgAt("m1", "carol", "me", "hi", t0))
	if msgs := store.Messages(); len(msgs) != 1 {
		t.Errorf("refetched history missing after reopen: %v", msgs)
	}
}

func TestStore_OnlineUsers(t *testing.T) {
	store := NewStore("me")

	store.SetOnlineUsers([]string{"bob", "carol"})
	if !store.IsOnline("bob") || !store.IsOnline("carol") {
		t.Error("IsOnline() = false for broadcast users")
	}
	if store.IsOnline("dave") {
		t.Error("IsOnline(dave) = true, want false")
	}

	store.SetOnlineUsers([]string{"carol"})
	if store.IsOnline("bob") {
		t.Error("IsOnline(bob) = true after bob left")
	}
}
