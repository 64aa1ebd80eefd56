// Package audit keeps a hash-chained trail of administrative actions taken
// through the bot.
package audit

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/majorcontext/aniflax/internal/log"
)

// EntryType identifies the kind of action recorded.
type EntryType string

const (
	EntryVisibility EntryType = "visibility"
	EntryCancel     EntryType = "cancel"
	EntryLeave      EntryType = "leave"
	EntryBackup     EntryType = "backup"
)

// FirstSequence is the sequence number of the first entry in a trail.
// Sequences are 1-indexed so seq=0 means "no previous entry".
const FirstSequence uint64 = 1

// Actor identifies who triggered an action.
type Actor struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// VisibilityData records a hide or show.
type VisibilityData struct {
	Actor
	Hidden bool `json:"hidden"`
}

// CancelData records a cancel request. Index is -1 for "latest" and 0 when
// every task was cancelled.
type CancelData struct {
	Actor
	Index     int    `json:"index"`
	Cancelled int    `json:"cancelled"`
	Command   string `json:"command,omitempty"`
}

// LeaveData records leaving a guild.
type LeaveData struct {
	Actor
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name"`
}

// BackupData records a source archive being sent.
type BackupData struct {
	Actor
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Entry is a single hash-chained record.
type Entry struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Type      EntryType `json:"type"`
	PrevHash  string    `json:"prev"`
	Data      any       `json:"data"`
	Hash      string    `json:"hash"`
	// dataJSON is the canonical encoding used for hashing. After a database
	// round-trip Data is a map[string]any, which marshals with sorted keys.
	dataJSON []byte
}

// NewEntry creates an entry with its hash computed.
func NewEntry(seq uint64, prevHash string, entryType EntryType, data any) *Entry {
	return newEntryWithTimestamp(seq, prevHash, entryType, data, time.Now().UTC())
}

func newEntryWithTimestamp(seq uint64, prevHash string, entryType EntryType, data any, ts time.Time) *Entry {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		log.Warn("failed to marshal audit data", "type", entryType, "error", err)
		dataJSON = []byte("null")
	}
	e := &Entry{
		Sequence:  seq,
		Timestamp: ts,
		Type:      entryType,
		PrevHash:  prevHash,
		Data:      data,
		dataJSON:  dataJSON,
	}
	e.Hash = e.computeHash()
	return e
}

// computeHash calculates SHA-256(seq || ts || type || prev || data).
func (e *Entry) computeHash() string {
	h := sha256.New()

	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], e.Sequence)
	h.Write(seq[:])
	h.Write([]byte(e.Timestamp.Format(time.RFC3339Nano)))
	h.Write([]byte(e.Type))
	h.Write([]byte(e.PrevHash))

	data := e.dataJSON
	if data == nil {
		var err error
		data, err = json.Marshal(e.Data)
		if err != nil {
			data = []byte("null")
		}
	}
	h.Write(data)

	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether the entry's hash matches its contents.
func (e *Entry) Verify() bool {
	return e.Hash == e.computeHash()
}
