package deluge

import (
	"fmt"
	"strings"
)

// TorrentState is the state string the daemon reports for a torrent.
type TorrentState string

const (
	TorrentAllocating  TorrentState = "Allocating"
	TorrentChecking    TorrentState = "Checking"
	TorrentDownloading TorrentState = "Downloading"
	TorrentSeeding     TorrentState = "Seeding"
	TorrentPaused      TorrentState = "Paused"
	TorrentError       TorrentState = "Error"
	TorrentQueued      TorrentState = "Queued"
	TorrentMoving      TorrentState = "Moving"
)

// TorrentStates lists every known state.
var TorrentStates = []TorrentState{
	TorrentAllocating, TorrentChecking, TorrentDownloading, TorrentSeeding,
	TorrentPaused, TorrentError, TorrentQueued, TorrentMoving,
}

func (s TorrentState) String() string { return string(s) }

// ParseTorrentState matches s against the known states ignoring case.
func ParseTorrentState(s string) (TorrentState, error) {
	for _, st := range TorrentStates {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("no TorrentState member with value '%s'", strings.ToLower(s))
}
