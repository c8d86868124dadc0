package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{3599, "59:59"},
		{3600, "60:00"},
		{6000, "100:00"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.New(t).Equal(tt.want, FormatElapsed(tt.seconds))
		})
	}
}

func TestCallSnapshot_ElapsedSeconds_Only_When_Active(t *testing.T) {
	req := require.New(t)
	session := &CallSession{Peer: Participant{ID: "u2"}, MediaKind: MediaVoice, ElapsedSeconds: 12}

	req.Equal(12, CallSnapshot{State: CallActive, Session: session}.ElapsedSeconds())
	req.Equal(0, CallSnapshot{State: CallCalling, Session: session}.ElapsedSeconds())
	req.Equal(0, CallSnapshot{State: CallIdle}.ElapsedSeconds())
}

func TestMediaKind_Valid(t *testing.T) {
	req := require.New(t)
	req.True(MediaVoice.Valid())
	req.True(MediaVideo.Valid())
	req.False(MediaKind("fax").Valid())
}
