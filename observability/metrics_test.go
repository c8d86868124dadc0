package observability

import (
	"campus-chat/domain"
	"campus-chat/domain/event"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Consume(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m := NewMetrics()

	// When a conversation happens and a call is placed then ended
	events := []event.DomainEvent{
		event.ThreadStarted{Thread: domain.Thread{ID: "t1"}},
		event.MessageAppended{Message: domain.Message{ThreadID: "t1"}},
		event.MessageAppended{Message: domain.Message{ThreadID: "t1"}},
		event.MessageCensored{ThreadID: "t1"},
		event.SignalDropped{Reason: "queue full"},
		event.CallTransitioned{Owner: "u1", From: domain.CallIdle, To: domain.CallCalling},
		event.CallTransitioned{Owner: "u1", From: domain.CallCalling, To: domain.CallActive},
		event.CallTransitioned{Owner: "u2", From: domain.CallIncoming, To: domain.CallActive},
		event.CallTransitioned{Owner: "u1", From: domain.CallActive, To: domain.CallIdle},
	}
	for _, e := range events {
		req.NoError(m.Consume(ctx, e))
	}

	// Then
	req.Equal(1.0, testutil.ToFloat64(m.threadsStarted))
	req.Equal(2.0, testutil.ToFloat64(m.messages))
	req.Equal(1.0, testutil.ToFloat64(m.censored))
	req.Equal(1.0, testutil.ToFloat64(m.signalsDropped.WithLabelValues("queue full")))
	req.Equal(2.0, testutil.ToFloat64(m.callTransitions.WithLabelValues(string(domain.CallActive))))
	req.Equal(1.0, testutil.ToFloat64(m.callsActive))
}

func TestMetrics_Handler(t *testing.T) {
	req := require.New(t)
	m := NewMetrics()
	req.NoError(m.Consume(context.Background(), event.ThreadStarted{}))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.True(strings.Contains(rec.Body.String(), "threads_started_total 1"))
}
