package infra

import "testing"

func TestMetrics_Snapshot(t *testing.T) {
	m := &Metrics{}

	m.RecordFrame()
	m.RecordFrame()
	m.RecordApplied()
	m.RecordIgnored()
	m.RecordMalformed()
	m.RecordReconnect()
	m.RecordSnapshotLoad()
	m.RecordOrderSubmitted()
	m.RecordOrderRejected()

	s := m.Snapshot()
	if s.FramesReceived != 2 {
		t.Errorf("frames received = %d, want 2", s.FramesReceived)
	}
	if s.EventsApplied != 1 || s.EventsIgnored != 1 || s.FramesMalformed != 1 {
		t.Errorf("event counters wrong: %+v", s)
	}
	if s.Reconnects != 1 || s.SnapshotLoads != 1 {
		t.Errorf("transport counters wrong: %+v", s)
	}
	if s.OrdersSubmitted != 1 || s.OrdersRejected != 1 {
		t.Errorf("order counters wrong: %+v", s)
	}

	m.Reset()
	if s := m.Snapshot(); s.FramesReceived != 0 || s.EventsApplied != 0 {
		t.Errorf("Reset left counters: %+v", s)
	}
}
