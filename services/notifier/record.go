package notifysvc

import "sync"

// RecordingNotifier captures messages for assertions in tests.
type RecordingNotifier struct {
	mu        sync.Mutex
	Successes []string
	Infos     []string
	Errors    []string
}

func NewRecordingNotifier() *RecordingNotifier { return &RecordingNotifier{} }

func (n *RecordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, msg)
}

func (n *RecordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Infos = append(n.Infos, msg)
}

func (n *RecordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, msg)
}

// Reset clears all captured messages.
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes, n.Infos, n.Errors = nil, nil, nil
}
