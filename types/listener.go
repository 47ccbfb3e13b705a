package types

// Listener receives start/finish notifications for every executed node. Calls
// for a node's descendants are nested inside that node's own pair.
type Listener interface {
	TestStarted(node TestNode)
	TestFinished(result *TestResult)
}

// NullListener ignores all notifications
type NullListener struct{}

func (NullListener) TestStarted(TestNode)     {}
func (NullListener) TestFinished(*TestResult) {}

// MultiListener fans notifications out to several listeners in order
type MultiListener []Listener

// TestStarted implements Listener
func (m MultiListener) TestStarted(node TestNode) {
	for _, l := range m {
		l.TestStarted(node)
	}
}

// TestFinished implements Listener
func (m MultiListener) TestFinished(result *TestResult) {
	for _, l := range m {
		l.TestFinished(result)
	}
}
