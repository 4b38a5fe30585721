package tui

type surfaceMsg struct {
	tab    int
	events []surfaceEvent
}
