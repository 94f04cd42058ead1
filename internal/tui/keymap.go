package tui

// Key binding constants used in handleKey.
const (
	KeyQuit       = "q"
	KeyCtrlC      = "ctrl+c"
	KeySpace      = " "
	KeyLeft       = "left"
	KeyRight      = "right"
	KeyShiftLeft  = "shift+left"
	KeyShiftRight = "shift+right"
	KeyHome       = "home"
	KeyEnd        = "end"
	KeyAdd        = "a"
	KeyDelete     = "d"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyJ          = "j"
	KeyK          = "k"
	KeyMarkStart  = "["
	KeyMarkEnd    = "]"
	KeyEditStart  = "S"
	KeyEditEnd    = "E"
	KeyRename     = "r"
	KeyMute       = "m"
	KeyLoop       = "l"
	KeyExport     = "x"
	KeyWriteCuts  = "w"
	KeyOpen       = "o"
	KeyEnter      = "enter"
	KeyEsc        = "esc"
)

// Seek steps in seconds.
const (
	smallStep = 1.0
	largeStep = 5.0
)
