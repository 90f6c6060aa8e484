package preview

import "gocv.io/x/gocv"

const keyEscape = 27

// Window shows frames in a local OpenCV window. ESC asks to quit.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

// Display shows frame and polls the keyboard once.
func (w *Window) Display(frame *gocv.Mat) bool {
	w.window.IMShow(*frame)
	return w.window.WaitKey(1) != keyEscape
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
